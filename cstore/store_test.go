//go:build unix

package cstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kardianos/catinstall/cdef"
)

func TestOpenCreatesPrivateDir(t *testing.T) {
	dir := DefaultDir(t.TempDir())

	s, err := Open(dir)
	require.NoError(t, err)
	assert.False(t, s.Existed())

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
	assert.Equal(t, os.FileMode(0700), fi.Mode().Perm())

	again, err := Open(dir)
	require.NoError(t, err)
	assert.True(t, again.Existed())
}

func TestOpenRejectsUntrustedDir(t *testing.T) {
	t.Run("group writable", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "state")
		require.NoError(t, os.Mkdir(dir, 0700))
		require.NoError(t, os.Chmod(dir, 0775))

		_, err := Open(dir)
		require.ErrorIs(t, err, ErrInsecureDir)
	})

	t.Run("symlink", func(t *testing.T) {
		base := t.TempDir()
		target := filepath.Join(base, "real")
		require.NoError(t, os.Mkdir(target, 0700))
		link := filepath.Join(base, "link")
		require.NoError(t, os.Symlink(target, link))

		_, err := Open(link)
		var ie InsecureDirError
		require.True(t, errors.As(err, &ie), "got %v", err)
		assert.Equal(t, "not a directory", ie.Reason)
	})

	t.Run("regular file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state")
		require.NoError(t, os.WriteFile(path, nil, 0600))

		_, err := Open(path)
		require.ErrorIs(t, err, ErrInsecureDir)
	})
}

func TestStageFiles(t *testing.T) {
	s, err := Open(DefaultDir(t.TempDir()))
	require.NoError(t, err)

	assert.False(t, s.HasCA())
	require.NoError(t, s.SaveCA("not pem"))
	assert.False(t, s.HasCA())
	require.NoError(t, s.SaveCA("-----BEGIN CERTIFICATE-----\nAA==\n-----END CERTIFICATE-----"))
	assert.True(t, s.HasCA())

	data, err := os.ReadFile(s.CAPath())
	require.NoError(t, err)
	assert.Equal(t, "-----BEGIN CERTIFICATE-----\nAA==\n-----END CERTIFICATE-----\n", string(data))

	src := filepath.Join(t.TempDir(), "me.p12")
	require.NoError(t, os.WriteFile(src, []byte{0x30, 0x82, 0x01}, 0644))

	got, err := s.StageBundle(src)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x30, 0x82, 0x01}, got)

	staged, err := os.ReadFile(s.BundlePath())
	require.NoError(t, err)
	assert.Equal(t, got, staged)

	for _, p := range []string{s.CAPath(), s.BundlePath()} {
		fi, err := os.Stat(p)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), fi.Mode().Perm(), p)
	}

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temporary files left behind")
}

func TestStageBundleMissingSource(t *testing.T) {
	s, err := Open(DefaultDir(t.TempDir()))
	require.NoError(t, err)

	_, err = s.StageBundle(filepath.Join(t.TempDir(), "absent.p12"))
	require.ErrorIs(t, err, cdef.ErrIO)
	require.ErrorIs(t, err, os.ErrNotExist)

	assert.NoFileExists(t, s.BundlePath())
}
