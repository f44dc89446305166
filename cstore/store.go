// Package cstore manages the private per-user state directory where the
// trust anchor, the client certificate bundle and the fallback supplicant
// configuration are staged.
//
// The directory is created with mode 0700 and every file is written with
// mode 0600 through a temporary file and a rename. An existing directory is
// only reused when it is a real directory owned by the current user and not
// writable by group or others.
package cstore

import (
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kardianos/catinstall/cdef"
)

// Fixed file names inside the state directory.
const (
	DirName        = ".cat_installer"
	CAFile         = "ca.pem"
	ClientBundle   = "user.p12"
	SupplicantFile = "cat_installer.conf"
)

// ErrInsecureDir is returned when an existing state directory cannot be trusted.
var ErrInsecureDir = errors.New("catinstall: state directory is not private")

// InsecureDirError describes why an existing directory was rejected.
type InsecureDirError struct {
	Path   string
	Reason string
}

func (e InsecureDirError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInsecureDir, e.Path, e.Reason)
}

func (e InsecureDirError) Unwrap() error {
	return ErrInsecureDir
}

// Store is the state directory.
type Store struct {
	dir     string
	existed bool
}

// DefaultDir returns the state directory inside home.
func DefaultDir(home string) string {
	return filepath.Join(home, DirName)
}

// Open creates the directory, or verifies an existing one.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("cstore: directory is required")
	}
	existed, err := ensurePrivateDir(dir)
	if err != nil {
		return nil, err
	}
	return &Store{dir: dir, existed: existed}, nil
}

// Existed reports whether the directory was already present when opened.
func (s *Store) Existed() bool {
	return s.existed
}

// Dir returns the directory path.
func (s *Store) Dir() string {
	return s.dir
}

// CAPath returns the trust anchor path.
func (s *Store) CAPath() string {
	return filepath.Join(s.dir, CAFile)
}

// BundlePath returns the staged client bundle path.
func (s *Store) BundlePath() string {
	return filepath.Join(s.dir, ClientBundle)
}

// SupplicantPath returns the fallback supplicant configuration path.
func (s *Store) SupplicantPath() string {
	return filepath.Join(s.dir, SupplicantFile)
}

// SaveCA writes the PEM trust anchor followed by a newline.
func (s *Store) SaveCA(pemText string) error {
	return s.write(s.CAPath(), []byte(pemText+"\n"))
}

// HasCA reports whether the trust anchor is staged as a regular file
// holding a PEM certificate.
func (s *Store) HasCA() bool {
	fi, err := os.Stat(s.CAPath())
	if err != nil || !fi.Mode().IsRegular() {
		return false
	}
	data, err := os.ReadFile(s.CAPath())
	if err != nil {
		return false
	}
	block, _ := pem.Decode(data)
	return block != nil && block.Type == "CERTIFICATE"
}

// StageBundle copies the certificate bundle at src into the directory and
// returns its content.
func (s *Store) StageBundle(src string) ([]byte, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, cdef.IOError{Op: "read", Path: src, Err: err}
	}
	if err := s.SaveBundle(data); err != nil {
		return nil, err
	}
	return data, nil
}

// SaveBundle writes the client bundle.
func (s *Store) SaveBundle(data []byte) error {
	return s.write(s.BundlePath(), data)
}

// SaveSupplicant writes the supplicant configuration.
func (s *Store) SaveSupplicant(data []byte) error {
	return s.write(s.SupplicantPath(), data)
}

func (s *Store) write(path string, data []byte) error {
	if err := atomicWriteFile(path, data, 0600); err != nil {
		return cdef.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// atomicWriteFile writes data to a temp file and renames it to the target path.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return fail(err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
