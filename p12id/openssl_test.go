package p12id

import (
	"context"
	"errors"
	"os/exec"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubject(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want map[string]string
	}{
		{
			name: "slash form",
			out:  "subject=/CN=alice@example.net/emailAddress=alice@old.net",
			want: map[string]string{"cn": "alice@example.net", "emailaddress": "alice@old.net"},
		},
		{
			name: "comma form with spaces",
			out:  "subject=C = CL, O = Universidad, CN = bob@ucn.cl",
			want: map[string]string{"c": "CL", "o": "Universidad", "cn": "bob@ucn.cl"},
		},
		{
			name: "multiline output takes the first subject",
			out: strings.Join([]string{
				"Bag Attributes",
				"    localKeyID: 01 02 03",
				"subject=/CN=first@example.net",
				"issuer=/CN=Example CA",
				"subject=/CN=second@example.net",
				"-----BEGIN CERTIFICATE-----",
			}, "\n"),
			want: map[string]string{"cn": "first@example.net"},
		},
		{
			name: "crlf line endings",
			out:  "Bag Attributes\r\nsubject=/CN=carol@example.net\r\nissuer=/CN=CA\r\n",
			want: map[string]string{"cn": "carol@example.net"},
		},
		{
			name: "field without value is skipped",
			out:  "subject=/CN=dave@example.net/broken",
			want: map[string]string{"cn": "dave@example.net"},
		},
		{
			name: "keys are case insensitive",
			out:  "subject=/cn=Eve@Example.NET/EMAILADDRESS=eve@example.net",
			want: map[string]string{"cn": "Eve@Example.NET", "emailaddress": "eve@example.net"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSubject(tt.out)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := ParseSubject("issuer=/CN=Example CA\n-----BEGIN CERTIFICATE-----")
	assert.False(t, ok)
}

func TestSubjectIdentity(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]string
		want    Identity
		wantErr error
	}{
		{
			name:   "cn preferred over email",
			fields: map[string]string{"cn": "alice@example.net", "emailaddress": "alice@old.net"},
			want:   Identity{Username: "alice@example.net", Source: "commonName"},
		},
		{
			name:   "cn without @ falls back to email",
			fields: map[string]string{"cn": "Alice Example", "emailaddress": "alice@example.net"},
			want:   Identity{Username: "alice@example.net", Source: "emailAddress"},
		},
		{
			name:   "email only",
			fields: map[string]string{"emailaddress": "alice@example.net"},
			want:   Identity{Username: "alice@example.net", Source: "emailAddress"},
		},
		{
			name:    "nothing with @",
			fields:  map[string]string{"cn": "Alice Example", "emailaddress": "alice"},
			wantErr: ErrNoUsableIdentity,
		},
		{
			name:    "empty",
			fields:  map[string]string{},
			wantErr: ErrNoUsableIdentity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SubjectIdentity(tt.fields)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type fakeRun struct {
	out   string
	err   error
	stdin []byte
	env   []string
	args  []string
}

func (f *fakeRun) run(ctx context.Context, stdin []byte, env []string, name string, args ...string) ([]byte, error) {
	f.stdin = stdin
	f.env = env
	f.args = append([]string{name}, args...)
	return []byte(f.out), f.err
}

func TestOpenSSLExtract(t *testing.T) {
	ctx := context.Background()
	bundle := []byte{0x30, 0x01}

	t.Run("identity from subject", func(t *testing.T) {
		f := &fakeRun{out: "Bag Attributes\nsubject=/CN=alice@example.net/emailAddress=alice@old.net\nissuer=/CN=CA\n"}
		o := &OpenSSL{Path: "/usr/bin/openssl", Run: f.run}

		id, err := o.Extract(ctx, bundle, "s3cret", false)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.net", id.Username)
		assert.Equal(t, bundle, f.stdin)
		assert.Equal(t, []string{passEnv + "=s3cret"}, f.env)
		assert.False(t, slices.ContainsFunc(f.args, func(a string) bool { return strings.Contains(a, "s3cret") }),
			"passphrase on command line: %v", f.args)
		assert.Equal(t, []string{"/usr/bin/openssl", "pkcs12", "-passin", "env:" + passEnv, "-nokeys", "-clcerts"}, f.args)
	})

	t.Run("non-zero exit is wrong passphrase", func(t *testing.T) {
		f := &fakeRun{err: &exec.ExitError{}}
		_, err := (&OpenSSL{Run: f.run}).Extract(ctx, bundle, "bad", false)
		require.ErrorIs(t, err, ErrWrongPassphrase)
		assert.False(t, errors.Is(err, ErrNoUsableIdentity))
	})

	t.Run("start failure is tool unavailable", func(t *testing.T) {
		f := &fakeRun{err: exec.ErrNotFound}
		_, err := (&OpenSSL{Run: f.run}).Extract(ctx, bundle, "pw", false)
		require.ErrorIs(t, err, ErrToolUnavailable)
	})

	t.Run("no usable identity", func(t *testing.T) {
		f := &fakeRun{out: "subject=/CN=Alice Example/O=Example\n"}
		_, err := (&OpenSSL{Run: f.run}).Extract(ctx, bundle, "pw", false)
		require.ErrorIs(t, err, ErrNoUsableIdentity)
	})

	t.Run("alt identity skips parsing", func(t *testing.T) {
		f := &fakeRun{out: "no subject here"}
		id, err := (&OpenSSL{Run: f.run}).Extract(ctx, bundle, "pw", true)
		require.NoError(t, err)
		assert.Equal(t, Identity{}, id)
	})
}

func TestNewSelectsTool(t *testing.T) {
	missing := func(string) (string, error) { return "", exec.ErrNotFound }
	found := func(name string) (string, error) { return "/usr/bin/" + name, nil }

	_, err := New(Options{ForceTool: true, LookPath: missing})
	require.ErrorIs(t, err, ErrToolUnavailable)

	ex, err := New(Options{ForceTool: true, LookPath: found})
	require.NoError(t, err)
	o, ok := ex.(*OpenSSL)
	require.True(t, ok, "got %T", ex)
	assert.Equal(t, "/usr/bin/openssl", o.Path)
}
