// Package p12id recovers the authentication identity from a PKCS#12 client
// certificate bundle.
//
// Two strategies implement Extractor: Library decodes the bundle in process,
// OpenSSL runs the openssl command and parses the certificate subject from
// its text output. New picks one at startup; callers only see Extractor.
package p12id

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
)

var (
	// ErrWrongPassphrase is returned when the bundle cannot be opened with the passphrase.
	ErrWrongPassphrase = errors.New("p12id: wrong passphrase")

	// ErrNoUsableIdentity is returned when the certificate subject carries no usable username.
	ErrNoUsableIdentity = errors.New("p12id: no usable identity in certificate")

	// ErrToolUnavailable is returned when the external tool cannot be run.
	ErrToolUnavailable = errors.New("p12id: openssl not available")
)

// Identity is the username recovered from the certificate.
// Username is empty when extraction was skipped in alt-identity mode.
type Identity struct {
	Username string
	Source   string // "commonName", "emailAddress" or "".
}

// Extractor opens a PKCS#12 bundle and returns the identity in its leaf certificate.
type Extractor interface {
	Extract(ctx context.Context, bundle []byte, passphrase string, altIdentity bool) (Identity, error)
}

// decodeError keeps the decoder cause behind ErrWrongPassphrase.
type decodeError struct {
	err error
}

func (e decodeError) Error() string {
	return fmt.Sprintf("%s: %v", ErrWrongPassphrase, e.err)
}

func (e decodeError) Unwrap() []error {
	return []error{ErrWrongPassphrase, e.err}
}

// Options selects the strategy.
type Options struct {
	// ForceTool uses openssl even when the library is compiled in.
	ForceTool bool

	// Tool is the openssl binary name or path. Defaults to "openssl".
	Tool string

	// LookPath resolves Tool. Defaults to exec.LookPath.
	LookPath func(string) (string, error)

	Log *slog.Logger
}

// New returns the library strategy when it is compiled in and not overridden,
// otherwise the openssl strategy. It fails with ErrToolUnavailable when
// openssl is needed but not found.
func New(opts Options) (Extractor, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	if !opts.ForceTool {
		if lib, ok := newLibrary(); ok {
			log.Debug("using pkcs12 library")
			return lib, nil
		}
	}
	tool := opts.Tool
	if tool == "" {
		tool = "openssl"
	}
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(tool)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}
	log.Debug("using openssl", "path", path)
	return &OpenSSL{Path: path}, nil
}
