// Package cdef holds the definitions shared by the installer packages:
// the institution configuration, the user credential and the error
// categories that decide the process exit code.
package cdef

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUserCancelled is returned when the user declines a confirmation or quits a prompt.
	ErrUserCancelled = errors.New("catinstall: cancelled by user")

	// ErrMissingInput is returned in silent mode when a required value was not supplied.
	ErrMissingInput = errors.New("catinstall: required input missing")

	// ErrServiceUnreachable is returned when the network configuration service cannot be reached.
	ErrServiceUnreachable = errors.New("catinstall: network service unreachable")

	// ErrServiceProtocol is returned when the network configuration service rejects a call
	// or reports a version that is not supported.
	ErrServiceProtocol = errors.New("catinstall: network service protocol error")

	// ErrTrustAnchorMissing is returned when the staged CA certificate is missing at reconciliation time.
	ErrTrustAnchorMissing = errors.New("catinstall: trust anchor file missing")

	// ErrIO is returned when a staged file cannot be read or written.
	ErrIO = errors.New("catinstall: file access failed")

	// ErrIncompleteCredential is returned when a credential does not satisfy its EAP method.
	ErrIncompleteCredential = errors.New("catinstall: credential incomplete")
)

// IOError wraps a failed file operation on a staged file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e IOError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrIO, e.Op, e.Path, e.Err)
}

func (e IOError) Unwrap() []error {
	return []error{ErrIO, e.Err}
}

// EAPMethod is the outer EAP method of the institution.
type EAPMethod string

const (
	EAPPEAP EAPMethod = "PEAP"
	EAPTTLS EAPMethod = "TTLS"
	EAPTLS  EAPMethod = "TLS"
)

// InnerSilverBullet is the inner method name used by managed-certificate
// profiles that ship the client bundle inside the installer.
const InnerSilverBullet = "SILVERBULLET"

// ParseEAPMethod parses an outer method name, ignoring case.
func ParseEAPMethod(s string) (EAPMethod, error) {
	switch m := EAPMethod(strings.ToUpper(strings.TrimSpace(s))); m {
	case EAPPEAP, EAPTTLS, EAPTLS:
		return m, nil
	default:
		return "", fmt.Errorf("catinstall: unknown EAP method %q", s)
	}
}

// UsesPassword reports whether the method carries a password in an inner tunnel.
func (m EAPMethod) UsesPassword() bool {
	return m == EAPPEAP || m == EAPTTLS
}

// UsesCertificate reports whether the method authenticates with a client certificate.
func (m EAPMethod) UsesCertificate() bool {
	return m == EAPTLS
}

func (m EAPMethod) String() string {
	return string(m)
}
