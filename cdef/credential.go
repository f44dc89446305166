package cdef

import (
	"fmt"
	"log/slog"
)

// Credential is the user side of the network identity.
//
// Password holds the inner-method password for PEAP and TTLS. Passphrase
// unlocks the PKCS#12 bundle for TLS. Bundle is the staged bundle content
// once the certificate file has been copied into the state directory.
type Credential struct {
	Username   string
	Password   string
	Passphrase string
	CertFile   string
	Bundle     []byte
}

// Complete checks the credential against the outer method: certificate
// methods need a username, password methods need a username and a password.
func (c Credential) Complete(m EAPMethod) error {
	if c.Username == "" {
		return fmt.Errorf("%w: username is empty", ErrIncompleteCredential)
	}
	if m.UsesPassword() && c.Password == "" {
		return fmt.Errorf("%w: password is empty", ErrIncompleteCredential)
	}
	return nil
}

// String omits every secret.
func (c Credential) String() string {
	return fmt.Sprintf("credential{user=%q bundle=%d bytes}", c.Username, len(c.Bundle))
}

// LogValue keeps secrets out of every slog handler, including JSON.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("user", c.Username),
		slog.String("cert_file", c.CertFile),
		slog.Int("bundle_bytes", len(c.Bundle)),
	)
}
