//go:build !nopkcs12lib

package p12id

import (
	"bytes"
	"context"
	"crypto"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pkcs12"
	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

func newLibrary() (Extractor, bool) {
	return Library{}, true
}

// oidEmailAddress is the PKCS#9 emailAddress subject attribute.
var oidEmailAddress = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 1}

// Library decodes the bundle in process.
//
// go-pkcs12 reads both the legacy RC2/3DES bundles and the PBES2/AES bundles
// with SHA-256 MACs written by OpenSSL 3. Bundles it rejects for their
// structure, such as several key bags, are retried with x/crypto's ToPEM,
// which returns every bag.
type Library struct{}

var _ Extractor = Library{}

// Extract decodes the bundle. Any decode failure is reported as ErrWrongPassphrase.
func (Library) Extract(ctx context.Context, bundle []byte, passphrase string, altIdentity bool) (Identity, error) {
	leaf, err := decodeLeaf(bundle, passphrase)
	if err != nil {
		return Identity{}, decodeError{err: err}
	}
	if altIdentity {
		return Identity{}, nil
	}
	return certIdentity(leaf)
}

func decodeLeaf(bundle []byte, passphrase string) (*x509.Certificate, error) {
	key, cert, chain, err := gopkcs12.DecodeChain(bundle, passphrase)
	if err == nil {
		return chainLeaf(key, cert, chain), nil
	}
	if errors.Is(err, gopkcs12.ErrIncorrectPassword) {
		return nil, err
	}
	blocks, perr := pkcs12.ToPEM(bundle, passphrase)
	if perr != nil {
		return nil, err
	}
	return leafCertificate(blocks)
}

// chainLeaf returns the certificate holding the public half of key.
// Without a match it keeps the first certificate of the bundle.
func chainLeaf(key any, cert *x509.Certificate, chain []*x509.Certificate) *x509.Certificate {
	signer, ok := key.(crypto.Signer)
	if !ok {
		return cert
	}
	pub, ok := signer.Public().(interface{ Equal(crypto.PublicKey) bool })
	if !ok {
		return cert
	}
	for _, c := range append([]*x509.Certificate{cert}, chain...) {
		if pub.Equal(c.PublicKey) {
			return c
		}
	}
	return cert
}

// leafCertificate picks the certificate paired with the private key.
// Without a key id match it takes the first non-CA certificate, then the first certificate.
func leafCertificate(blocks []*pem.Block) (*x509.Certificate, error) {
	var keyID string
	for _, b := range blocks {
		if b.Type == "PRIVATE KEY" {
			keyID = b.Headers["localKeyId"]
			break
		}
	}

	var certs []*x509.Certificate
	for _, b := range blocks {
		if b.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(b.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse certificate: %w", err)
		}
		if keyID != "" && b.Headers["localKeyId"] == keyID {
			return cert, nil
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, fmt.Errorf("no certificate in bundle")
	}
	for _, cert := range certs {
		if !cert.IsCA {
			return cert, nil
		}
	}
	return certs[0], nil
}

// certIdentity returns the subject commonName, falling back to the subject emailAddress.
func certIdentity(cert *x509.Certificate) (Identity, error) {
	if cn := strings.TrimSpace(cert.Subject.CommonName); cn != "" {
		return Identity{Username: cn, Source: "commonName"}, nil
	}
	if email := subjectEmail(cert); email != "" {
		return Identity{Username: email, Source: "emailAddress"}, nil
	}
	return Identity{}, ErrNoUsableIdentity
}

func subjectEmail(cert *x509.Certificate) string {
	for _, atv := range cert.Subject.Names {
		if !atv.Type.Equal(oidEmailAddress) {
			continue
		}
		switch v := atv.Value.(type) {
		case string:
			return strings.TrimSpace(v)
		case []byte:
			return string(bytes.TrimSpace(v))
		}
	}
	return ""
}
