//go:build !nopkcs12lib

package p12id

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

// newCert returns a self-signed certificate with the given subject.
func newCert(t *testing.T, subject pkix.Name, isCA bool) (*x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               subject,
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		BasicConstraintsValid: true,
		IsCA:                  isCA,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert, key
}

func emailName(email string) pkix.Name {
	return pkix.Name{ExtraNames: []pkix.AttributeTypeAndValue{{Type: oidEmailAddress, Value: email}}}
}

func TestLibraryExtract(t *testing.T) {
	ctx := context.Background()

	t.Run("common name", func(t *testing.T) {
		subject := emailName("alice@old.net")
		subject.CommonName = "alice@example.net"
		cert, key := newCert(t, subject, false)
		bundle, err := gopkcs12.Legacy.Encode(key, cert, nil, "s3cret")
		require.NoError(t, err)

		id, err := Library{}.Extract(ctx, bundle, "s3cret", false)
		require.NoError(t, err)
		assert.Equal(t, Identity{Username: "alice@example.net", Source: "commonName"}, id)
	})

	t.Run("email fallback", func(t *testing.T) {
		cert, key := newCert(t, emailName("bob@ucn.cl"), false)
		bundle, err := gopkcs12.Legacy.Encode(key, cert, nil, "pw")
		require.NoError(t, err)

		id, err := Library{}.Extract(ctx, bundle, "pw", false)
		require.NoError(t, err)
		assert.Equal(t, Identity{Username: "bob@ucn.cl", Source: "emailAddress"}, id)
	})

	t.Run("no identity", func(t *testing.T) {
		cert, key := newCert(t, pkix.Name{Organization: []string{"Example"}}, false)
		bundle, err := gopkcs12.Legacy.Encode(key, cert, nil, "pw")
		require.NoError(t, err)

		_, err = Library{}.Extract(ctx, bundle, "pw", false)
		require.ErrorIs(t, err, ErrNoUsableIdentity)

		id, err := Library{}.Extract(ctx, bundle, "pw", true)
		require.NoError(t, err, "alt identity mode must not read the subject")
		assert.Equal(t, Identity{}, id)
	})

	t.Run("modern encoding", func(t *testing.T) {
		cert, key := newCert(t, pkix.Name{CommonName: "dave@example.net"}, false)
		bundle, err := gopkcs12.Modern.Encode(key, cert, nil, "s3cret")
		require.NoError(t, err)

		id, err := Library{}.Extract(ctx, bundle, "s3cret", false)
		require.NoError(t, err)
		assert.Equal(t, Identity{Username: "dave@example.net", Source: "commonName"}, id)

		_, err = Library{}.Extract(ctx, bundle, "wrong", false)
		require.ErrorIs(t, err, ErrWrongPassphrase)
	})

	t.Run("leaf chosen over chain", func(t *testing.T) {
		ca, _ := newCert(t, pkix.Name{CommonName: "ca@example.net"}, true)
		cert, key := newCert(t, pkix.Name{CommonName: "carol@example.net"}, false)
		bundle, err := gopkcs12.Legacy.Encode(key, cert, []*x509.Certificate{ca}, "pw")
		require.NoError(t, err)

		id, err := Library{}.Extract(ctx, bundle, "pw", false)
		require.NoError(t, err)
		assert.Equal(t, "carol@example.net", id.Username)

		modern, err := gopkcs12.Modern.Encode(key, cert, []*x509.Certificate{ca}, "pw")
		require.NoError(t, err)
		id, err = Library{}.Extract(ctx, modern, "pw", false)
		require.NoError(t, err)
		assert.Equal(t, "carol@example.net", id.Username)
	})
}

func TestChainLeaf(t *testing.T) {
	ca, _ := newCert(t, pkix.Name{CommonName: "Root"}, true)
	leaf, key := newCert(t, pkix.Name{CommonName: "leaf@example.net"}, false)

	// The bundle may list the issuer first; the key decides.
	got := chainLeaf(key, ca, []*x509.Certificate{leaf})
	assert.Equal(t, "leaf@example.net", got.Subject.CommonName)

	got = chainLeaf(key, leaf, []*x509.Certificate{ca})
	assert.Equal(t, "leaf@example.net", got.Subject.CommonName)

	other, _ := newCert(t, pkix.Name{CommonName: "other"}, false)
	got = chainLeaf(key, other, []*x509.Certificate{ca})
	assert.Equal(t, "other", got.Subject.CommonName, "no match keeps the first certificate")

	got = chainLeaf(nil, ca, nil)
	assert.Equal(t, "Root", got.Subject.CommonName)
}

func TestLibraryDecodeFailureIsWrongPassphrase(t *testing.T) {
	ctx := context.Background()
	cert, key := newCert(t, pkix.Name{Organization: []string{"No identity"}}, false)
	bundle, err := gopkcs12.Legacy.Encode(key, cert, nil, "right")
	require.NoError(t, err)
	modern, err := gopkcs12.Modern.Encode(key, cert, nil, "right")
	require.NoError(t, err)

	inputs := map[string]struct {
		bundle []byte
		pass   string
	}{
		"wrong passphrase":        {bundle, "wrong"},
		"wrong passphrase modern": {modern, "wrong"},
		"garbage":                 {[]byte("not a pkcs12 file"), "right"},
		"empty":                   {nil, ""},
		"truncated":               {bundle[:len(bundle)/2], "right"},
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := Library{}.Extract(ctx, in.bundle, in.pass, false)
			require.ErrorIs(t, err, ErrWrongPassphrase)
			assert.False(t, errors.Is(err, ErrNoUsableIdentity))
		})
	}
}

func TestLeafCertificate(t *testing.T) {
	ca, _ := newCert(t, pkix.Name{CommonName: "Root"}, true)
	leaf, _ := newCert(t, pkix.Name{CommonName: "leaf@example.net"}, false)

	certBlock := func(c *x509.Certificate, id string) *pem.Block {
		b := &pem.Block{Type: "CERTIFICATE", Bytes: c.Raw}
		if id != "" {
			b.Headers = map[string]string{"localKeyId": id}
		}
		return b
	}

	got, err := leafCertificate([]*pem.Block{
		certBlock(ca, "aa"),
		{Type: "PRIVATE KEY", Headers: map[string]string{"localKeyId": "aa"}},
		certBlock(leaf, ""),
	})
	require.NoError(t, err)
	assert.Equal(t, "Root", got.Subject.CommonName, "key id match wins")

	got, err = leafCertificate([]*pem.Block{certBlock(ca, ""), certBlock(leaf, "")})
	require.NoError(t, err)
	assert.Equal(t, "leaf@example.net", got.Subject.CommonName)

	got, err = leafCertificate([]*pem.Block{certBlock(ca, "")})
	require.NoError(t, err)
	assert.Equal(t, "Root", got.Subject.CommonName)

	_, err = leafCertificate([]*pem.Block{{Type: "PRIVATE KEY"}})
	require.Error(t, err)
}

// Both strategies must agree on the same bundle.
func TestStrategiesAgree(t *testing.T) {
	path, err := exec.LookPath("openssl")
	if err != nil {
		t.Skip("openssl not installed")
	}
	ctx := context.Background()
	subject := emailName("alice@old.net")
	subject.CommonName = "alice@example.net"
	cert, key := newCert(t, subject, false)

	modern, err := gopkcs12.Modern.Encode(key, cert, nil, "s3cret")
	require.NoError(t, err)
	id, err := (&OpenSSL{Path: path}).Extract(ctx, modern, "s3cret", false)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.net", id.Username)

	_, err = (&OpenSSL{Path: path}).Extract(ctx, modern, "wrong", false)
	require.ErrorIs(t, err, ErrWrongPassphrase)

	legacy, err := gopkcs12.Legacy.Encode(key, cert, nil, "s3cret")
	require.NoError(t, err)
	for _, bundle := range [][]byte{legacy, modern} {
		libID, err := Library{}.Extract(ctx, bundle, "s3cret", false)
		require.NoError(t, err)
		assert.Equal(t, id.Username, libID.Username)
	}
}
