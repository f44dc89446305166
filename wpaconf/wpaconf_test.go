package wpaconf

import (
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kardianos/catinstall/cdef"
	"github.com/kardianos/catinstall/cstore"
)

func TestRenderTTLS(t *testing.T) {
	var b strings.Builder
	err := Render(&b, Params{
		SSIDs:             []string{"eduroam", "eduroam-5g"},
		Method:            cdef.EAPTTLS,
		Inner:             "PAP",
		Identity:          "bob@sub.ucn.cl",
		Password:          `pa"ss`,
		AnonymousIdentity: "roamer@ucn.cl",
		CAPath:            "/home/bob/.cat_installer/ca.pem",
		Servers:           []string{"DNS:a.ucn.cl", "DNS:b.ucn.cl"},
	})
	require.NoError(t, err)

	want := `network={
    ssid="eduroam"
    key_mgmt=WPA-EAP
    pairwise=CCMP
    group=CCMP TKIP
    eap=TTLS
    ca_cert="/home/bob/.cat_installer/ca.pem"
    identity="bob@sub.ucn.cl"
    altsubject_match="DNS:a.ucn.cl;DNS:b.ucn.cl"
    phase2="auth=PAP"
    password=P"pa\"ss"
    anonymous_identity="roamer@ucn.cl"
}
`
	out := b.String()
	assert.Equal(t, 2, strings.Count(out, "network={"))
	assert.True(t, strings.HasPrefix(out, want), "got:\n%s", out)
	assert.Contains(t, out, `ssid="eduroam-5g"`)
}

func TestRenderTLS(t *testing.T) {
	var b strings.Builder
	require.NoError(t, Render(&b, Params{
		SSIDs:      []string{"eduroam"},
		Method:     cdef.EAPTLS,
		Identity:   "alice@example.net",
		Password:   "bundle-pass",
		CAPath:     "/s/ca.pem",
		BundlePath: "/s/user.p12",
	}))
	out := b.String()
	assert.Contains(t, out, `client_cert="/s/user.p12"`)
	assert.Contains(t, out, `private_key="/s/user.p12"`)
	assert.Contains(t, out, `private_key_passwd="bundle-pass"`)
	assert.NotContains(t, out, "phase2")
	assert.NotContains(t, out, "altsubject_match")
	assert.NotContains(t, out, "anonymous_identity")
}

func TestWrite(t *testing.T) {
	s, err := cstore.Open(t.TempDir() + "/state")
	require.NoError(t, err)

	path, err := Write(s, Params{SSIDs: []string{"eduroam"}, Method: cdef.EAPPEAP, Inner: "MSCHAPV2"})
	require.NoError(t, err)
	assert.Equal(t, s.SupplicantPath(), path)

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `phase2="auth=MSCHAPV2"`)
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"eduroam", `"eduroam"`},
		{"bob@ucn.cl", `"bob@ucn.cl"`},
		{"pass word#1", `"pass word#1"`},
		{"contraseña", `"contraseña"`},
		{"", `""`},
		{`pa"ss`, `P"pa\"ss"`},
		{`C:\certs`, `P"C:\\certs"`},
		{"a\tb\nc", `P"a\tb\nc"`},
		{"bell\x07", `P"bell\x07"`},
	}
	for _, tt := range tests {
		got := quote(tt.in)
		assert.Equal(t, tt.want, got, "%q", tt.in)

		// The P"..." escapes are a subset of Go's, so the parser's result can be checked with strconv.
		if strings.HasPrefix(got, "P") {
			back, err := strconv.Unquote(got[1:])
			require.NoError(t, err)
			assert.Equal(t, tt.in, back)
		} else {
			assert.Equal(t, `"`+tt.in+`"`, got, "plain values are copied verbatim")
		}
	}
}
