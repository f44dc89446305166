// Package wpaconf renders the wpa_supplicant fallback configuration.
package wpaconf

import (
	"fmt"
	"io"
	"strings"

	"github.com/kardianos/catinstall/cdef"
)

// Params are the values of every network block.
type Params struct {
	SSIDs             []string
	Method            cdef.EAPMethod
	Inner             string
	Identity          string
	Password          string // Inner password, or the bundle passphrase for TLS.
	AnonymousIdentity string
	CAPath            string
	BundlePath        string
	Servers           []string
}

// quote returns a wpa_supplicant string value. A plain "..." value is copied
// verbatim by the parser, so values holding a quote, a backslash or a control
// byte use the P"..." form, which the parser printf-decodes.
func quote(s string) string {
	if !strings.ContainsFunc(s, needsEscape) {
		return `"` + s + `"`
	}
	var b strings.Builder
	b.WriteString(`P"`)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '"':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, c)
				continue
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func needsEscape(r rune) bool {
	return r == '"' || r == '\\' || r < 0x20 || r == 0x7f
}

// Render writes one network block per SSID.
func Render(w io.Writer, p Params) error {
	var b strings.Builder
	for _, ssid := range p.SSIDs {
		b.WriteString("network={\n")
		fmt.Fprintf(&b, "    ssid=%s\n", quote(ssid))
		b.WriteString("    key_mgmt=WPA-EAP\n")
		b.WriteString("    pairwise=CCMP\n")
		b.WriteString("    group=CCMP TKIP\n")
		fmt.Fprintf(&b, "    eap=%s\n", p.Method)
		fmt.Fprintf(&b, "    ca_cert=%s\n", quote(p.CAPath))
		fmt.Fprintf(&b, "    identity=%s\n", quote(p.Identity))
		if len(p.Servers) > 0 {
			fmt.Fprintf(&b, "    altsubject_match=%s\n", quote(strings.Join(p.Servers, ";")))
		}
		switch {
		case p.Method.UsesPassword():
			fmt.Fprintf(&b, "    phase2=%s\n", quote("auth="+p.Inner))
			fmt.Fprintf(&b, "    password=%s\n", quote(p.Password))
		case p.Method.UsesCertificate():
			fmt.Fprintf(&b, "    client_cert=%s\n", quote(p.BundlePath))
			fmt.Fprintf(&b, "    private_key=%s\n", quote(p.BundlePath))
			fmt.Fprintf(&b, "    private_key_passwd=%s\n", quote(p.Password))
		}
		if p.AnonymousIdentity != "" {
			fmt.Fprintf(&b, "    anonymous_identity=%s\n", quote(p.AnonymousIdentity))
		}
		b.WriteString("}\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Saver stores the rendered file.
type Saver interface {
	SaveSupplicant(content []byte) error
	SupplicantPath() string
}

// Write renders p into the supplicant file of s and returns its path.
func Write(s Saver, p Params) (string, error) {
	var b strings.Builder
	if err := Render(&b, p); err != nil {
		return "", fmt.Errorf("render supplicant config: %w", err)
	}
	if err := s.SaveSupplicant([]byte(b.String())); err != nil {
		return "", err
	}
	return s.SupplicantPath(), nil
}
