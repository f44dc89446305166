package cdef

import (
	"slices"
	"strings"

	"github.com/kardianos/catinstall/realm"
)

// Institution is the fixed per-institution configuration.
// It is built once at startup and must not be modified afterwards.
type Institution struct {
	Name    string
	Profile string
	URL     string
	Email   string
	Title   string

	SSIDs       []string
	DeleteSSIDs []string

	EAPOuter EAPMethod
	EAPInner string

	// CA is the PEM encoded trust anchor of the authentication server.
	CA string

	Realm     string
	RealmMode realm.Mode

	AnonymousIdentity string

	// Servers are the alternative subject names pinned on the server certificate,
	// for example "DNS:radius.example.net".
	Servers []string

	// ServerMatch is the subject substring used by services that only support a single match string.
	ServerMatch string

	// UseOtherTLSID means the authentication identity is not taken from the certificate subject.
	UseOtherTLSID bool

	InitInfo         string
	InitConfirmation string
	TermsOfUse       string

	// SilverBullet is the client bundle embedded in the installer for managed certificates.
	SilverBullet []byte

	Messages Messages
}

// Policy returns the username realm policy.
func (in *Institution) Policy() realm.Policy {
	return realm.Policy{Realm: in.Realm, Mode: in.RealmMode}
}

// EmbeddedBundle reports whether the client bundle ships with the installer.
func (in *Institution) EmbeddedBundle() bool {
	return in.EAPOuter.UsesCertificate() && strings.EqualFold(in.EAPInner, InnerSilverBullet)
}

// Clone returns a deep copy.
func (in *Institution) Clone() *Institution {
	c := *in
	c.SSIDs = slices.Clone(in.SSIDs)
	c.DeleteSSIDs = slices.Clone(in.DeleteSSIDs)
	c.Servers = slices.Clone(in.Servers)
	c.SilverBullet = slices.Clone(in.SilverBullet)
	return &c
}

// Expand replaces the {name}, {profile}, {email} and {url} placeholders of
// the introduction and confirmation texts.
func (in *Institution) Expand(text string) string {
	return strings.NewReplacer(
		"{name}", in.Name,
		"{profile}", in.Profile,
		"{email}", in.Email,
		"{url}", in.URL,
	).Replace(text)
}
