package nmconf

import (
	"slices"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"

	"github.com/kardianos/catinstall/cdef"
)

// Settings is a connection settings dictionary as exchanged with NetworkManager.
type Settings map[string]map[string]dbus.Variant

const wirelessType = "802-11-wireless"

// Profile is a stored connection as read from the settings service.
type Profile struct {
	Path dbus.ObjectPath
	ID   string
	UUID string
	Type string
	SSID string
}

// ProfileParams are the values written into every created profile.
type ProfileParams struct {
	Method            cdef.EAPMethod
	Inner             string
	Identity          string
	Password          string // Inner password, or the bundle passphrase for TLS.
	AnonymousIdentity string
	CAPath            string
	BundlePath        string
	Servers           []string
	ServerMatch       string

	// User restricts the profile to one local user. Empty leaves it system wide.
	User string

	SSIDs       []string
	DeleteSSIDs []string
}

// fileRef is the NUL terminated file:// reference NetworkManager expects for certificate blobs.
func fileRef(path string) []byte {
	return []byte("file://" + path + "\x00")
}

// BuildSettings returns the settings for one SSID. Each call assigns a new connection uuid.
func BuildSettings(v SchemaVersion, ssid string, p ProfileParams) Settings {
	sch := v.schema()

	conn := map[string]dbus.Variant{
		"type": dbus.MakeVariant(wirelessType),
		"uuid": dbus.MakeVariant(uuid.NewString()),
		"id":   dbus.MakeVariant(ssid),
	}
	if p.User != "" {
		conn["permissions"] = dbus.MakeVariant([]string{"user:" + p.User})
	}

	dot1x := map[string]dbus.Variant{
		"eap":      dbus.MakeVariant([]string{strings.ToLower(p.Method.String())}),
		"identity": dbus.MakeVariant(p.Identity),
		"ca-cert":  dbus.MakeVariant(fileRef(p.CAPath)),
	}
	if sch.MatchList {
		dot1x[sch.MatchKey] = dbus.MakeVariant(slices.Clone(nonNil(p.Servers)))
	} else {
		dot1x[sch.MatchKey] = dbus.MakeVariant(p.ServerMatch)
	}
	switch {
	case p.Method.UsesPassword():
		dot1x["password"] = dbus.MakeVariant(p.Password)
		dot1x["phase2-auth"] = dbus.MakeVariant(strings.ToLower(p.Inner))
		if p.AnonymousIdentity != "" {
			dot1x["anonymous-identity"] = dbus.MakeVariant(p.AnonymousIdentity)
		}
		dot1x["password-flags"] = dbus.MakeVariant(uint32(0))
	case p.Method.UsesCertificate():
		dot1x["client-cert"] = dbus.MakeVariant(fileRef(p.BundlePath))
		dot1x["private-key"] = dbus.MakeVariant(fileRef(p.BundlePath))
		dot1x["private-key-password"] = dbus.MakeVariant(p.Password)
		dot1x["private-key-password-flags"] = dbus.MakeVariant(uint32(0))
	}

	return Settings{
		"connection": conn,
		wirelessType: {
			"ssid":     dbus.MakeVariant([]byte(ssid)),
			"security": dbus.MakeVariant("802-11-wireless-security"),
		},
		"802-11-wireless-security": {
			"key-mgmt": dbus.MakeVariant("wpa-eap"),
			"proto":    dbus.MakeVariant([]string{"rsn"}),
			"pairwise": dbus.MakeVariant([]string{"ccmp"}),
			"group":    dbus.MakeVariant([]string{"ccmp", "tkip"}),
		},
		"802-1x": dot1x,
		"ipv4":   {"method": dbus.MakeVariant("auto")},
		"ipv6":   {"method": dbus.MakeVariant("auto")},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// profileFromSettings reads the fields the reconciler matches on.
func profileFromSettings(path dbus.ObjectPath, s Settings) Profile {
	p := Profile{Path: path}
	conn := s["connection"]
	p.ID, _ = conn["id"].Value().(string)
	p.UUID, _ = conn["uuid"].Value().(string)
	p.Type, _ = conn["type"].Value().(string)
	if p.Type == wirelessType {
		p.SSID = ssidString(s[wirelessType]["ssid"].Value())
	}
	return p
}

func ssidString(v any) string {
	switch v := v.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	}
	return ""
}
