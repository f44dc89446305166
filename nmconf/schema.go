package nmconf

import (
	"fmt"
	"regexp"

	"github.com/godbus/dbus/v5"

	"github.com/kardianos/catinstall/cdef"
)

// SchemaVersion selects the settings object layout of the running NetworkManager.
type SchemaVersion int

const (
	Legacy SchemaVersion = iota // 0.8
	V09
	V1
)

func (v SchemaVersion) String() string {
	switch v {
	case Legacy:
		return "0.8"
	case V09:
		return "0.9"
	case V1:
		return "1.0"
	default:
		return fmt.Sprintf("SchemaVersion(%d)", int(v))
	}
}

// schema is the per-version layout of the settings service.
type schema struct {
	SettingsPath    dbus.ObjectPath
	SettingsIface   string
	ConnectionIface string

	// MatchKey is the 802-1x attribute pinning the server certificate.
	// MatchList means it takes the alternative subject list rather than a single subject string.
	MatchKey  string
	MatchList bool
}

var schemas = map[SchemaVersion]schema{
	Legacy: {
		SettingsPath:    "/org/freedesktop/NetworkManagerSettings",
		SettingsIface:   "org.freedesktop.NetworkManagerSettings",
		ConnectionIface: "org.freedesktop.NetworkManagerSettings.Connection",
		MatchKey:        "subject-match",
	},
	V09: {
		SettingsPath:    "/org/freedesktop/NetworkManager/Settings",
		SettingsIface:   "org.freedesktop.NetworkManager.Settings",
		ConnectionIface: "org.freedesktop.NetworkManager.Settings.Connection",
		MatchKey:        "altsubject-matches",
		MatchList:       true,
	},
	V1: {
		SettingsPath:    "/org/freedesktop/NetworkManager/Settings",
		SettingsIface:   "org.freedesktop.NetworkManager.Settings",
		ConnectionIface: "org.freedesktop.NetworkManager.Settings.Connection",
		MatchKey:        "altsubject-matches",
		MatchList:       true,
	},
}

func (v SchemaVersion) schema() schema {
	s, ok := schemas[v]
	if !ok {
		return schemas[V1]
	}
	return s
}

// UnknownVersionError is returned for a NetworkManager version without a schema.
type UnknownVersionError struct {
	Version string
}

func (e UnknownVersionError) Error() string {
	return fmt.Sprintf("%s: unsupported NetworkManager version %q", cdef.ErrServiceProtocol, e.Version)
}

func (e UnknownVersionError) Unwrap() error {
	return cdef.ErrServiceProtocol
}

var versionPrefixes = []struct {
	re *regexp.Regexp
	v  SchemaVersion
}{
	{regexp.MustCompile(`^1\.`), V1},
	{regexp.MustCompile(`^0\.9`), V09},
	{regexp.MustCompile(`^0\.8`), Legacy},
}

// ParseVersion maps the Version property of NetworkManager to a schema.
func ParseVersion(version string) (SchemaVersion, error) {
	for _, p := range versionPrefixes {
		if p.re.MatchString(version) {
			return p.v, nil
		}
	}
	return 0, UnknownVersionError{Version: version}
}
