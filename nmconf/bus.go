package nmconf

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	busName = "org.freedesktop.NetworkManager"
	nmPath  = dbus.ObjectPath("/org/freedesktop/NetworkManager")
)

// ErrProfileNotFound is returned by an API when the connection object no longer exists.
var ErrProfileNotFound = errors.New("nmconf: connection not found")

// API is the settings service as seen by the client.
type API interface {
	Version(ctx context.Context) (string, error)
	ListConnections(ctx context.Context, v SchemaVersion) ([]dbus.ObjectPath, error)
	GetSettings(ctx context.Context, v SchemaVersion, path dbus.ObjectPath) (Settings, error)
	Delete(ctx context.Context, v SchemaVersion, path dbus.ObjectPath) error
	AddConnection(ctx context.Context, v SchemaVersion, s Settings) (dbus.ObjectPath, error)
}

// busAPI calls NetworkManager on the system bus.
type busAPI struct {
	conn *dbus.Conn
}

var _ API = (*busAPI)(nil)

func dialSystemBus() (*busAPI, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, err
	}
	return &busAPI{conn: conn}, nil
}

func (b *busAPI) Close() error {
	return b.conn.Close()
}

func (b *busAPI) Version(ctx context.Context) (string, error) {
	var v dbus.Variant
	err := b.conn.Object(busName, nmPath).
		CallWithContext(ctx, "org.freedesktop.DBus.Properties.Get", 0, busName, "Version").
		Store(&v)
	if err != nil {
		return "", err
	}
	s, ok := v.Value().(string)
	if !ok {
		return "", fmt.Errorf("version property has type %s", v.Signature())
	}
	return s, nil
}

func (b *busAPI) ListConnections(ctx context.Context, v SchemaVersion) ([]dbus.ObjectPath, error) {
	sch := v.schema()
	var paths []dbus.ObjectPath
	err := b.conn.Object(busName, sch.SettingsPath).
		CallWithContext(ctx, sch.SettingsIface+".ListConnections", 0).
		Store(&paths)
	return paths, err
}

func (b *busAPI) GetSettings(ctx context.Context, v SchemaVersion, path dbus.ObjectPath) (Settings, error) {
	var s map[string]map[string]dbus.Variant
	err := b.conn.Object(busName, path).
		CallWithContext(ctx, v.schema().ConnectionIface+".GetSettings", 0).
		Store(&s)
	if err != nil {
		return nil, busError(err)
	}
	return Settings(s), nil
}

func (b *busAPI) Delete(ctx context.Context, v SchemaVersion, path dbus.ObjectPath) error {
	err := b.conn.Object(busName, path).
		CallWithContext(ctx, v.schema().ConnectionIface+".Delete", 0).
		Err
	return busError(err)
}

func (b *busAPI) AddConnection(ctx context.Context, v SchemaVersion, s Settings) (dbus.ObjectPath, error) {
	sch := v.schema()
	var path dbus.ObjectPath
	err := b.conn.Object(busName, sch.SettingsPath).
		CallWithContext(ctx, sch.SettingsIface+".AddConnection", 0, map[string]map[string]dbus.Variant(s)).
		Store(&path)
	return path, err
}

// busError maps replies for a vanished connection object to ErrProfileNotFound.
func busError(err error) error {
	if err == nil {
		return nil
	}
	var name string
	var de dbus.Error
	var dep *dbus.Error
	switch {
	case errors.As(err, &de):
		name = de.Name
	case errors.As(err, &dep):
		name = dep.Name
	default:
		return err
	}
	if name == "org.freedesktop.DBus.Error.UnknownObject" || strings.HasSuffix(name, ".NotFound") {
		return fmt.Errorf("%w: %v", ErrProfileNotFound, err)
	}
	return err
}
