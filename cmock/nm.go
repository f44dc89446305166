package cmock

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/kardianos/catinstall/nmconf"
)

// NetworkManager is an in-memory settings service.
type NetworkManager struct {
	mu      sync.Mutex
	version string
	conns   map[dbus.ObjectPath]nmconf.Settings
	next    int

	// Schemas records the schema version passed to each call.
	Schemas []nmconf.SchemaVersion

	// Failure injection. GetErr and DeleteErr are keyed by object path.
	VersionErr error
	ListErr    error
	AddErr     error
	GetErr     map[dbus.ObjectPath]error
	DeleteErr  map[dbus.ObjectPath]error
}

var _ nmconf.API = (*NetworkManager)(nil)

func NewNetworkManager(version string) *NetworkManager {
	return &NetworkManager{
		version:   version,
		conns:     make(map[dbus.ObjectPath]nmconf.Settings),
		GetErr:    make(map[dbus.ObjectPath]error),
		DeleteErr: make(map[dbus.ObjectPath]error),
	}
}

// AddWireless stores a minimal wireless profile and returns its path.
func (nm *NetworkManager) AddWireless(id, ssid string) dbus.ObjectPath {
	return nm.store(nmconf.Settings{
		"connection": {
			"id":   dbus.MakeVariant(id),
			"type": dbus.MakeVariant("802-11-wireless"),
		},
		"802-11-wireless": {"ssid": dbus.MakeVariant([]byte(ssid))},
	})
}

// AddWired stores a wired profile with the given id.
func (nm *NetworkManager) AddWired(id string) dbus.ObjectPath {
	return nm.store(nmconf.Settings{
		"connection": {
			"id":   dbus.MakeVariant(id),
			"type": dbus.MakeVariant("802-3-ethernet"),
		},
	})
}

func (nm *NetworkManager) store(s nmconf.Settings) dbus.ObjectPath {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.next++
	path := dbus.ObjectPath(fmt.Sprintf("/org/freedesktop/NetworkManager/Settings/%d", nm.next))
	nm.conns[path] = s
	return path
}

// Connections returns a copy of the stored settings keyed by path.
func (nm *NetworkManager) Connections() map[dbus.ObjectPath]nmconf.Settings {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	return maps.Clone(nm.conns)
}

// Remove drops a connection without going through Delete.
func (nm *NetworkManager) Remove(path dbus.ObjectPath) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	delete(nm.conns, path)
}

func (nm *NetworkManager) record(v nmconf.SchemaVersion) {
	nm.Schemas = append(nm.Schemas, v)
}

func (nm *NetworkManager) Version(ctx context.Context) (string, error) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	if nm.VersionErr != nil {
		return "", nm.VersionErr
	}
	return nm.version, nil
}

func (nm *NetworkManager) ListConnections(ctx context.Context, v nmconf.SchemaVersion) ([]dbus.ObjectPath, error) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.record(v)
	if nm.ListErr != nil {
		return nil, nm.ListErr
	}
	paths := slices.Collect(maps.Keys(nm.conns))
	slices.Sort(paths)
	for p := range nm.GetErr {
		if _, ok := nm.conns[p]; !ok {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

func (nm *NetworkManager) GetSettings(ctx context.Context, v nmconf.SchemaVersion, path dbus.ObjectPath) (nmconf.Settings, error) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.record(v)
	if err := nm.GetErr[path]; err != nil {
		return nil, err
	}
	s, ok := nm.conns[path]
	if !ok {
		return nil, nmconf.ErrProfileNotFound
	}
	return s, nil
}

func (nm *NetworkManager) Delete(ctx context.Context, v nmconf.SchemaVersion, path dbus.ObjectPath) error {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.record(v)
	if err := nm.DeleteErr[path]; err != nil {
		return err
	}
	if _, ok := nm.conns[path]; !ok {
		return nmconf.ErrProfileNotFound
	}
	delete(nm.conns, path)
	return nil
}

func (nm *NetworkManager) AddConnection(ctx context.Context, v nmconf.SchemaVersion, s nmconf.Settings) (dbus.ObjectPath, error) {
	nm.mu.Lock()
	nm.record(v)
	err := nm.AddErr
	nm.mu.Unlock()
	if err != nil {
		return "", err
	}
	return nm.store(s), nil
}
