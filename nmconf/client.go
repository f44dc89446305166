// Package nmconf writes 802.1X wireless profiles into NetworkManager.
//
// Profiles are never updated in place: every target SSID has its existing
// profiles deleted and exactly one new profile created.
package nmconf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/kardianos/catinstall/cdef"
)

// ServiceError is a failed call to the settings service.
type ServiceError struct {
	Op  string
	Err error
}

func (e ServiceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", cdef.ErrServiceProtocol, e.Op, e.Err)
}

func (e ServiceError) Unwrap() []error {
	return []error{cdef.ErrServiceProtocol, e.Err}
}

// Options configure Connect.
type Options struct {
	// API replaces the system bus connection.
	API API
	Log *slog.Logger
}

// Client reconciles profiles for one detected schema version.
type Client struct {
	api     API
	version SchemaVersion
	log     *slog.Logger
}

// Connect reaches the settings service and detects its schema version.
func Connect(ctx context.Context, opts Options) (*Client, error) {
	api := opts.API
	if api == nil {
		bus, err := dialSystemBus()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", cdef.ErrServiceUnreachable, err)
		}
		api = bus
	}
	c := New(api, opts.Log)
	if _, err := c.DetectVersion(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// New returns a client using the V1 schema until DetectVersion is called.
func New(api API, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{api: api, version: V1, log: log}
}

// Close releases the bus connection, if the API holds one.
func (c *Client) Close() error {
	if cl, ok := c.api.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

// Version is the detected schema version.
func (c *Client) Version() SchemaVersion {
	return c.version
}

// DetectVersion reads the NetworkManager version. A failed read means the
// legacy service, which does not publish the property.
func (c *Client) DetectVersion(ctx context.Context) (SchemaVersion, error) {
	raw, err := c.api.Version(ctx)
	if err != nil {
		c.log.Debug("version property unavailable, assuming legacy schema", "error", err)
		c.version = Legacy
		return Legacy, nil
	}
	v, err := ParseVersion(raw)
	if err != nil {
		return 0, err
	}
	c.log.Debug("NetworkManager version", "version", raw, "schema", v)
	c.version = v
	return v, nil
}

// ListProfiles returns every stored connection. Connections that vanish
// while listing are skipped.
func (c *Client) ListProfiles(ctx context.Context) ([]Profile, error) {
	paths, err := c.api.ListConnections(ctx, c.version)
	if err != nil {
		return nil, ServiceError{Op: "list connections", Err: err}
	}
	profiles := make([]Profile, 0, len(paths))
	for _, path := range paths {
		s, err := c.api.GetSettings(ctx, c.version, path)
		if err != nil {
			if errors.Is(err, ErrProfileNotFound) {
				continue
			}
			return nil, ServiceError{Op: "get settings " + string(path), Err: err}
		}
		profiles = append(profiles, profileFromSettings(path, s))
	}
	return profiles, nil
}

// DeleteMatching deletes every wireless profile for ssid and returns how many were removed.
func (c *Client) DeleteMatching(ctx context.Context, ssid string) (int, error) {
	profiles, err := c.ListProfiles(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range profiles {
		if p.Type != wirelessType || p.SSID != ssid {
			continue
		}
		c.log.Debug("deleting connection", "ssid", ssid, "path", p.Path)
		err := c.api.Delete(ctx, c.version, p.Path)
		switch {
		case err == nil:
			n++
		case errors.Is(err, ErrProfileNotFound):
		default:
			return n, ServiceError{Op: "delete " + string(p.Path), Err: err}
		}
	}
	return n, nil
}

// CreateProfile adds one profile for ssid.
func (c *Client) CreateProfile(ctx context.Context, ssid string, p ProfileParams) (dbus.ObjectPath, error) {
	c.log.Debug("adding connection", "ssid", ssid)
	path, err := c.api.AddConnection(ctx, c.version, BuildSettings(c.version, ssid, p))
	if err != nil {
		return "", ServiceError{Op: "add connection " + ssid, Err: err}
	}
	return path, nil
}

// ReconcileResult counts the changes made by Reconcile.
type ReconcileResult struct {
	Deleted int
	Created []dbus.ObjectPath
}

// Reconcile replaces the profile of every target SSID and deletes the profiles
// of every removal SSID. It stops at the first failure.
func (c *Client) Reconcile(ctx context.Context, p ProfileParams) (ReconcileResult, error) {
	var res ReconcileResult
	for _, ssid := range p.SSIDs {
		n, err := c.DeleteMatching(ctx, ssid)
		res.Deleted += n
		if err != nil {
			return res, err
		}
		path, err := c.CreateProfile(ctx, ssid, p)
		if err != nil {
			return res, err
		}
		res.Created = append(res.Created, path)
	}
	for _, ssid := range p.DeleteSSIDs {
		n, err := c.DeleteMatching(ctx, ssid)
		res.Deleted += n
		if err != nil {
			return res, err
		}
	}
	return res, nil
}
