// Package storeconfig opens message stores from a JSON configuration file.
package storeconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/pkg/errors"

	"xdao.co/tanglemsg/storage"
	"xdao.co/tanglemsg/storage/localfs"
)

// Config describes how to open one or more stores.
//
// WritePolicy values:
// - "first" (default): write only to the first backend; reads fall back in order
// - "all": write to all backends and require id equality (see storage.ReplicatingStore)
//
// Example:
//
//	{
//	  "write_policy": "all",
//	  "backends": [
//	    {"name":"localfs", "config":{"dir":"/var/lib/tanglemsg"}},
//	    {"name":"memory", "id":"cache"}
//	  ]
//	}
type Config struct {
	WritePolicy string          `json:"write_policy,omitempty"`
	Backends    []BackendConfig `json:"backends"`
}

type BackendConfig struct {
	// Name selects the backend kind: "localfs" or "memory".
	Name string `json:"name"`
	// ID is an optional stable alias. If empty, Name is used.
	ID     string            `json:"id,omitempty"`
	Config map[string]string `json:"config,omitempty"`
}

// Opener builds a store from backend-specific settings.
type Opener func(cfg map[string]string) (storage.Store, error)

var openers = map[string]Opener{
	"memory": func(map[string]string) (storage.Store, error) {
		return storage.NewMemory(), nil
	},
	"localfs": func(cfg map[string]string) (storage.Store, error) {
		dir := cfg["dir"]
		if dir == "" {
			return nil, errors.New("storeconfig: localfs requires config.dir")
		}
		return localfs.New(dir)
	},
}

// Backends lists the known backend names.
func Backends() []string {
	out := make([]string, 0, len(openers))
	for name := range openers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func LoadFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, errors.New("storeconfig: empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "storeconfig: read")
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.Wrap(err, "storeconfig: parse")
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("storeconfig: at least one backend is required")
	}
	seen := make(map[string]struct{}, len(c.Backends))
	for _, b := range c.Backends {
		if b.Name == "" {
			return errors.New("storeconfig: backend name is required")
		}
		if _, ok := openers[b.Name]; !ok {
			return fmt.Errorf("storeconfig: unknown backend %q", b.Name)
		}
		id := b.key()
		if _, ok := seen[id]; ok {
			return fmt.Errorf("storeconfig: duplicate backend id %q", id)
		}
		seen[id] = struct{}{}
	}
	switch c.WritePolicy {
	case "", "first", "all":
		return nil
	default:
		return fmt.Errorf("storeconfig: invalid write_policy %q", c.WritePolicy)
	}
}

func (b BackendConfig) key() string {
	if b.ID != "" {
		return b.ID
	}
	return b.Name
}

// Open opens the configured stores in order.
func (c Config) Open() (storage.Store, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	named := make([]storage.NamedStore, 0, len(c.Backends))
	for _, b := range c.Backends {
		s, err := openers[b.Name](b.Config)
		if err != nil {
			return nil, errors.Wrapf(err, "storeconfig: open %s", b.key())
		}
		named = append(named, storage.NamedStore{Name: b.key(), Store: s})
	}
	if len(named) == 1 {
		return named[0].Store, nil
	}
	if c.WritePolicy == "all" {
		return storage.ReplicatingStore{Backends: named}, nil
	}
	stores := make([]storage.Store, 0, len(named))
	for _, n := range named {
		stores = append(stores, n.Store)
	}
	return storage.MultiStore{Stores: stores}, nil
}
