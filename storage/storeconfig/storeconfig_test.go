package storeconfig

import (
	"os"
	"path/filepath"
	"testing"

	"xdao.co/tanglemsg/storage"
	"xdao.co/tanglemsg/storage/localfs"
)

func TestLoadFileAndOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	body := `{"write_policy":"all","backends":[{"name":"localfs","config":{"dir":"` + filepath.ToSlash(filepath.Join(dir, "msgs")) + `"}},{"name":"memory","id":"cache"}]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	s, err := cfg.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	r, ok := s.(storage.ReplicatingStore)
	if !ok || len(r.Backends) != 2 || r.Backends[1].Name != "cache" {
		t.Fatalf("Open = %#v", s)
	}
	if _, ok := r.Backends[0].Store.(*localfs.Store); !ok {
		t.Fatalf("first backend is %T", r.Backends[0].Store)
	}
}

func TestOpenSingleBackendUnwrapped(t *testing.T) {
	s, err := Config{Backends: []BackendConfig{{Name: "memory"}}}.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := s.(*storage.Memory); !ok {
		t.Fatalf("Open = %T", s)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]Config{
		"empty":        {},
		"unknown":      {Backends: []BackendConfig{{Name: "ipfs"}}},
		"duplicate":    {Backends: []BackendConfig{{Name: "memory"}, {Name: "memory"}}},
		"bad policy":   {WritePolicy: "some", Backends: []BackendConfig{{Name: "memory"}}},
		"missing name": {Backends: []BackendConfig{{}}},
	}
	for name, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := (Config{Backends: []BackendConfig{{Name: "localfs"}}}).Open(); err == nil {
		t.Fatalf("expected error for localfs without dir")
	}
}
