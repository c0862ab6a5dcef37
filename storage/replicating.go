package storage

import (
	"fmt"

	"xdao.co/tanglemsg/msg"
)

// NamedStore associates a Store with a stable backend name.
type NamedStore struct {
	Name  string
	Store Store
}

// ReplicatingStore writes to all configured backends.
//
// Reads fall back in order. Writes go to all backends and require every
// returned id to match the message's own id (otherwise ErrIDMismatch).
type ReplicatingStore struct {
	Backends []NamedStore
}

var _ Store = ReplicatingStore{}

// PutAll writes m to all backends and returns the per-backend ids.
func (r ReplicatingStore) PutAll(m *msg.Msg) (msg.MsgID, map[string]msg.MsgID, error) {
	want, err := m.ID()
	if err != nil {
		return msg.MsgID{}, nil, err
	}
	if len(r.Backends) == 0 {
		return msg.MsgID{}, nil, ErrNoBackends
	}

	out := make(map[string]msg.MsgID, len(r.Backends))
	for _, b := range r.Backends {
		if b.Store == nil {
			return msg.MsgID{}, nil, fmt.Errorf("storage: nil store for backend %q", b.Name)
		}
		got, err := b.Store.Put(m)
		if err != nil {
			return msg.MsgID{}, out, err
		}
		out[b.Name] = got
		if got != want {
			return msg.MsgID{}, out, ErrIDMismatch
		}
	}
	return want, out, nil
}

func (r ReplicatingStore) Put(m *msg.Msg) (msg.MsgID, error) {
	id, _, err := r.PutAll(m)
	return id, err
}

func (r ReplicatingStore) Get(id msg.MsgID) (*msg.Msg, error) {
	for _, b := range r.Backends {
		if b.Store == nil {
			continue
		}
		out, err := b.Store.Get(id)
		if err == nil {
			return out, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (r ReplicatingStore) Has(id msg.MsgID) bool {
	for _, b := range r.Backends {
		if b.Store != nil && b.Store.Has(id) {
			return true
		}
	}
	return false
}
