package storage

import "xdao.co/tanglemsg/msg"

// MultiStore provides deterministic, ordered fallback across multiple stores.
//
// Read order is the slice order in Stores; callers MUST supply a fixed order.
//
// Put is defined to write only to the first store.
type MultiStore struct {
	Stores []Store
}

var _ Store = MultiStore{}

func (m MultiStore) Put(mm *msg.Msg) (msg.MsgID, error) {
	if len(m.Stores) == 0 {
		return msg.MsgID{}, ErrNoBackends
	}
	return m.Stores[0].Put(mm)
}

func (m MultiStore) Get(id msg.MsgID) (*msg.Msg, error) {
	for _, s := range m.Stores {
		out, err := s.Get(id)
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

func (m MultiStore) Has(id msg.MsgID) bool {
	for _, s := range m.Stores {
		if s.Has(id) {
			return true
		}
	}
	return false
}
