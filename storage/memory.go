package storage

import (
	"bytes"
	"sync"

	"github.com/pkg/errors"

	"xdao.co/tanglemsg/msg"
)

// Memory is an in-process Store. It keeps the wire encoding of each message so
// that callers never share mutable message values.
type Memory struct {
	mu   sync.RWMutex
	msgs map[msg.MsgID][]byte
}

func NewMemory() *Memory {
	return &Memory{msgs: make(map[msg.MsgID][]byte)}
}

func (s *Memory) Put(m *msg.Msg) (msg.MsgID, error) {
	id, err := m.ID()
	if err != nil {
		return msg.MsgID{}, errors.Wrap(err, "memory store: compute id")
	}
	wire, err := m.Encode()
	if err != nil {
		return msg.MsgID{}, errors.Wrap(err, "memory store: encode")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.msgs[id]; ok {
		if !bytes.Equal(existing, wire) {
			return msg.MsgID{}, ErrImmutable
		}
		return id, nil
	}
	s.msgs[id] = wire
	return id, nil
}

func (s *Memory) Get(id msg.MsgID) (*msg.Msg, error) {
	s.mu.RLock()
	wire, ok := s.msgs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return msg.DecodeBytes(wire)
}

func (s *Memory) Has(id msg.MsgID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.msgs[id]
	return ok
}

// Len returns the number of stored messages.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.msgs)
}
