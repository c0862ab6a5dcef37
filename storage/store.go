// Package storage persists validated messages keyed by their MsgID.
//
// It is a thin adapter for the replication layer, not a storage engine.
package storage

import "xdao.co/tanglemsg/msg"

// Store is a minimal message store.
//
// Contract:
// - Put MUST be idempotent and MUST return the id computed from the message.
// - Stored messages MUST be immutable.
// - Get MUST return ErrNotFound when the id is absent.
// - Get MUST NOT return a message whose id differs from the one requested.
type Store interface {
	Put(m *msg.Msg) (msg.MsgID, error)
	Get(id msg.MsgID) (*msg.Msg, error)
	Has(id msg.MsgID) bool
}
