// Package localfs stores messages as files named by the CID of their id.
package localfs

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"xdao.co/tanglemsg/cidutil"
	"xdao.co/tanglemsg/msg"
	"xdao.co/tanglemsg/storage"
)

// Store is a local filesystem-backed message store.
//
// Messages are stored immutably, one JSON file per message. It never uses the
// network and never depends on wall-clock time.
type Store struct {
	root string
}

var _ storage.Store = (*Store)(nil)

// New constructs a filesystem store rooted at root. The directory will be
// created if needed.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "localfs: create root")
	}
	return &Store{root: root}, nil
}

func (s *Store) Put(m *msg.Msg) (msg.MsgID, error) {
	id, err := m.ID()
	if err != nil {
		return msg.MsgID{}, err
	}
	wire, err := m.Encode()
	if err != nil {
		return msg.MsgID{}, err
	}

	path, err := s.pathFor(id)
	if err != nil {
		return msg.MsgID{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return msg.MsgID{}, errors.Wrap(err, "localfs: create shard")
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if os.IsExist(err) {
			existing, rerr := os.ReadFile(path)
			if rerr != nil || !bytes.Equal(existing, wire) {
				return msg.MsgID{}, storage.ErrImmutable
			}
			return id, nil
		}
		return msg.MsgID{}, errors.Wrap(err, "localfs: create")
	}
	defer f.Close()

	if _, err := f.Write(wire); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return msg.MsgID{}, errors.Wrap(err, "localfs: write")
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return msg.MsgID{}, errors.Wrap(err, "localfs: sync")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return msg.MsgID{}, errors.Wrap(err, "localfs: close")
	}
	return id, nil
}

func (s *Store) Get(id msg.MsgID) (*msg.Msg, error) {
	path, err := s.pathFor(id)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "localfs: read")
	}
	m, err := msg.DecodeBytes(b)
	if err != nil {
		return nil, storage.ErrIDMismatch
	}
	got, err := m.ID()
	if err != nil || got != id {
		return nil, storage.ErrIDMismatch
	}
	return m, nil
}

func (s *Store) Has(id msg.MsgID) bool {
	path, err := s.pathFor(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

func (s *Store) pathFor(id msg.MsgID) (string, error) {
	c, err := cidutil.FromMsgID(id)
	if err != nil {
		return "", errors.Wrap(err, "localfs: cid")
	}
	name := c.String()
	return filepath.Join(s.root, name[len(name)-2:], name+".json"), nil
}
