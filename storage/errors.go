package storage

import "errors"

var (
	ErrNotFound   = errors.New("storage: not found")
	ErrIDMismatch = errors.New("storage: message id mismatch")
	ErrImmutable  = errors.New("storage: immutable object mismatch")
	ErrNoBackends = errors.New("storage: no backends")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
