package store

import (
	"context"
	"errors"
)

var ErrNoSavedState = errors.New("no saved state")

// Store persists one versioned state blob under a single key. Every backend is
// optional: the selection engine runs purely in memory when none is wired.
type Store interface {
	Get(ctx context.Context) ([]byte, error)
	Set(ctx context.Context, blob []byte) error
}
