// Package metadata is the CLI's local key/value store. authctl keeps the
// last issued token pair and user id there between invocations.
package metadata

import (
	"context"
)

// Repository persists the cached session as opaque values under fixed keys.
// Get returns a nil value and no error when the key was never set.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set overwrites any previous value.
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Clear drops the whole session, used on logout and rejected refresh.
	Clear(ctx context.Context) error
}
