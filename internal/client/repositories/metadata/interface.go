package metadata

import (
	"context"
)

// Repository is a string key/value store.
//
// Get reports ok=false (and a nil error) when the key is absent.
type Repository interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
