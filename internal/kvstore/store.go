// Package kvstore holds the key/value persistence used for per device session
// state: the cart snapshot, the selected delivery location and the saved
// customer profile.
package kvstore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

type Store interface {
	// Get returns ErrNotFound when the key is absent.
	Get(c context.Context, key string) (string, error)
	Set(c context.Context, key string, value string) error
	// Remove is a no-op for absent keys.
	Remove(c context.Context, key string) error
}
