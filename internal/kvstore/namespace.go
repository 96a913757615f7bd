package kvstore

import (
	"context"
	"fmt"
)

type namespaced struct {
	store  Store
	prefix string
}

// Namespace prefixes every key with prefix and ":".
func Namespace(store Store, prefix string) Store {
	return namespaced{store: store, prefix: prefix}
}

// ForDevice scopes store to a single device session.
func ForDevice(store Store, deviceID string) Store {
	return Namespace(store, "device:"+deviceID)
}

func (n namespaced) key(key string) string {
	return fmt.Sprintf("%s:%s", n.prefix, key)
}

func (n namespaced) Get(c context.Context, key string) (string, error) {
	return n.store.Get(c, n.key(key))
}

func (n namespaced) Set(c context.Context, key string, value string) error {
	return n.store.Set(c, n.key(key), value)
}

func (n namespaced) Remove(c context.Context, key string) error {
	return n.store.Remove(c, n.key(key))
}
