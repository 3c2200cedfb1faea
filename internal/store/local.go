package store

import (
	"context"

	"github.com/sridharani/designhaven/internal/localstore"
)

// LocalBackend adapts the synchronous key-value store to the Backend
// contract. It has no push support; the poll loop covers change pickup.
type LocalBackend struct {
	kv localstore.KV
}

// NewLocal wraps an opened key-value store.
func NewLocal(kv localstore.KV) *LocalBackend {
	return &LocalBackend{kv: kv}
}

func (b *LocalBackend) Name() string { return "local" }

func (b *LocalBackend) Load(_ context.Context, key string) ([]byte, error) {
	return b.kv.Get(key)
}

func (b *LocalBackend) Store(_ context.Context, key string, value []byte) error {
	return b.kv.Set(key, value)
}

func (b *LocalBackend) Watch(context.Context, string, func([]byte)) (func(), error) {
	return nil, ErrWatchUnsupported
}

func (b *LocalBackend) Close() error { return b.kv.Close() }
