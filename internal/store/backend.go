// Package store owns the authoritative in-memory mirror of the storefront
// collections and mediates every read and write between the application and
// the two persistence backends: a remote document store (MongoDB) and the
// local key-value store. The remote backend is selected once at startup by
// a capability probe; any permission failure afterwards flips the session
// permanently to local-only. Nothing outside this package touches the
// backends directly.
package store

import (
	"context"
	"errors"

	"github.com/sridharani/designhaven/internal/localstore"
)

// Persisted keys. One serialized JSON value per key, on both backends.
const (
	KeyCategories  = "categories"
	KeyProducts    = "products"
	KeyOrders      = "orders"
	KeyOfferBanner = "offerBanner"
	KeyUsers       = "users"
	KeyReviews     = "reviews"
	KeyCurrentUser = "currentUser"
	KeyCart        = "cart"
	KeyAddresses   = "userAddresses"
	KeyLastUpdate  = "lastUpdate"
)

// SharedKeys are the collections mirrored to the remote store. Everything
// else is user-local and only ever touches the local store.
var SharedKeys = []string{KeyCategories, KeyProducts, KeyOrders, KeyOfferBanner}

// Event names fired through pkg/event.
const (
	// EventDataChanged carries a Snapshot of the shared collections. Fired
	// after every save and whenever a remote or local change is absorbed.
	EventDataChanged = "data.changed"
	// EventStorageChanged signals that the local store was rewritten by
	// another process (cross-tab analogue); listeners should reload.
	EventStorageChanged = "storage.changed"
	// EventQuotaExceeded carries a user-facing warning string.
	EventQuotaExceeded = "storage.quota_exceeded"
)

var (
	// ErrNotFound mirrors localstore.ErrNotFound for both backends.
	ErrNotFound = localstore.ErrNotFound
	// ErrPermissionDenied marks a remote rejection that must permanently
	// disable the remote path for the session.
	ErrPermissionDenied = errors.New("store: remote permission denied")
	// ErrWatchUnsupported is returned by backends without change
	// subscription; the poll loop covers them.
	ErrWatchUnsupported = errors.New("store: backend does not support watch")
)

// Backend is the uniform read/write/subscribe contract both persistence
// strategies implement, so the rest of the system never branches on
// "is remote available".
type Backend interface {
	Name() string
	// Load returns the raw serialized value for key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)
	// Store replaces the whole value under key (never incremental).
	Store(ctx context.Context, key string, value []byte) error
	// Watch registers onChange for every subsequent change to key and
	// returns a deregistration func. Backends without push support return
	// ErrWatchUnsupported.
	Watch(ctx context.Context, key string, onChange func(raw []byte)) (func(), error)
}

// RemoteStore is the push-capable backend the store drives in remote mode.
// *RemoteBackend implements it.
type RemoteStore interface {
	Backend
	// SetErrorHandler installs the hook invoked when an asynchronous
	// watcher fails out-of-band.
	SetErrorHandler(fn func(key string, err error))
}
