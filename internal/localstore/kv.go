// Package localstore provides the synchronous on-disk key-value store used
// as the local persistence backend. Each collection lives under a single
// string key holding a serialized JSON value — no namespacing, no
// versioning. Two drivers are available: "sqlite" (a one-table GORM
// database) and "pebble" (an LSM key-value store).
package localstore

import (
	"errors"
	"fmt"

	"github.com/sridharani/designhaven/config"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("localstore: key not found")

// ErrQuotaExceeded is returned by Set when a value exceeds the configured
// size cap or the underlying device is full. Callers surface it as a
// user-visible warning and abort that write.
var ErrQuotaExceeded = errors.New("localstore: storage quota exceeded")

// KV is the synchronous key-value persistence contract. All calls block
// the caller until complete; both drivers are in-process.
type KV interface {
	// Get returns the raw value for key, or ErrNotFound.
	Get(key string) ([]byte, error)
	// Set writes value under key, replacing any previous value.
	Set(key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
	Close() error
}

// Open constructs the KV driver selected by configuration.
func Open() (KV, error) {
	return OpenDriver(config.LocalDriver(), config.LocalPath())
}

// OpenDriver constructs a named driver at the given path.
func OpenDriver(driver, path string) (KV, error) {
	switch driver {
	case "sqlite":
		return OpenSQLite(path)
	case "pebble":
		return OpenPebble(path)
	default:
		return nil, fmt.Errorf("localstore: unsupported driver %q (supported: sqlite, pebble)", driver)
	}
}

// checkQuota enforces the optional per-value size cap.
func checkQuota(value []byte) error {
	if max := config.LocalMaxValueBytes(); max > 0 && int64(len(value)) > max {
		return fmt.Errorf("%w: value is %d bytes, cap is %d", ErrQuotaExceeded, len(value), max)
	}
	return nil
}
