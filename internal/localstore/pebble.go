package localstore

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/pebble"
)

// PebbleKV implements KV on a pebble LSM store. It keeps the WAL enabled;
// every Set is synced so the store survives a crash mid-session.
type PebbleKV struct {
	db *pebble.DB
}

// OpenPebble opens (creating if needed) a pebble-backed store at dir.
func OpenPebble(dir string) (*PebbleKV, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("localstore/pebble: open %s: %w", dir, err)
	}
	return &PebbleKV{db: db}, nil
}

func (p *PebbleKV) Get(key string) ([]byte, error) {
	v, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("localstore/pebble: get %s: %w", key, err)
	}
	out := append([]byte(nil), v...)
	if err := closer.Close(); err != nil {
		return nil, fmt.Errorf("localstore/pebble: close value %s: %w", key, err)
	}
	return out, nil
}

func (p *PebbleKV) Set(key string, value []byte) error {
	if err := checkQuota(value); err != nil {
		return err
	}
	if err := p.db.Set([]byte(key), value, pebble.Sync); err != nil {
		if strings.Contains(err.Error(), "no space left") {
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		return fmt.Errorf("localstore/pebble: set %s: %w", key, err)
	}
	return nil
}

func (p *PebbleKV) Delete(key string) error {
	if err := p.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("localstore/pebble: delete %s: %w", key, err)
	}
	return nil
}

func (p *PebbleKV) Close() error { return p.db.Close() }
