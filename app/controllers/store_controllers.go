package controllers

import (
	"github.com/sridharani/designhaven/internal/store"
	"github.com/sridharani/designhaven/pkg/ctx"
)

// StoreController exposes the sync state of the data layer.
type StoreController struct {
	store *store.Store
}

func NewStoreController(s *store.Store) *StoreController {
	return &StoreController{store: s}
}

// Status reports which backend is active.
func (sc *StoreController) Status(c *ctx.Context) {
	backend := "local"
	if sc.store.Remote() {
		backend = "remote"
	}
	c.Success(map[string]any{"backend": backend})
}

// Sync forces an immediate reload outside the scheduled cadence.
func (sc *StoreController) Sync(c *ctx.Context) {
	sc.store.Reload(c.Context())
	c.Success(map[string]any{"synced": true})
}
