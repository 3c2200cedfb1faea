package store

import (
	"context"
	"time"

	"github.com/sridharani/designhaven/config"
	"github.com/sridharani/designhaven/pkg/schedule"
)

// RegisterRefresh schedules the periodic reload of the shared collections.
// The interval comes from REFRESH_INTERVAL (1s by default). Runs never
// overlap: when a reload is still in flight at the next tick, that tick is
// skipped, so slow backends see a lower effective rate instead of a pileup.
func (s *Store) RegisterRefresh(ctx context.Context) {
	secs := int(config.RefreshInterval() / time.Second)
	if secs < 1 {
		secs = 1
	}
	schedule.Every(secs).Seconds().
		Name("store-refresh").
		WithoutOverlapping().
		Run(func() { s.Reload(ctx) })
}
