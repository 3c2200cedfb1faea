package services

import (
	"context"

	"github.com/sridharani/designhaven/app/models"
	"github.com/sridharani/designhaven/internal/store"
)

// BannerService manages the storefront-wide promotional banner.
type BannerService struct {
	store *store.Store
}

func NewBanner(s *store.Store) *BannerService { return &BannerService{store: s} }

// Get returns the banner, or nil when none is set.
func (s *BannerService) Get() *models.OfferBanner {
	var out *models.OfferBanner
	s.store.View(func(d *store.Data) {
		if d.OfferBanner != nil {
			b := *d.OfferBanner
			out = &b
		}
	})
	return out
}

// Set replaces the banner text.
func (s *BannerService) Set(ctx context.Context, text string) error {
	return s.store.Mutate(ctx, func(d *store.Data) error {
		d.OfferBanner = &models.OfferBanner{Text: text}
		return nil
	})
}

// Clear removes the banner.
func (s *BannerService) Clear(ctx context.Context) error {
	return s.store.Mutate(ctx, func(d *store.Data) error {
		d.OfferBanner = nil
		return nil
	})
}
