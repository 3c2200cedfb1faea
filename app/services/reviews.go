package services

import (
	"context"
	"strconv"
	"time"

	"github.com/sridharani/designhaven/app/models"
	"github.com/sridharani/designhaven/internal/store"
)

// ReviewService manages per-product customer reviews. Reviews are keyed
// by product id rendered as a decimal string.
type ReviewService struct {
	store *store.Store
}

func NewReviews(s *store.Store) *ReviewService { return &ReviewService{store: s} }

// For returns the reviews for one product, oldest first.
func (s *ReviewService) For(productID int) []models.Review {
	key := strconv.Itoa(productID)
	out := []models.Review{}
	s.store.View(func(d *store.Data) {
		out = append(out, d.Reviews[key]...)
	})
	return out
}

// Add appends a review for a product. Date is stamped server-side.
func (s *ReviewService) Add(ctx context.Context, productID int, name string, rating int, comment string) error {
	key := strconv.Itoa(productID)
	return s.store.Mutate(ctx, func(d *store.Data) error {
		if d.Reviews == nil {
			d.Reviews = map[string][]models.Review{}
		}
		d.Reviews[key] = append(d.Reviews[key], models.Review{
			Name:    name,
			Rating:  rating,
			Comment: comment,
			Date:    time.Now(),
		})
		return nil
	})
}

// Average returns the mean rating for a product, 0 when unreviewed.
func (s *ReviewService) Average(productID int) float64 {
	reviews := s.For(productID)
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}
