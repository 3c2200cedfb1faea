package services

import (
	"context"
	"errors"

	"github.com/sridharani/designhaven/app/models"
	"github.com/sridharani/designhaven/internal/store"
	"github.com/sridharani/designhaven/pkg/collection"
)

var ErrCartItemNotFound = errors.New("services: cart item not found")

// CartService manages the shopper's cart. Cart lines are denormalized
// snapshots of the product at add time; later catalogue edits do not
// touch existing lines.
type CartService struct {
	store   *store.Store
	catalog *CatalogService
}

func NewCart(s *store.Store, catalog *CatalogService) *CartService {
	return &CartService{store: s, catalog: catalog}
}

// Items returns the current cart lines.
func (s *CartService) Items() []models.CartItem {
	var out []models.CartItem
	s.store.View(func(d *store.Data) {
		out = append([]models.CartItem(nil), d.Cart...)
	})
	if out == nil {
		out = []models.CartItem{}
	}
	return out
}

// Total sums price times quantity over all lines.
func (s *CartService) Total() float64 {
	var total float64
	s.store.View(func(d *store.Data) {
		total = collection.Sum(d.Cart, func(item models.CartItem) float64 {
			return item.Price * float64(item.Quantity)
		})
	})
	return total
}

// Add puts one unit of the product in the cart, incrementing the existing
// line when the product is already there.
func (s *CartService) Add(ctx context.Context, productID int) error {
	p, err := s.catalog.Product(productID)
	if err != nil {
		return err
	}
	return s.store.Mutate(ctx, func(d *store.Data) error {
		for i := range d.Cart {
			if d.Cart[i].ID == productID {
				d.Cart[i].Quantity++
				return nil
			}
		}
		d.Cart = append(d.Cart, models.CartItem{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Image:    p.Image,
			Quantity: 1,
		})
		return nil
	})
}

// ChangeQuantity adjusts a line by delta. A line whose quantity would drop
// to zero or below is removed instead of kept at zero.
func (s *CartService) ChangeQuantity(ctx context.Context, productID, delta int) error {
	return s.store.Mutate(ctx, func(d *store.Data) error {
		for i := range d.Cart {
			if d.Cart[i].ID != productID {
				continue
			}
			d.Cart[i].Quantity += delta
			if d.Cart[i].Quantity <= 0 {
				d.Cart = append(d.Cart[:i], d.Cart[i+1:]...)
			}
			return nil
		}
		return ErrCartItemNotFound
	})
}

// Remove drops a line regardless of quantity.
func (s *CartService) Remove(ctx context.Context, productID int) error {
	return s.store.Mutate(ctx, func(d *store.Data) error {
		for i := range d.Cart {
			if d.Cart[i].ID == productID {
				d.Cart = append(d.Cart[:i], d.Cart[i+1:]...)
				return nil
			}
		}
		return ErrCartItemNotFound
	})
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context) error {
	return s.store.Mutate(ctx, func(d *store.Data) error {
		d.Cart = []models.CartItem{}
		return nil
	})
}
