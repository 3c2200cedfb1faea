package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sridharani/designhaven/app/models"
	"github.com/sridharani/designhaven/internal/store"
	"github.com/sridharani/designhaven/pkg/collection"
	"github.com/sridharani/designhaven/pkg/event"
	"github.com/sridharani/designhaven/pkg/payment"
)

var (
	ErrOrderNotFound = errors.New("services: order not found")
	ErrEmptyCart     = errors.New("services: cart is empty")
	ErrBadStatus     = errors.New("services: unknown order status")
)

// EventOrderPlaced carries the new models.Order; jobs listen on it to
// issue receipts and notifications.
const EventOrderPlaced = "order.placed"

// GuestUserID marks orders placed without a signed-in shopper.
const GuestUserID = "guest"

// OrderService places and tracks orders.
type OrderService struct {
	store *store.Store
}

func NewOrders(s *store.Store) *OrderService { return &OrderService{store: s} }

// Place turns the current cart into an order. The order is tagged with the
// signed-in shopper's email, or "guest". The cart is emptied in the same
// save pass. Online payments get a UPI intent attached.
func (s *OrderService) Place(ctx context.Context, address models.Address, paymentMethod string) (models.Order, *payment.Intent, error) {
	if paymentMethod != models.PaymentCOD && paymentMethod != models.PaymentOnline {
		return models.Order{}, nil, fmt.Errorf("services: unknown payment method %q", paymentMethod)
	}

	var order models.Order
	err := s.store.Mutate(ctx, func(d *store.Data) error {
		if len(d.Cart) == 0 {
			return ErrEmptyCart
		}

		userID := GuestUserID
		if d.CurrentUser != nil {
			userID = d.CurrentUser.Email
		}
		amount := collection.Sum(d.Cart, func(item models.CartItem) float64 {
			return item.Price * float64(item.Quantity)
		})

		order = models.Order{
			ID:            "ORD" + strconv.FormatInt(time.Now().UnixMilli(), 10),
			UserID:        userID,
			Items:         append([]models.CartItem(nil), d.Cart...),
			Address:       address,
			PaymentMethod: paymentMethod,
			Amount:        amount,
			Status:        models.StatusOrdered,
			Date:          time.Now(),
		}
		d.Orders = append(d.Orders, order)
		d.Cart = []models.CartItem{}
		return nil
	})
	if err != nil {
		return models.Order{}, nil, err
	}

	event.FireAsync(EventOrderPlaced, order)

	if paymentMethod == models.PaymentOnline {
		intent := payment.NewIntent(order.ID, order.Amount)
		return order, &intent, nil
	}
	return order, nil, nil
}

// All returns every order, newest last.
func (s *OrderService) All() []models.Order {
	var out []models.Order
	s.store.View(func(d *store.Data) {
		out = append([]models.Order(nil), d.Orders...)
	})
	if out == nil {
		out = []models.Order{}
	}
	return out
}

// ByUser returns the orders tagged with the given user id (email or
// "guest").
func (s *OrderService) ByUser(userID string) []models.Order {
	out := []models.Order{}
	s.store.View(func(d *store.Data) {
		out = append(out, collection.Filter(d.Orders, func(o models.Order) bool {
			return o.UserID == userID
		})...)
	})
	return out
}

// Get returns one order by id.
func (s *OrderService) Get(id string) (models.Order, error) {
	var (
		found models.Order
		ok    bool
	)
	s.store.View(func(d *store.Data) {
		found, ok = collection.First(d.Orders, func(o models.Order) bool {
			return o.ID == id
		})
	})
	if !ok {
		return models.Order{}, ErrOrderNotFound
	}
	return found, nil
}

// UpdateStatus moves an order along the fulfilment steps. The update is in
// place; the order keeps its position in the list.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) error {
	if !models.ValidStatus(status) {
		return fmt.Errorf("%w: %q", ErrBadStatus, status)
	}
	return s.store.Mutate(ctx, func(d *store.Data) error {
		for i := range d.Orders {
			if d.Orders[i].ID == id {
				d.Orders[i].Status = status
				return nil
			}
		}
		return ErrOrderNotFound
	})
}

// MarkPaidOnline switches a cash-on-delivery order to online after the
// shopper pays through the UPI link.
func (s *OrderService) MarkPaidOnline(ctx context.Context, id string) error {
	return s.store.Mutate(ctx, func(d *store.Data) error {
		for i := range d.Orders {
			if d.Orders[i].ID == id {
				d.Orders[i].PaymentMethod = models.PaymentOnline
				return nil
			}
		}
		return ErrOrderNotFound
	})
}
