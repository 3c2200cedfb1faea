// Package models defines the DesignHaven catalogue, cart, and order types
// together with their declared validation schema. Field limits mirror what
// the storefront accepts; entries violating them are dropped during the
// save-time validation pass (see Filter* in filter.go).
package models

import "time"

// Category groups products in the catalogue.
type Category struct {
	ID    int    `json:"id"    validate:"required,integer,gte=1"`
	Name  string `json:"name"  validate:"required,max=100"`
	Image string `json:"image" validate:"required,max=500"`
}

// Product is a catalogue entry. Category references a Category by name;
// the link is deliberately unenforced, matching storefront behaviour.
type Product struct {
	ID          int     `json:"id"          validate:"required,integer,gte=1"`
	Name        string  `json:"name"        validate:"required,max=200"`
	Price       float64 `json:"price"       validate:"gte=0,lte=1000000"`
	Category    string  `json:"category"    validate:"required,max=100"`
	Image       string  `json:"image"       validate:"required,max=500"`
	Description string  `json:"description,omitempty" validate:"nullable,max=1000"`
}

// User is a registered shopper. The password is stored and compared as
// plain text — a faithful carry-over from the storefront, not a feature.
type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

// CartItem is a denormalized snapshot taken from a Product when it is
// added to the cart. Quantity is always positive; a decrement that would
// reach zero removes the line instead.
type CartItem struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Quantity int     `json:"quantity"`
}

// Address is the structured delivery address captured at checkout.
type Address struct {
	FullName     string `json:"fullName"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	Landmark     string `json:"landmark,omitempty"`
}

// Payment methods.
const (
	PaymentCOD    = "cod"
	PaymentOnline = "online"
)

// Order status progression, in display order.
const (
	StatusOrdered        = "ordered"
	StatusPacking        = "packing"
	StatusOutForDelivery = "out for delivery"
	StatusDelivered      = "delivered"
)

// StatusSteps lists the valid order statuses in fulfilment order.
var StatusSteps = []string{StatusOrdered, StatusPacking, StatusOutForDelivery, StatusDelivered}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	for _, step := range StatusSteps {
		if s == step {
			return true
		}
	}
	return false
}

// Order is append-only once placed; only Status and PaymentMethod are
// updated in place afterwards.
type Order struct {
	ID            string     `json:"id"     validate:"required,max=50"`
	UserID        string     `json:"userId"` // customer email, or "guest"
	Items         []CartItem `json:"items"`
	Address       Address    `json:"address"`
	PaymentMethod string     `json:"paymentMethod" validate:"required,in=cod,online"`
	Amount        float64    `json:"amount" validate:"gte=0,lte=1000000"`
	Status        string     `json:"status"`
	Date          time.Time  `json:"date"`
}

// OfferBanner is the storefront-wide promotional banner singleton.
// A nil *OfferBanner means no banner is shown.
type OfferBanner struct {
	Text string `json:"text" validate:"required,max=200"`
}

// Review is a customer product review. Reviews are keyed by product id
// (as a decimal string, since they round-trip through JSON object keys).
type Review struct {
	Name    string    `json:"name"   validate:"required,max=100"`
	Rating  int       `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string    `json:"comment" validate:"nullable,max=1000"`
	Date    time.Time `json:"date"`
}
