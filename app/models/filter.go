package models

import (
	"github.com/sridharani/designhaven/pkg/validate"
)

// The Filter* functions are the single validation pass run before every
// persist. Each returns the surviving entries plus the rejected ones with
// reasons, so callers can log what was dropped instead of losing it
// silently.

// FilterCategories drops malformed category entries.
func FilterCategories(in []Category) ([]Category, []validate.Rejected[Category]) {
	valid, rejected := validate.Slice(in)
	if valid == nil {
		valid = []Category{}
	}
	return valid, rejected
}

// FilterProducts drops malformed product entries.
func FilterProducts(in []Product) ([]Product, []validate.Rejected[Product]) {
	valid, rejected := validate.Slice(in)
	if valid == nil {
		valid = []Product{}
	}
	return valid, rejected
}

// FilterUsers drops user entries missing any of email, name, or password,
// or exceeding the field limits.
func FilterUsers(in []User) ([]User, []validate.Rejected[User]) {
	valid, rejected := validate.Slice(in)
	if valid == nil {
		valid = []User{}
	}
	return valid, rejected
}

// FilterOrders drops malformed order entries. On top of the tag rules an
// order must carry a non-nil items slice.
func FilterOrders(in []Order) ([]Order, []validate.Rejected[Order]) {
	valid, rejected := validate.Slice(in)
	kept := make([]Order, 0, len(valid))
	for _, o := range valid {
		if o.Items == nil {
			rejected = append(rejected, validate.Rejected[Order]{
				Entry:  o,
				Errors: map[string]string{"items": "The items field is required."},
			})
			continue
		}
		kept = append(kept, o)
	}
	return kept, rejected
}

// FilterBanner validates the banner singleton; a malformed banner is
// discarded (nil), never partially kept.
func FilterBanner(b *OfferBanner) *OfferBanner {
	if b == nil {
		return nil
	}
	if errs := validate.Struct(*b); validate.HasErrors(errs) {
		return nil
	}
	return b
}

// FilterReviews drops malformed reviews per product and removes products
// left with no surviving reviews.
func FilterReviews(in map[string][]Review) map[string][]Review {
	if in == nil {
		return map[string][]Review{}
	}
	out := make(map[string][]Review, len(in))
	for productID, list := range in {
		valid, _ := validate.Slice(list)
		if len(valid) > 0 {
			out[productID] = valid
		}
	}
	return out
}
