// Package services holds the storefront business logic. Every service
// reads and writes through the store, never through a backend directly,
// so each mutation goes through the validate-persist-broadcast pipeline
// exactly once.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sridharani/designhaven/app/models"
	"github.com/sridharani/designhaven/internal/store"
)

var (
	ErrCategoryNotFound = errors.New("services: category not found")
	ErrProductNotFound  = errors.New("services: product not found")
)

// CatalogService manages categories and products.
type CatalogService struct {
	store *store.Store
}

func NewCatalog(s *store.Store) *CatalogService { return &CatalogService{store: s} }

// Categories returns the current category list.
func (s *CatalogService) Categories() []models.Category {
	var out []models.Category
	s.store.View(func(d *store.Data) {
		out = append([]models.Category(nil), d.Categories...)
	})
	return out
}

// Products returns the current product list, optionally filtered by
// category name.
func (s *CatalogService) Products(category string) []models.Product {
	var out []models.Product
	s.store.View(func(d *store.Data) {
		for _, p := range d.Products {
			if category == "" || strings.EqualFold(p.Category, category) {
				out = append(out, p)
			}
		}
	})
	if out == nil {
		out = []models.Product{}
	}
	return out
}

// Product returns one product by id.
func (s *CatalogService) Product(id int) (models.Product, error) {
	var (
		found models.Product
		ok    bool
	)
	s.store.View(func(d *store.Data) {
		for _, p := range d.Products {
			if p.ID == id {
				found, ok = p, true
				return
			}
		}
	})
	if !ok {
		return models.Product{}, ErrProductNotFound
	}
	return found, nil
}

// AddCategory appends a category under the next free id.
func (s *CatalogService) AddCategory(ctx context.Context, name, image string) (models.Category, error) {
	var created models.Category
	err := s.store.Mutate(ctx, func(d *store.Data) error {
		created = models.Category{ID: nextCategoryID(d.Categories), Name: name, Image: image}
		d.Categories = append(d.Categories, created)
		return nil
	})
	return created, err
}

// UpdateCategory edits a category in place. Products keep their category
// name; renames do not cascade, matching storefront behaviour.
func (s *CatalogService) UpdateCategory(ctx context.Context, id int, name, image string) error {
	return s.store.Mutate(ctx, func(d *store.Data) error {
		for i := range d.Categories {
			if d.Categories[i].ID == id {
				d.Categories[i].Name = name
				d.Categories[i].Image = image
				return nil
			}
		}
		return ErrCategoryNotFound
	})
}

// DeleteCategory removes a category and every product listed under it.
func (s *CatalogService) DeleteCategory(ctx context.Context, id int) error {
	return s.store.Mutate(ctx, func(d *store.Data) error {
		idx := -1
		for i := range d.Categories {
			if d.Categories[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrCategoryNotFound
		}
		name := d.Categories[idx].Name
		d.Categories = append(d.Categories[:idx], d.Categories[idx+1:]...)

		kept := d.Products[:0]
		for _, p := range d.Products {
			if !strings.EqualFold(p.Category, name) {
				kept = append(kept, p)
			}
		}
		d.Products = kept
		return nil
	})
}

// AddProduct appends a product under the next free id.
func (s *CatalogService) AddProduct(ctx context.Context, p models.Product) (models.Product, error) {
	var created models.Product
	err := s.store.Mutate(ctx, func(d *store.Data) error {
		p.ID = nextProductID(d.Products)
		created = p
		d.Products = append(d.Products, p)
		return nil
	})
	return created, err
}

// UpdateProduct replaces the product with the matching id.
func (s *CatalogService) UpdateProduct(ctx context.Context, p models.Product) error {
	return s.store.Mutate(ctx, func(d *store.Data) error {
		for i := range d.Products {
			if d.Products[i].ID == p.ID {
				d.Products[i] = p
				return nil
			}
		}
		return ErrProductNotFound
	})
}

// DeleteProduct removes a product by id.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int) error {
	return s.store.Mutate(ctx, func(d *store.Data) error {
		for i := range d.Products {
			if d.Products[i].ID == id {
				d.Products = append(d.Products[:i], d.Products[i+1:]...)
				return nil
			}
		}
		return ErrProductNotFound
	})
}

// Ids are max(existing)+1, so deleting the highest entry frees its id for
// reuse. Gaps from middle deletions are never refilled.

func nextCategoryID(cats []models.Category) int {
	max := 0
	for _, c := range cats {
		if c.ID > max {
			max = c.ID
		}
	}
	return max + 1
}

func nextProductID(prods []models.Product) int {
	max := 0
	for _, p := range prods {
		if p.ID > max {
			max = p.ID
		}
	}
	return max + 1
}
