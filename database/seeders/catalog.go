// Package seeders fills an empty store with the default catalogue so a
// fresh install has something to show.
package seeders

import (
	"context"

	"github.com/sridharani/designhaven/app/models"
	"github.com/sridharani/designhaven/internal/store"
	"github.com/sridharani/designhaven/pkg/logger"
)

var defaultCategories = []models.Category{
	{ID: 1, Name: "Posters", Image: "https://images.unsplash.com/photo-1584824486509-112e4181ff6b?w=400"},
	{ID: 2, Name: "Customized Designs", Image: "https://images.unsplash.com/photo-1561070791-2526d30994b5?w=400"},
	{ID: 3, Name: "Wall Art", Image: "https://images.unsplash.com/photo-1578301978018-3005759f48f7?w=400"},
	{ID: 4, Name: "Digital Prints", Image: "https://images.unsplash.com/photo-1513475382585-d06e58bcb0e0?w=400"},
}

var defaultProducts = []models.Product{
	{ID: 1, Name: "Vintage Poster Collection", Price: 2499, Category: "Posters", Image: "https://images.unsplash.com/photo-1584824486509-112e4181ff6b?w=400", Description: "Beautiful vintage-inspired poster collection perfect for any room."},
	{ID: 2, Name: "Custom Portrait Design", Price: 4199, Category: "Customized Designs", Image: "https://images.unsplash.com/photo-1561070791-2526d30994b5?w=400", Description: "Personalized portrait design created just for you."},
	{ID: 3, Name: "Modern Abstract Art", Price: 3399, Category: "Wall Art", Image: "https://images.unsplash.com/photo-1578301978018-3005759f48f7?w=400", Description: "Contemporary abstract art piece to enhance your space."},
	{ID: 4, Name: "Nature Photography Print", Price: 2099, Category: "Digital Prints", Image: "https://images.unsplash.com/photo-1513475382585-d06e58bcb0e0?w=400", Description: "High-quality nature photography print in stunning detail."},
}

// Run seeds the default catalogue into empty collections. Existing data is
// never overwritten, so running the seeder twice is harmless.
func Run(ctx context.Context, s *store.Store) error {
	seededCategories, seededProducts := false, false
	err := s.Mutate(ctx, func(d *store.Data) error {
		if len(d.Categories) == 0 {
			d.Categories = append([]models.Category(nil), defaultCategories...)
			seededCategories = true
		}
		if len(d.Products) == 0 {
			d.Products = append([]models.Product(nil), defaultProducts...)
			seededProducts = true
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("seed complete",
		"categories", seededCategories,
		"products", seededProducts)
	return nil
}
