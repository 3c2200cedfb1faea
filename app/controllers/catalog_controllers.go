// Package controllers maps HTTP requests onto the storefront services.
// Handlers use the context style: bind, call the service, respond with the
// JSON envelope.
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sridharani/designhaven/app/models"
	"github.com/sridharani/designhaven/app/services"
	"github.com/sridharani/designhaven/pkg/ctx"
)

type CatalogController struct {
	catalog *services.CatalogService
}

func NewCatalogController(catalog *services.CatalogService) *CatalogController {
	return &CatalogController{catalog: catalog}
}

func (cc *CatalogController) ListCategories(c *ctx.Context) {
	c.Success(cc.catalog.Categories())
}

func (cc *CatalogController) ListProducts(c *ctx.Context) {
	c.Success(cc.catalog.Products(c.Query("category")))
}

func (cc *CatalogController) ShowProduct(c *ctx.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.Error(http.StatusBadRequest, "Invalid product id")
		return
	}
	p, err := cc.catalog.Product(id)
	if err != nil {
		c.NotFound("Product not found")
		return
	}
	c.Success(p)
}

type categoryInput struct {
	Name  string `json:"name"  validate:"required,max=100"`
	Image string `json:"image" validate:"required,max=500"`
}

func (cc *CatalogController) CreateCategory(c *ctx.Context) {
	var in categoryInput
	if !c.BindJSON(&in) {
		return
	}
	created, err := cc.catalog.AddCategory(c.Context(), in.Name, in.Image)
	if err != nil {
		c.Error(http.StatusInternalServerError, err.Error())
		return
	}
	c.Created(created)
}

func (cc *CatalogController) UpdateCategory(c *ctx.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.Error(http.StatusBadRequest, "Invalid category id")
		return
	}
	var in categoryInput
	if !c.BindJSON(&in) {
		return
	}
	if err := cc.catalog.UpdateCategory(c.Context(), id, in.Name, in.Image); err != nil {
		if errors.Is(err, services.ErrCategoryNotFound) {
			c.NotFound("Category not found")
			return
		}
		c.Error(http.StatusInternalServerError, err.Error())
		return
	}
	c.Success(map[string]any{"updated": id})
}

func (cc *CatalogController) DeleteCategory(c *ctx.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.Error(http.StatusBadRequest, "Invalid category id")
		return
	}
	if err := cc.catalog.DeleteCategory(c.Context(), id); err != nil {
		if errors.Is(err, services.ErrCategoryNotFound) {
			c.NotFound("Category not found")
			return
		}
		c.Error(http.StatusInternalServerError, err.Error())
		return
	}
	c.Success(map[string]any{"deleted": id})
}

type productInput struct {
	Name        string  `json:"name"        validate:"required,max=200"`
	Price       float64 `json:"price"       validate:"gte=0,lte=1000000"`
	Category    string  `json:"category"    validate:"required,max=100"`
	Image       string  `json:"image"       validate:"required,max=500"`
	Description string  `json:"description" validate:"nullable,max=1000"`
}

func (in productInput) model() models.Product {
	return models.Product{
		Name:        in.Name,
		Price:       in.Price,
		Category:    in.Category,
		Image:       in.Image,
		Description: in.Description,
	}
}

func (cc *CatalogController) CreateProduct(c *ctx.Context) {
	var in productInput
	if !c.BindJSON(&in) {
		return
	}
	created, err := cc.catalog.AddProduct(c.Context(), in.model())
	if err != nil {
		c.Error(http.StatusInternalServerError, err.Error())
		return
	}
	c.Created(created)
}

func (cc *CatalogController) UpdateProduct(c *ctx.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.Error(http.StatusBadRequest, "Invalid product id")
		return
	}
	var in productInput
	if !c.BindJSON(&in) {
		return
	}
	p := in.model()
	p.ID = id
	if err := cc.catalog.UpdateProduct(c.Context(), p); err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			c.NotFound("Product not found")
			return
		}
		c.Error(http.StatusInternalServerError, err.Error())
		return
	}
	c.Success(p)
}

func (cc *CatalogController) DeleteProduct(c *ctx.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.Error(http.StatusBadRequest, "Invalid product id")
		return
	}
	if err := cc.catalog.DeleteProduct(c.Context(), id); err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			c.NotFound("Product not found")
			return
		}
		c.Error(http.StatusInternalServerError, err.Error())
		return
	}
	c.Success(map[string]any{"deleted": id})
}
