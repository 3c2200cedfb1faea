package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sridharani/designhaven/app/services"
	"github.com/sridharani/designhaven/pkg/ctx"
)

type CartController struct {
	cart *services.CartService
}

func NewCartController(cart *services.CartService) *CartController {
	return &CartController{cart: cart}
}

func (cc *CartController) Show(c *ctx.Context) {
	c.Success(map[string]any{
		"items": cc.cart.Items(),
		"total": cc.cart.Total(),
	})
}

func (cc *CartController) Add(c *ctx.Context) {
	var in struct {
		ProductID int `json:"productId" validate:"required,gte=1"`
	}
	if !c.BindJSON(&in) {
		return
	}
	if err := cc.cart.Add(c.Context(), in.ProductID); err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			c.NotFound("Product not found")
			return
		}
		c.Error(http.StatusInternalServerError, err.Error())
		return
	}
	c.Success(cc.cart.Items())
}

// ChangeQuantity applies a +1/-1 style delta. A decrement that empties the
// line removes it.
func (cc *CartController) ChangeQuantity(c *ctx.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.Error(http.StatusBadRequest, "Invalid product id")
		return
	}
	var in struct {
		Delta int `json:"delta" validate:"required"`
	}
	if !c.BindJSON(&in) {
		return
	}
	if err := cc.cart.ChangeQuantity(c.Context(), id, in.Delta); err != nil {
		if errors.Is(err, services.ErrCartItemNotFound) {
			c.NotFound("Cart item not found")
			return
		}
		c.Error(http.StatusInternalServerError, err.Error())
		return
	}
	c.Success(cc.cart.Items())
}

func (cc *CartController) Remove(c *ctx.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.Error(http.StatusBadRequest, "Invalid product id")
		return
	}
	if err := cc.cart.Remove(c.Context(), id); err != nil {
		if errors.Is(err, services.ErrCartItemNotFound) {
			c.NotFound("Cart item not found")
			return
		}
		c.Error(http.StatusInternalServerError, err.Error())
		return
	}
	c.Success(cc.cart.Items())
}

func (cc *CartController) Clear(c *ctx.Context) {
	if err := cc.cart.Clear(c.Context()); err != nil {
		c.Error(http.StatusInternalServerError, err.Error())
		return
	}
	c.Success(map[string]any{"cleared": true})
}
