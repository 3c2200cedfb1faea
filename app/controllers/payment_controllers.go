package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/sridharani/designhaven/app/models"
	"github.com/sridharani/designhaven/app/services"
	"github.com/sridharani/designhaven/pkg/cache"
	"github.com/sridharani/designhaven/pkg/ctx"
	"github.com/sridharani/designhaven/pkg/payment"
)

type PaymentController struct {
	orders *services.OrderService
}

func NewPaymentController(orders *services.OrderService) *PaymentController {
	return &PaymentController{orders: orders}
}

// Intent returns the UPI deep links for an order total.
func (pc *PaymentController) Intent(c *ctx.Context) {
	order, err := pc.orders.Get(c.Param("id"))
	if err != nil {
		c.NotFound("Order not found")
		return
	}
	c.Success(payment.NewIntent(order.ID, order.Amount))
}

// QR streams a scannable PNG for the order's UPI link. When no image can
// be produced the link itself is returned as plain text.
func (pc *PaymentController) QR(c *ctx.Context) {
	order, err := pc.orders.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			c.NotFound("Order not found")
			return
		}
		c.Error(http.StatusInternalServerError, err.Error())
		return
	}
	if order.PaymentMethod != models.PaymentOnline {
		c.Error(http.StatusConflict, "Order is not an online payment")
		return
	}

	cacheKey := "payment:qr:" + order.ID
	var png []byte
	if !cache.Get(cacheKey, &png) {
		intent := payment.NewIntent(order.ID, order.Amount)
		var ok bool
		png, ok = intent.QR(c.Context(), 256)
		if !ok {
			c.String(http.StatusOK, "%s", string(png))
			return
		}
		cache.Set(cacheKey, png, time.Hour) //nolint:errcheck
	}
	c.SetHeader("Content-Type", "image/png")
	c.Status(http.StatusOK)
	c.W.Write(png) //nolint:errcheck
}
