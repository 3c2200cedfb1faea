package controllers

import (
	"errors"
	"net/http"

	"github.com/sridharani/designhaven/app/models"
	"github.com/sridharani/designhaven/app/services"
	"github.com/sridharani/designhaven/pkg/ctx"
	"github.com/sridharani/designhaven/pkg/middleware"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

type placeOrderInput struct {
	Address       models.Address `json:"address"`
	PaymentMethod string         `json:"paymentMethod" validate:"required,in=cod,online"`
}

func (oc *OrderController) Place(c *ctx.Context) {
	var in placeOrderInput
	if !c.BindJSON(&in) {
		return
	}
	order, intent, err := oc.orders.Place(c.Context(), in.Address, in.PaymentMethod)
	if err != nil {
		if errors.Is(err, services.ErrEmptyCart) {
			c.Error(http.StatusConflict, "Cart is empty")
			return
		}
		c.Error(http.StatusInternalServerError, err.Error())
		return
	}
	out := map[string]any{"order": order}
	if intent != nil {
		out["payment"] = intent
	}
	c.Created(out)
}

// Mine lists the caller's orders; admins see everything through List.
func (oc *OrderController) Mine(c *ctx.Context) {
	email, ok := middleware.EmailFromCtx(c.R)
	if !ok {
		c.Unauthorized()
		return
	}
	c.Success(oc.orders.ByUser(email))
}

func (oc *OrderController) List(c *ctx.Context) {
	c.Success(oc.orders.All())
}

func (oc *OrderController) Show(c *ctx.Context) {
	order, err := oc.orders.Get(c.Param("id"))
	if err != nil {
		c.NotFound("Order not found")
		return
	}
	c.Success(order)
}

func (oc *OrderController) UpdateStatus(c *ctx.Context) {
	var in struct {
		Status string `json:"status" validate:"required"`
	}
	if !c.BindJSON(&in) {
		return
	}
	err := oc.orders.UpdateStatus(c.Context(), c.Param("id"), in.Status)
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		c.NotFound("Order not found")
	case errors.Is(err, services.ErrBadStatus):
		c.Error(http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		c.Error(http.StatusInternalServerError, err.Error())
	default:
		c.Success(map[string]any{"id": c.Param("id"), "status": in.Status})
	}
}

// MarkPaid flips an order to online payment after a successful UPI
// transaction.
func (oc *OrderController) MarkPaid(c *ctx.Context) {
	if err := oc.orders.MarkPaidOnline(c.Context(), c.Param("id")); err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			c.NotFound("Order not found")
			return
		}
		c.Error(http.StatusInternalServerError, err.Error())
		return
	}
	c.Success(map[string]any{"id": c.Param("id"), "paymentMethod": models.PaymentOnline})
}
