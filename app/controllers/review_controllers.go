package controllers

import (
	"net/http"
	"strconv"

	"github.com/sridharani/designhaven/app/services"
	"github.com/sridharani/designhaven/pkg/ctx"
)

type ReviewController struct {
	reviews *services.ReviewService
}

func NewReviewController(reviews *services.ReviewService) *ReviewController {
	return &ReviewController{reviews: reviews}
}

func (rc *ReviewController) List(c *ctx.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.Error(http.StatusBadRequest, "Invalid product id")
		return
	}
	c.Success(map[string]any{
		"reviews": rc.reviews.For(id),
		"average": rc.reviews.Average(id),
	})
}

func (rc *ReviewController) Create(c *ctx.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.Error(http.StatusBadRequest, "Invalid product id")
		return
	}
	var in struct {
		Name    string `json:"name"    validate:"required,max=100"`
		Rating  int    `json:"rating"  validate:"required,gte=1,lte=5"`
		Comment string `json:"comment" validate:"nullable,max=1000"`
	}
	if !c.BindJSON(&in) {
		return
	}
	if err := rc.reviews.Add(c.Context(), id, in.Name, in.Rating, in.Comment); err != nil {
		c.Error(http.StatusInternalServerError, err.Error())
		return
	}
	c.Created(map[string]any{"reviews": rc.reviews.For(id)})
}
