package controllers

import (
	"net/http"

	"github.com/sridharani/designhaven/app/services"
	"github.com/sridharani/designhaven/pkg/ctx"
)

type BannerController struct {
	banner *services.BannerService
}

func NewBannerController(banner *services.BannerService) *BannerController {
	return &BannerController{banner: banner}
}

func (bc *BannerController) Show(c *ctx.Context) {
	c.Success(map[string]any{"banner": bc.banner.Get()})
}

func (bc *BannerController) Set(c *ctx.Context) {
	var in struct {
		Text string `json:"text" validate:"required,max=200"`
	}
	if !c.BindJSON(&in) {
		return
	}
	if err := bc.banner.Set(c.Context(), in.Text); err != nil {
		c.Error(http.StatusInternalServerError, err.Error())
		return
	}
	c.Success(map[string]any{"banner": bc.banner.Get()})
}

func (bc *BannerController) Clear(c *ctx.Context) {
	if err := bc.banner.Clear(c.Context()); err != nil {
		c.Error(http.StatusInternalServerError, err.Error())
		return
	}
	c.Success(map[string]any{"banner": nil})
}
