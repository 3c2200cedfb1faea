package controllers

import (
	"errors"
	"net/http"

	"github.com/sridharani/designhaven/app/models"
	"github.com/sridharani/designhaven/app/services"
	"github.com/sridharani/designhaven/pkg/ctx"
	"github.com/sridharani/designhaven/pkg/middleware"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// userOut strips the password from API responses. It never leaves the
// process even though it is stored in the clear.
type userOut struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func publicUser(u models.User) userOut {
	return userOut{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (ac *AuthController) Register(c *ctx.Context) {
	var in struct {
		Name     string `json:"name"     validate:"required,max=100"`
		Email    string `json:"email"    validate:"required,email,max=100"`
		Password string `json:"password" validate:"required,min=4,max=200"`
	}
	if !c.BindJSON(&in) {
		return
	}
	user, err := ac.auth.Register(c.Context(), in.Name, in.Email, in.Password)
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		c.Error(http.StatusConflict, "Email already registered")
	case errors.Is(err, services.ErrNameTaken):
		c.Error(http.StatusConflict, "Name already registered")
	case errors.Is(err, services.ErrNameReserved):
		c.Error(http.StatusConflict, "That name is reserved")
	case err != nil:
		c.Error(http.StatusInternalServerError, err.Error())
	default:
		c.Created(publicUser(user))
	}
}

// Login signs a shopper (or the owner) in. The identifier is an email
// address or a display name, matched case-insensitively.
func (ac *AuthController) Login(c *ctx.Context) {
	var in struct {
		Identifier string `json:"identifier" validate:"required,max=100"`
		Password   string `json:"password"   validate:"required"`
	}
	if !c.BindJSON(&in) {
		return
	}
	user, tokens, err := ac.auth.Login(c.Context(), in.Identifier, in.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.Unauthorized("Invalid credentials")
			return
		}
		c.Error(http.StatusInternalServerError, err.Error())
		return
	}
	c.Success(map[string]any{
		"user":         publicUser(user),
		"token":        tokens.Access,
		"refreshToken": tokens.Refresh,
	})
}

// Refresh trades a valid refresh token for a new token pair.
func (ac *AuthController) Refresh(c *ctx.Context) {
	var in struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	if !c.BindJSON(&in) {
		return
	}
	tokens, err := ac.auth.Refresh(in.RefreshToken)
	if err != nil {
		c.Unauthorized("Invalid refresh token")
		return
	}
	c.Success(map[string]any{"token": tokens.Access, "refreshToken": tokens.Refresh})
}

func (ac *AuthController) Logout(c *ctx.Context) {
	if err := ac.auth.Logout(c.Context()); err != nil {
		c.Error(http.StatusInternalServerError, err.Error())
		return
	}
	c.Success(map[string]any{"loggedOut": true})
}

func (ac *AuthController) Profile(c *ctx.Context) {
	user, err := ac.auth.Current()
	if err != nil {
		c.Unauthorized("Not signed in")
		return
	}
	out := map[string]any{"user": publicUser(user)}
	if addr, ok := ac.auth.AddressFor(user.Email); ok {
		out["address"] = addr
	}
	c.Success(out)
}

func (ac *AuthController) SaveAddress(c *ctx.Context) {
	email, ok := middleware.EmailFromCtx(c.R)
	if !ok {
		c.Unauthorized()
		return
	}
	var in models.Address
	if !c.BindJSON(&in) {
		return
	}
	if err := ac.auth.SaveAddress(c.Context(), email, in); err != nil {
		c.Error(http.StatusInternalServerError, err.Error())
		return
	}
	c.Success(in)
}
