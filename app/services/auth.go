package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sridharani/designhaven/app/models"
	"github.com/sridharani/designhaven/config"
	"github.com/sridharani/designhaven/internal/store"
	"github.com/sridharani/designhaven/pkg/auth"
)

var (
	ErrEmailTaken         = errors.New("services: email already registered")
	ErrNameTaken          = errors.New("services: name already registered")
	ErrNameReserved       = errors.New("services: that name is reserved")
	ErrInvalidCredentials = errors.New("services: invalid credentials")
	ErrNotSignedIn        = errors.New("services: no user signed in")
)

// Roles handed out at login.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// AuthService registers shoppers and manages the signed-in session.
// Passwords are stored and compared as plain text, a deliberate carry-over
// from the storefront this service replaces.
type AuthService struct {
	store *store.Store
}

func NewAuth(s *store.Store) *AuthService { return &AuthService{store: s} }

// isAdminName reports whether name claims the reserved owner account.
func isAdminName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), config.AdminName())
}

// Register creates a shopper account. The owner's name is reserved: a
// registration claiming it is refused so it cannot be squatted. Email and
// name must both be unique, compared case-insensitively.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (models.User, error) {
	if isAdminName(name) {
		return models.User{}, ErrNameReserved
	}

	var created models.User
	err := s.store.Mutate(ctx, func(d *store.Data) error {
		for _, u := range d.Users {
			if strings.EqualFold(u.Email, email) {
				return ErrEmailTaken
			}
			if strings.EqualFold(u.Name, name) {
				return ErrNameTaken
			}
		}
		var max int64
		for _, u := range d.Users {
			if u.ID > max {
				max = u.ID
			}
		}
		created = models.User{ID: max + 1, Name: name, Email: email, Password: password}
		d.Users = append(d.Users, created)
		return nil
	})
	return created, err
}

// Tokens is the pair handed out at login: a short-lived access token and
// a longer-lived refresh token.
type Tokens struct {
	Access  string `json:"token"`
	Refresh string `json:"refreshToken"`
}

// Login checks credentials against email or name, case-insensitively,
// marks the user as the current session, and returns signed tokens. The
// owner signs in with the reserved name and the configured password; that
// account lives outside the users collection and gets the admin role.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (models.User, Tokens, error) {
	id := strings.TrimSpace(identifier)

	if isAdminName(id) {
		if password != config.AdminPassword() {
			return models.User{}, Tokens{}, ErrInvalidCredentials
		}
		admin := models.User{Name: config.AdminName(), Email: config.AdminEmail()}
		err := s.store.Mutate(ctx, func(d *store.Data) error {
			cu := admin
			d.CurrentUser = &cu
			return nil
		})
		if err != nil {
			return models.User{}, Tokens{}, err
		}
		tokens, err := issueTokens(admin, RoleAdmin)
		return admin, tokens, err
	}

	var user models.User
	err := s.store.Mutate(ctx, func(d *store.Data) error {
		for _, u := range d.Users {
			matched := strings.EqualFold(u.Email, id) || strings.EqualFold(u.Name, id)
			if matched && u.Password == password {
				user = u
				cu := u
				d.CurrentUser = &cu
				return nil
			}
		}
		return ErrInvalidCredentials
	})
	if err != nil {
		return models.User{}, Tokens{}, err
	}

	tokens, err := issueTokens(user, RoleUser)
	return user, tokens, err
}

// Refresh exchanges a still-valid refresh token for a fresh pair. The
// claims carry over unchanged, so the owner keeps the admin role.
func (s *AuthService) Refresh(refreshToken string) (Tokens, error) {
	claims, err := auth.ValidateToken(refreshToken)
	if err != nil {
		return Tokens{}, ErrInvalidCredentials
	}
	return issueTokens(models.User{
		ID:    claims.UserID,
		Name:  claims.Name,
		Email: claims.Email,
	}, claims.Role)
}

func issueTokens(u models.User, role string) (Tokens, error) {
	access, err := auth.GenerateToken(u.ID, u.Email, u.Name, role)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := auth.GenerateRefreshToken(u.ID, u.Email, u.Name, role)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{Access: access, Refresh: refresh}, nil
}

// Logout clears the current session.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.store.Mutate(ctx, func(d *store.Data) error {
		d.CurrentUser = nil
		return nil
	})
}

// Current returns the signed-in user.
func (s *AuthService) Current() (models.User, error) {
	var (
		user models.User
		ok   bool
	)
	s.store.View(func(d *store.Data) {
		if d.CurrentUser != nil {
			user, ok = *d.CurrentUser, true
		}
	})
	if !ok {
		return models.User{}, ErrNotSignedIn
	}
	return user, nil
}

// SaveAddress stores the delivery address for a user, keyed by email.
func (s *AuthService) SaveAddress(ctx context.Context, email string, addr models.Address) error {
	return s.store.Mutate(ctx, func(d *store.Data) error {
		if d.Addresses == nil {
			d.Addresses = map[string]models.Address{}
		}
		d.Addresses[email] = addr
		return nil
	})
}

// AddressFor returns the saved delivery address for a user.
func (s *AuthService) AddressFor(email string) (models.Address, bool) {
	var (
		addr models.Address
		ok   bool
	)
	s.store.View(func(d *store.Data) {
		addr, ok = d.Addresses[email]
	})
	return addr, ok
}
