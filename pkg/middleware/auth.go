package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sridharani/designhaven/pkg/auth"
	"github.com/sridharani/designhaven/pkg/response"
)

type ctxKey string

const (
	ctxUserID ctxKey = "auth.user_id"
	ctxEmail  ctxKey = "auth.email"
	ctxName   ctxKey = "auth.name"
	ctxRole   ctxKey = "auth.role"
)

// AuthMiddleware validates the Bearer token and injects the caller's
// identity into the request context.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.Replace(r.Header.Get("Authorization"), "Bearer ", "", 1)
		if token == "" {
			response.Unauthorized(w)
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxEmail, claims.Email)
		ctx = context.WithValue(ctx, ctxName, claims.Name)
		ctx = context.WithValue(ctx, ctxRole, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromCtx returns the authenticated user id, if any.
func UserIDFromCtx(r *http.Request) (int64, bool) {
	id, ok := r.Context().Value(ctxUserID).(int64)
	return id, ok
}

// EmailFromCtx returns the authenticated user's email, if any.
func EmailFromCtx(r *http.Request) (string, bool) {
	email, ok := r.Context().Value(ctxEmail).(string)
	return email, ok
}

// NameFromCtx returns the authenticated user's display name, if any.
func NameFromCtx(r *http.Request) (string, bool) {
	name, ok := r.Context().Value(ctxName).(string)
	return name, ok
}

// RoleFromCtx returns the authenticated user's role, if any.
func RoleFromCtx(r *http.Request) (string, bool) {
	role, ok := r.Context().Value(ctxRole).(string)
	return role, ok
}
