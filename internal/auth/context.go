package auth

import (
	"context"

	"boutique/internal/models"
)

type ctxKey struct{}

// WithUser binds the resolved user record to the request context so
// downstream handlers do not re-fetch it.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFrom returns the user bound by Authenticate, or nil.
func UserFrom(ctx context.Context) *models.User {
	if u, ok := ctx.Value(ctxKey{}).(*models.User); ok {
		return u
	}
	return nil
}
