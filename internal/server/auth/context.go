package auth

import (
	"context"

	"github.com/dmitrijs2005/farmhand/internal/server/models"
)

type ctxKey string

const identityKey ctxKey = "identity"

// WithIdentity returns a copy of ctx carrying the authenticated user.
func WithIdentity(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, identityKey, user)
}

// IdentityFromContext returns the authenticated user, if any.
func IdentityFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(identityKey).(*models.User)
	return user, ok && user != nil
}
