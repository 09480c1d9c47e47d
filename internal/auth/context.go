package auth

import (
	"context"

	"github.com/dukerupert/chorify/internal/model"
)

type contextKey struct{}

// AuthContext identifies the caller of an authenticated request.
type AuthContext struct {
	AccountID int64
	IsAdmin   bool
	SessionID int64
	// Account is the caller's record as loaded during authentication.
	Account *model.Account
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func AccountID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.AccountID
}

func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.IsAdmin
}
