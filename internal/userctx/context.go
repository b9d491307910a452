package userctx

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

var (
	ErrUserRequired = errors.New("user id is required")
	ErrNotOwned     = errors.New("resource not owned by current user")
)

func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDContextKey).(uuid.UUID)
	return userID, ok && userID != uuid.Nil
}

// Resolve returns the user a request acts on. With an authenticated user the
// requested id must be empty or match it; without one it must be given.
func Resolve(ctx context.Context, requested uuid.UUID) (uuid.UUID, error) {
	current, ok := GetUserID(ctx)
	if !ok {
		if requested == uuid.Nil {
			return uuid.Nil, ErrUserRequired
		}
		return requested, nil
	}
	if requested != uuid.Nil && requested != current {
		return uuid.Nil, ErrNotOwned
	}
	return current, nil
}
