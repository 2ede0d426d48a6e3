package auth

import (
	"context"

	"tapper/internal/player"
)

type ctxKey string

const userContextKey ctxKey = "tapper.auth.user"

func withUserContext(ctx context.Context, u player.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext returns the authenticated account placed by RequireAPI.
func UserFromContext(ctx context.Context) (player.User, bool) {
	u, ok := ctx.Value(userContextKey).(player.User)
	return u, ok
}
