package api

import (
	"context"

	"github.com/complyeasy/complyeasy/pkg/stores"
)

type actorContextKey struct{}

// WithActor returns a context carrying the signed-in user on whose behalf
// facade calls are made.
func WithActor(ctx context.Context, user stores.User) context.Context {
	return context.WithValue(ctx, actorContextKey{}, user)
}

// ActorFrom returns the signed-in user stored in ctx.
func ActorFrom(ctx context.Context) (stores.User, bool) {
	u, ok := ctx.Value(actorContextKey{}).(stores.User)
	return u, ok && u.ID != ""
}
