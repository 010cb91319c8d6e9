package utils

import (
	"context"

	"printlab-be/internal/user"
)

type ctxKey string

const actorKey ctxKey = "actor"

// SetActorContext stores the validated actor into context (called by middleware).
func SetActorContext(ctx context.Context, a user.Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromContext retrieves the actor safely.
func ActorFromContext(ctx context.Context) (user.Actor, bool) {
	a, ok := ctx.Value(actorKey).(user.Actor)
	return a, ok
}
