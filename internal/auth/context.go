package auth

import (
	"context"
	"errors"
)

type ctxKey int

const ctxActor ctxKey = iota

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxActor, a)
}

// ActorFrom returns the resolved actor for the request.
func ActorFrom(ctx context.Context) (Actor, error) {
	if a, ok := ctx.Value(ctxActor).(Actor); ok && a.ID != "" {
		return a, nil
	}
	return Actor{}, errors.New("actor not in context")
}
