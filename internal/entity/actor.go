package entity

import (
	"context"
	"strings"
)

const SystemActorName = "System"

// Actor is the identity a mutation is attributed to.
type Actor struct {
	Name   string
	UserID *string
}

func SystemActor() Actor {
	return Actor{Name: SystemActorName}
}

type actorKey struct{}

func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext never fails: a missing or nameless identity is "System".
func ActorFromContext(ctx context.Context) Actor {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || strings.TrimSpace(actor.Name) == "" {
		fallback := SystemActor()
		if ok {
			fallback.UserID = actor.UserID
		}
		return fallback
	}
	return actor
}
