package app

import (
	"context"
	"strings"
)

// GuestActorID identifies sessions started without an account.
const GuestActorID = "guest"

// Actor is the authenticated caller of a request.
type Actor struct {
	ContactID string
	Name      string
}

// Guest reports whether a is the shared guest identity.
func (a Actor) Guest() bool {
	return a.ContactID == GuestActorID
}

// WithActor attaches a normalized actor to context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, normalizeActor(actor))
}

// ActorFromContext returns the actor attached by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	if !ok || actor.ContactID == "" {
		return Actor{}, false
	}
	return actor, true
}

type actorContextKey struct{}

func normalizeActor(actor Actor) Actor {
	actor.ContactID = strings.TrimSpace(actor.ContactID)
	actor.Name = strings.TrimSpace(actor.Name)
	if actor.Guest() && actor.Name == "" {
		actor.Name = "Guest"
	}
	return actor
}
