package shared

import "context"

// Actor identifies the authenticated user attached to a request.
type Actor struct {
	ID       string
	Username string
	Role     string
}

type actorKey struct{}

// ContextWithActor stores the actor in the context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor attached to the context, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
