package authz

import "context"

type storeContextKey struct{}

type actorContextKey struct{}

// ContextWithStore attaches the per-request capability store.
func ContextWithStore(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, storeContextKey{}, store)
}

// StoreFromContext extracts the capability store. A missing store yields nil,
// which denies every query.
func StoreFromContext(ctx context.Context) *Store {
	store, _ := ctx.Value(storeContextKey{}).(*Store)
	return store
}

// ContextWithActor attaches the session actor snapshot.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor snapshot.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}

// GateFromContext builds a gate over the request's store.
func GateFromContext(ctx context.Context) *Gate {
	return NewGate(StoreFromContext(ctx))
}
