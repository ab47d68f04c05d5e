package middleware

import (
	"context"

	"github.com/angelmondragon/marketplace-storefront/internal/clientstate"
)

type contextKey string

const ctxState contextKey = "client_state"

// StateFromContext returns the session state opened by the Session middleware.
func StateFromContext(ctx context.Context) *clientstate.Store {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxState).(*clientstate.Store); ok {
		return v
	}
	return nil
}

// WithState injects the session state into the context.
func WithState(ctx context.Context, state *clientstate.Store) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxState, state)
}

// SessionIDFromContext returns the storefront session id, empty outside a session.
func SessionIDFromContext(ctx context.Context) string {
	if state := StateFromContext(ctx); state != nil {
		return state.SessionID()
	}
	return ""
}
