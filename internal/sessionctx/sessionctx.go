package sessionctx

import (
	"context"

	"github.com/nkiryanov/clinicdesk/internal/service/session"
)

type ctxKey string

const consumerKey ctxKey = "session"

// Create a new context with the session consumer
func New(ctx context.Context, c session.Consumer) context.Context {
	return context.WithValue(ctx, consumerKey, c)
}

// Extract the session consumer from the context
func FromContext(ctx context.Context) (session.Consumer, bool) {
	c, ok := ctx.Value(consumerKey).(session.Consumer)
	return c, ok
}

// Must extracts the session consumer and panics if ctx is outside of a session scope
func Must(ctx context.Context) session.Consumer {
	c, ok := FromContext(ctx)
	if !ok || c == nil {
		panic("sessionctx: session consumer requested outside of a session scope")
	}
	return c
}
