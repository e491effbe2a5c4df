package sessionctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/clinicdesk/internal/models"
	"github.com/nkiryanov/clinicdesk/internal/service/session"
)

// Consumer that only reports a fixed state
type fixedConsumer struct {
	session.Consumer
	state session.State
}

func (c fixedConsumer) Snapshot() session.State {
	return c.state
}

func TestFromContext(t *testing.T) {
	t.Run("inside scope", func(t *testing.T) {
		consumer := fixedConsumer{state: session.State{Phase: session.PhaseAuthenticated, Identity: &models.Identity{Username: "dr.jones"}}}
		ctx := New(t.Context(), consumer)

		got, ok := FromContext(ctx)

		require.True(t, ok)
		require.Equal(t, "dr.jones", got.Snapshot().Identity.Username)
		require.Equal(t, session.PhaseAuthenticated, Must(ctx).Snapshot().Phase)
	})

	t.Run("outside scope", func(t *testing.T) {
		_, ok := FromContext(t.Context())
		require.False(t, ok)

		require.PanicsWithValue(t,
			"sessionctx: session consumer requested outside of a session scope",
			func() { Must(context.Background()) },
		)
	})

	t.Run("nil consumer is outside scope", func(t *testing.T) {
		ctx := New(t.Context(), nil)

		require.Panics(t, func() { Must(ctx) })
	})
}
