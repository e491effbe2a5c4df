package redis

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/clinicdesk/internal/storage"
	"github.com/nkiryanov/clinicdesk/internal/storage/storagetest"
	"github.com/nkiryanov/clinicdesk/internal/testutil"
)

func TestRedisStorage(t *testing.T) {
	t.Parallel()

	rc := testutil.StartRedisContainer(t)
	t.Cleanup(rc.Terminate)

	client, err := Connect(t.Context(), rc.Addr)
	require.NoError(t, err, "redis container has to be reachable")
	t.Cleanup(func() { _ = client.Close() })

	// Every test gets its own prefix, so storages never see each other keys
	storagetest.Run(t, func(*testing.T) storage.Storage {
		return New(client, WithPrefix("test:"+uuid.NewString()+":"))
	})

	t.Run("keys are prefixed", func(t *testing.T) {
		s := New(client, WithPrefix("prefixed:"))

		require.NoError(t, s.Set(t.Context(), map[string]string{"access_token": "A"}))

		value, err := client.Get(t.Context(), "prefixed:access_token").Result()
		require.NoError(t, err)
		require.Equal(t, "A", value)
	})

	t.Run("connect to closed port fail", func(t *testing.T) {
		port, err := testutil.RandomPort()
		require.NoError(t, err)

		_, err = Connect(t.Context(), fmt.Sprintf("127.0.0.1:%d", port))
		require.Error(t, err)
	})
}
