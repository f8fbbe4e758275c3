package syncq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueuePushLoadDrop(t *testing.T) {
	q, err := Open(t.TempDir())
	require.NoError(t, err)

	cmds, err := q.Load()
	require.NoError(t, err)
	require.Empty(t, cmds)

	require.NoError(t, q.Push(Command{Method: "POST", Path: "/v1/pause", IdempotencyKey: "a"}))
	require.NoError(t, q.Push(Command{Method: "POST", Path: "/v1/speed", Body: map[string]any{"speed": 2.0}, IdempotencyKey: "b"}))
	require.NoError(t, q.Push(Command{Method: "POST", Path: "/v1/resume", IdempotencyKey: "c"}))

	cmds, err = q.Load()
	require.NoError(t, err)
	require.Len(t, cmds, 3)
	require.Equal(t, 2.0, cmds[1].Body["speed"])

	require.NoError(t, q.Drop(map[string]bool{"a": true, "c": true}))
	cmds, err = q.Load()
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	require.Equal(t, "b", cmds[0].IdempotencyKey)
}

func TestDefaultDirHonoursEnv(t *testing.T) {
	t.Setenv("DLR_HOME", "/tmp/dlr-test")
	dir, err := DefaultDir()
	require.NoError(t, err)
	require.Equal(t, "/tmp/dlr-test", dir)
}
