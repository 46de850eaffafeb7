package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/targetkit/targetkit/pkg/async"
)

func TestExecReturnsValue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := async.Exec(ctx, 21, func(ctx context.Context, n int) (int, error) {
		return n * 2, nil
	})

	v, err := f.Await()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestExecReturnsError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	boom := errors.New("boom")

	f := async.Exec(ctx, "x", func(ctx context.Context, s string) (string, error) {
		return "", boom
	})

	_, err := f.Await()
	assert.ErrorIs(t, err, boom)
}

func TestExecPreCanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	f := async.Exec(ctx, 0, func(ctx context.Context, _ int) (int, error) {
		ran = true
		return 1, nil
	})

	_, err := f.Await()
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran, "function must not run with a pre-canceled context")
}

func TestAwaitWithTimeout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	slow := async.Exec(ctx, 0, func(ctx context.Context, _ int) (int, error) {
		time.Sleep(200 * time.Millisecond)
		return 1, nil
	})

	_, err := slow.AwaitWithTimeout(10 * time.Millisecond)
	assert.ErrorIs(t, err, async.ErrTimeout)

	v, err := slow.AwaitWithTimeout(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestIsComplete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	release := make(chan struct{})
	f := async.Exec(ctx, 0, func(ctx context.Context, _ int) (int, error) {
		<-release
		return 1, nil
	})

	assert.False(t, f.IsComplete())
	close(release)

	_, err := f.Await()
	require.NoError(t, err)
	assert.True(t, f.IsComplete())
}

func TestAwaitIsRepeatable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := async.Exec(ctx, 7, func(ctx context.Context, n int) (int, error) {
		return n, nil
	})

	for range 3 {
		v, err := f.Await()
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	}
}
