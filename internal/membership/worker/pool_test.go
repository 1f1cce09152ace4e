package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsSubmittedTasks(t *testing.T) {
	p := NewPool(3, 16, slogx.Discard())
	p.Start()

	var ran atomic.Int32
	for range 10 {
		require.NoError(t, p.Submit(context.Background(), "count", func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}))
	}

	require.NoError(t, p.Stop(context.Background()))
	require.EqualValues(t, 10, ran.Load())
}

func TestPool_TaskOutlivesRequestContext(t *testing.T) {
	p := NewPool(1, 4, slogx.Discard())
	p.Start()
	defer func() { _ = p.Stop(context.Background()) }()

	reqCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	require.NoError(t, p.Submit(reqCtx, "detached", func(ctx context.Context) error {
		time.Sleep(20 * time.Millisecond)
		done <- ctx.Err()
		return nil
	}))
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestPool_QueueFull(t *testing.T) {
	p := NewPool(1, 1, slogx.Discard())

	// Not started: the single slot fills and the next submit is refused.
	require.NoError(t, p.Submit(context.Background(), "a", func(context.Context) error { return nil }))
	require.ErrorIs(t, p.Submit(context.Background(), "b", func(context.Context) error { return nil }), ErrQueueFull)

	p.Start()
	require.NoError(t, p.Stop(context.Background()))
}

func TestPool_SubmitAfterStop(t *testing.T) {
	p := NewPool(1, 1, slogx.Discard())
	p.Start()
	require.NoError(t, p.Stop(context.Background()))
	require.NoError(t, p.Stop(context.Background()))

	err := p.Submit(context.Background(), "late", func(context.Context) error { return nil })
	require.ErrorIs(t, err, ErrStopped)
}

func TestPool_ObserverSeesErrorsAndPanics(t *testing.T) {
	p := NewPool(2, 8, slogx.Discard())

	var (
		mu     sync.Mutex
		failed = map[string]bool{}
	)
	p.Observer = func(name string, err error, _ time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		failed[name] = err != nil
	}
	p.Start()

	boom := errors.New("boom")
	require.NoError(t, p.Submit(context.Background(), "ok", func(context.Context) error { return nil }))
	require.NoError(t, p.Submit(context.Background(), "err", func(context.Context) error { return boom }))
	require.NoError(t, p.Submit(context.Background(), "panic", func(context.Context) error { panic("oops") }))
	require.NoError(t, p.Stop(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, map[string]bool{"ok": false, "err": true, "panic": true}, failed)
}

func TestPool_TaskTimeout(t *testing.T) {
	p := NewPool(1, 1, slogx.Discard())
	p.TaskTimeout = 10 * time.Millisecond
	p.Start()

	done := make(chan error, 1)
	require.NoError(t, p.Submit(context.Background(), "slow", func(ctx context.Context) error {
		<-ctx.Done()
		done <- ctx.Err()
		return ctx.Err()
	}))
	require.NoError(t, p.Stop(context.Background()))
	require.ErrorIs(t, <-done, context.DeadlineExceeded)
}
