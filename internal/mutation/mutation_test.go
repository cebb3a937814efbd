package mutation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devSoft1007/netraAI-sub000/internal/notify"
	"github.com/devSoft1007/netraAI-sub000/internal/querycache"
)

func TestDoRunsSuccessHook(t *testing.T) {
	var got string
	e := NewExecutor(func(ctx context.Context, in string) (string, error) {
		return in + "-done", nil
	}, Hooks[string]{OnSuccess: func(out string) { got = out }})

	out, err := e.Do(context.Background(), "save")
	require.NoError(t, err)
	require.Equal(t, "save-done", out)
	require.Equal(t, "save-done", got)
	require.False(t, e.Pending())
}

func TestDoRunsErrorHookAndPropagates(t *testing.T) {
	boom := errors.New("409: already exists")
	var hooked error
	e := NewExecutor(func(ctx context.Context, in int) (int, error) {
		return 0, boom
	}, Hooks[int]{OnError: func(err error) { hooked = err }})

	_, err := e.Do(context.Background(), 1)
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, hooked, boom)
}

func TestPendingSpansTheCall(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	e := NewExecutor(func(ctx context.Context, in struct{}) (struct{}, error) {
		close(started)
		<-release
		return struct{}{}, nil
	}, Hooks[struct{}]{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = e.Do(context.Background(), struct{}{})
	}()

	<-started
	require.True(t, e.Pending(), "pending must be true while in flight")
	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("mutation did not settle")
	}
	require.False(t, e.Pending(), "pending must reset after settlement")
}

func TestInvalidateHooks(t *testing.T) {
	cache := querycache.NewClient(querycache.Options{})
	defer cache.Close()
	rec := notify.NewRecorder()

	listKey := querycache.NewKey("payments", map[string]any{"page": 1})
	_, err := cache.Fetch(context.Background(), listKey, func(ctx context.Context) (any, error) {
		return "rows", nil
	}, querycache.QueryOptions{})
	require.NoError(t, err)

	hooks := InvalidateHooks[string](cache, rec, "Payment added", "payments")
	e := NewExecutor(func(ctx context.Context, in string) (string, error) {
		return "pay_1", nil
	}, hooks)

	_, err = e.Do(context.Background(), "input")
	require.NoError(t, err)

	entry, ok := cache.Get(listKey)
	require.True(t, ok)
	require.True(t, entry.Stale, "success must invalidate the resource keys")
	require.Equal(t, []string{"Payment added"}, rec.Successes())
}

func TestInvalidateHooksFailureNotification(t *testing.T) {
	cache := querycache.NewClient(querycache.Options{})
	defer cache.Close()
	rec := notify.NewRecorder()

	hooks := InvalidateHooks[string](cache, rec, "never shown", "payments")
	e := NewExecutor(func(ctx context.Context, in string) (string, error) {
		return "", errors.New("500: Internal error")
	}, hooks)

	_, err := e.Do(context.Background(), "input")
	require.Error(t, err)
	require.Empty(t, rec.Successes())
	require.Equal(t, []string{"500: Internal error"}, rec.Failures())
}
