package mutation

import (
	"context"
	"sync/atomic"

	"github.com/devSoft1007/netraAI-sub000/internal/notify"
	"github.com/devSoft1007/netraAI-sub000/internal/querycache"
)

// Func performs a write against an edge function and returns the parsed
// result. It must only return nil error after the server accepted the
// write.
type Func[In, Out any] func(ctx context.Context, in In) (Out, error)

// Hooks run on settlement of a mutation.
type Hooks[Out any] struct {
	// OnSuccess conventionally invalidates affected cache keys and
	// surfaces a success notification.
	OnSuccess func(Out)
	// OnError conventionally surfaces a failure notification carrying the
	// error message. No automatic retry happens at this layer.
	OnError func(error)
}

// Executor runs a write operation with success/failure hooks. Pending is
// true exactly between invocation and settlement; callers disable their
// submit affordances on it, which is the only double-submission guard at
// this layer.
type Executor[In, Out any] struct {
	fn      Func[In, Out]
	hooks   Hooks[Out]
	pending atomic.Bool
}

// NewExecutor creates a mutation executor.
func NewExecutor[In, Out any](fn Func[In, Out], hooks Hooks[Out]) *Executor[In, Out] {
	return &Executor[In, Out]{fn: fn, hooks: hooks}
}

// Do runs the mutation. Hooks fire before Do returns.
func (e *Executor[In, Out]) Do(ctx context.Context, in In) (Out, error) {
	e.pending.Store(true)
	defer e.pending.Store(false)

	out, err := e.fn(ctx, in)
	if err != nil {
		if e.hooks.OnError != nil {
			e.hooks.OnError(err)
		}
		var zero Out
		return zero, err
	}
	if e.hooks.OnSuccess != nil {
		e.hooks.OnSuccess(out)
	}
	return out, nil
}

// Pending reports whether a mutation is in flight.
func (e *Executor[In, Out]) Pending() bool {
	return e.pending.Load()
}

// InvalidateHooks builds the conventional hook pair: on success invalidate
// every listed resource (all filter variants) and surface successMsg; on
// error surface the error message.
func InvalidateHooks[Out any](cache *querycache.Client, notifier notify.Notifier, successMsg string, resources ...string) Hooks[Out] {
	return Hooks[Out]{
		OnSuccess: func(Out) {
			for _, r := range resources {
				cache.InvalidateResource(r)
			}
			if notifier != nil && successMsg != "" {
				notifier.Success(successMsg)
			}
		},
		OnError: func(err error) {
			if notifier != nil {
				notifier.Failure(err.Error())
			}
		},
	}
}
