package async

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned by AwaitWithTimeout when the future does not
// complete within the given duration. The underlying goroutine keeps
// running; only the wait is abandoned.
var ErrTimeout = errors.New("async: await timed out")

// Future represents the result of an asynchronous computation producing
// a value of type T or an error.
type Future[T any] struct {
	value T
	err   error
	done  chan struct{}
}

// Await blocks until the computation completes and returns its result.
// Await may be called from multiple goroutines and any number of times;
// every call returns the same value and error.
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.value, f.err
}

// AwaitWithTimeout waits for completion for at most timeout. If the
// future completes in time its result is returned, otherwise ErrTimeout.
func (f *Future[T]) AwaitWithTimeout(timeout time.Duration) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-time.After(timeout):
		var zero T
		return zero, ErrTimeout
	}
}

// IsComplete reports whether the computation has finished, without blocking.
func (f *Future[T]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Exec runs fn(ctx, param) in its own goroutine and returns a Future for
// its result. If ctx is already canceled the function is never invoked
// and the future completes with the context's error.
func Exec[P, T any](ctx context.Context, param P, fn func(context.Context, P) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		select {
		case <-ctx.Done():
			f.err = ctx.Err()
			return
		default:
		}

		f.value, f.err = fn(ctx, param)
	}()

	return f
}
