package gitlab

import "context"

// Result carries the outcome of an asynchronous call. Exactly one of Value
// and Err is meaningful: Err is nil on success.
type Result[T any] struct {
	Value T
	Err   error
}

// Go runs fn in its own goroutine and delivers its outcome on the returned
// channel. Exactly one Result is sent, after which the channel is closed.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) <-chan Result[T] {
	results := make(chan Result[T], 1)

	go func() {
		defer close(results)

		value, err := fn(ctx)
		if err != nil {
			var zero T

			results <- Result[T]{Value: zero, Err: err}

			return
		}

		results <- Result[T]{Value: value}
	}()

	return results
}

// Wait blocks until the result arrives or ctx is done.
func Wait[T any](ctx context.Context, results <-chan Result[T]) (T, error) {
	select {
	case result := <-results:
		return result.Value, result.Err
	case <-ctx.Done():
		var zero T

		return zero, ctx.Err()
	}
}
