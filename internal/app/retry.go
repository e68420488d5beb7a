package app

import (
	"context"

	"github.com/neomorfeo/ringside/internal/domain"
)

// RetryOnConflict runs fn and runs it once more if it failed with a
// retryable error. Any other error is returned unchanged.
func RetryOnConflict[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err == nil || !domain.IsRetryable(err) || ctx.Err() != nil {
		return v, err
	}
	return fn(ctx)
}
