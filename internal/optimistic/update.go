package optimistic

import (
	"context"
)

// Update is one optimistic write: Apply sets the new state right away,
// Confirm asks the marketplace in the background and Rollback restores the
// previous state when Confirm returns Err.
type Update[S any, T any] struct {
	Apply    func(ctx context.Context) (previous S, err error)
	Confirm  func(ctx context.Context) Result[T]
	Rollback func(ctx context.Context, previous S) error
	// Settled observes the final result; it runs after any rollback.
	Settled func(ctx context.Context, result Result[T], rollbackErr error)
}

// Run applies the update, then confirms it on a goroutine detached from
// ctx cancellation. The returned channel yields the confirmation result once.
func Run[S any, T any](ctx context.Context, u Update[S, T]) (<-chan Result[T], error) {
	previous, err := u.Apply(ctx)
	if err != nil {
		return nil, err
	}
	done := make(chan Result[T], 1)
	bg := context.WithoutCancel(ctx)
	go func() {
		result := u.Confirm(bg)
		var rollbackErr error
		if !result.IsOk() && u.Rollback != nil {
			rollbackErr = u.Rollback(bg, previous)
		}
		if u.Settled != nil {
			u.Settled(bg, result, rollbackErr)
		}
		done <- result
		close(done)
	}()
	return done, nil
}
