package storage

import (
	"context"
	"huddle/errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// bounded runs fn on its own goroutine and stops waiting once ctx or timeout expires.
// Badger transactions cannot be interrupted, so a late fn may still commit:
// callers must treat a timeout as an unknown outcome.
func bounded[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return zero, errors.Unavailable(err)
	}

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return zero, errors.Unavailable(ctx.Err())
	}
}

// boundedErr is bounded for operations without a result.
func boundedErr(ctx context.Context, timeout time.Duration, fn func() error) error {
	_, err := bounded(ctx, timeout, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// mapError keeps domain sentinels and turns any other Badger failure into ErrStorageUnavailable.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errors.ErrRoomNotFound),
		errors.Is(err, errors.ErrRoomExists),
		errors.Is(err, errors.ErrCASConflict),
		errors.Is(err, errors.ErrRoomStillLive),
		errors.Is(err, errors.ErrStorageUnavailable):
		return err
	case errors.Is(err, badger.ErrConflict):
		return err
	default:
		return errors.Unavailable(err)
	}
}
