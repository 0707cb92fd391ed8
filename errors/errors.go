package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrRoomNotFound       = fmt.Errorf("room not found")
	ErrNotInRoom          = fmt.Errorf("session is not bound to a room")
	ErrCodeSpaceExhausted = fmt.Errorf("could not generate a free room code")
	ErrStorageUnavailable = fmt.Errorf("storage unavailable")
	ErrInvalidCommand     = fmt.Errorf("invalid command")
	ErrSessionNotFound    = fmt.Errorf("session not found")
	ErrRoomStillLive      = fmt.Errorf("room is still live")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrRoomExists         = fmt.Errorf("room code already taken")
	ErrCASConflict        = fmt.Errorf("participants changed concurrently")
)

// Is and As are re-exported so callers only import this package.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

func Join(errs ...error) error { return stderrors.Join(errs...) }

// Unavailable wraps a low-level storage failure so that it matches ErrStorageUnavailable.
func Unavailable(err error) error {
	if err == nil || Is(err, ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}
