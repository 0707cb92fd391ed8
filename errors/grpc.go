package errors

import (
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MapToGRPCError converts domain errors to gRPC status errors.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok && !isDomainError(err) {
		return err
	}
	switch {
	case Is(err, ErrRoomNotFound), Is(err, ErrSessionNotFound):
		return status.Error(codes.NotFound, err.Error())
	case Is(err, ErrNotInRoom), Is(err, ErrRoomStillLive):
		return status.Error(codes.FailedPrecondition, err.Error())
	case Is(err, ErrCodeSpaceExhausted):
		return status.Error(codes.ResourceExhausted, err.Error())
	case Is(err, ErrStorageUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case Is(err, ErrInvalidCommand):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// FromGRPCError turns a status error received by a client back into the matching sentinel.
func FromGRPCError(err error) error {
	st, ok := status.FromError(err)
	if !ok || err == nil {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		if strings.HasPrefix(st.Message(), ErrSessionNotFound.Error()) {
			return ErrSessionNotFound
		}
		return ErrRoomNotFound
	case codes.FailedPrecondition:
		if strings.HasPrefix(st.Message(), ErrRoomStillLive.Error()) {
			return ErrRoomStillLive
		}
		return ErrNotInRoom
	case codes.ResourceExhausted:
		return ErrCodeSpaceExhausted
	case codes.Unavailable, codes.DeadlineExceeded:
		return Unavailable(err)
	case codes.InvalidArgument:
		return ErrInvalidCommand
	default:
		return err
	}
}

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrRoomNotFound, ErrNotInRoom, ErrCodeSpaceExhausted, ErrStorageUnavailable,
		ErrInvalidCommand, ErrSessionNotFound, ErrRoomStillLive,
	} {
		if Is(err, target) {
			return true
		}
	}
	return false
}
