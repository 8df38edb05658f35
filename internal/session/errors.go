// Package session implements the per-RPC protocol state machine
// AwaitInit -> Running -> {Succeeded, Faulted, Aborted}.
package session

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AbortReason classifies why a session moved to Aborted, for mapping
// onto an RPC status.
type AbortReason int

const (
	ReasonInvalidArgument AbortReason = iota
	ReasonInternal
	ReasonUnavailable
)

// AbortError is returned by a session's Run* entry point when it ends in
// Aborted rather than Succeeded/Faulted/NeedRecover.
type AbortError struct {
	Reason AbortReason
	Err    error
}

func (e *AbortError) Error() string { return e.Err.Error() }
func (e *AbortError) Unwrap() error { return e.Err }

func abort(reason AbortReason, err error) *AbortError {
	return &AbortError{Reason: reason, Err: err}
}

func abortf(reason AbortReason, format string, args ...any) *AbortError {
	return &AbortError{Reason: reason, Err: fmt.Errorf(format, args...)}
}

// ToStatus converts a session's terminal error into the gRPC status the
// client sees.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	var ae *AbortError
	if errors.As(err, &ae) {
		switch ae.Reason {
		case ReasonInvalidArgument:
			return status.Error(codes.InvalidArgument, ae.Error())
		case ReasonUnavailable:
			return status.Error(codes.Unavailable, ae.Error())
		default:
			return status.Error(codes.Internal, ae.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}
