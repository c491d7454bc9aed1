package models

import (
	"errors"
	"fmt"
)

// Domain specific errors for authentication, authorization and upstream calls.
var (
	ErrUnauthenticated = errors.New("authentication required or invalid token")
	ErrForbidden       = errors.New("action forbidden for this role")
	ErrRequestFailed   = errors.New("upstream request failed")
	ErrTransport       = errors.New("upstream unreachable")
	ErrNotFound        = errors.New("requested item not found")
	ErrBadRequest      = errors.New("bad request")
	ErrPaymentPending  = errors.New("a payment is already in progress")
	ErrNothingToPay    = errors.New("no outstanding balance to pay")
)

// UpstreamError carries the status and message body of a non-2xx upstream
// response so handlers can surface the backend's message verbatim.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("upstream returned %d", e.Status)
}

func (e *UpstreamError) Unwrap() error { return ErrRequestFailed }

// UpstreamMessage extracts the backend-provided message from err, or returns
// fallback when none is available.
func UpstreamMessage(err error, fallback string) string {
	var ue *UpstreamError
	if errors.As(err, &ue) && ue.Message != "" {
		return ue.Message
	}
	return fallback
}
