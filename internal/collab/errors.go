package collab

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors classifying collaborator failures for retry decisions.
var (
	// ErrTransient marks failures worth retrying: timeouts, rate limits,
	// service unavailability.
	ErrTransient = errors.New("transient collaborator failure")
	// ErrPermanent marks failures no retry can fix: the collaborator
	// rejected the request itself.
	ErrPermanent = errors.New("permanent collaborator failure")
)

// Transient reports whether err should be retried.
func Transient(err error) bool {
	if errors.Is(err, ErrTransient) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func transientf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTransient, fmt.Sprintf(format, args...))
}

func permanentf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPermanent, fmt.Sprintf(format, args...))
}
