package didcomm

import (
	"errors"
	"fmt"
)

// The error taxonomy of the message exchange. Errors are wrapped with %w and
// callers test them with errors.Is.
var (
	ErrPreconditionFailed     = errors.New("precondition failed")
	ErrInvalidConnectionState = errors.New("invalid connection state")
	ErrUnsupportedMessageType = errors.New("unsupported message type")
	ErrUnknownProtocol        = errors.New("unknown protocol")
	ErrInvalidMessageType     = errors.New("invalid message type")
	ErrTimeout                = errors.New("timeout")
	ErrVerification           = errors.New("verification failed")
	ErrFutureExists           = errors.New("future already placed")
)

// PreconditionFailed names the missing attachment or context.
func PreconditionFailed(name string) error {
	return fmt.Errorf("%w: no %s", ErrPreconditionFailed, name)
}

func UnsupportedMessageType(t string) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedMessageType, t)
}

func UnknownProtocol(uri string) error {
	return fmt.Errorf("%w: %s", ErrUnknownProtocol, uri)
}

func InvalidMessageType(want, got string) error {
	return fmt.Errorf("%w: want %s, got %s", ErrInvalidMessageType, want, got)
}

// Timeout names the correlation key of the await.
func Timeout(key string) error {
	return fmt.Errorf("%w: awaiting %s", ErrTimeout, key)
}

func Verification(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrVerification, fmt.Sprintf(format, a...))
}
