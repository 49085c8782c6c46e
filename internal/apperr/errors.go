package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindBadInput          Kind = "bad_input"
	KindMisconfigured     Kind = "misconfigured"
	KindProviderTransient Kind = "provider_transient"
	KindProviderPermanent Kind = "provider_permanent"
	KindUpstream          Kind = "upstream"
	KindUnknown           Kind = "unknown"
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Wrap attaches a kind to err. An error that already carries a kind is
// returned as is.
func Wrap(kind Kind, op, message string, err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Cause:   err,
	}
}

func New(kind Kind, op, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
	}
}

// KindOf returns the kind of the first typed error in the chain.
func KindOf(err error) Kind {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind
	}
	return KindUnknown
}

// IsKind checks whether the first typed error in the chain matches kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Detail renders the client-facing message: the typed message followed by
// its cause, without the kind/op prefix. Transient provider failures only
// carry their fixed message.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var target *Error
	if !errors.As(err, &target) {
		return err.Error()
	}
	switch {
	case target.Kind == KindProviderTransient && target.Message != "":
		return target.Message
	case target.Cause != nil && target.Message != "":
		return target.Message + ": " + target.Cause.Error()
	case target.Cause != nil:
		return target.Cause.Error()
	default:
		return target.Message
	}
}

// HTTPStatus maps an error to the status code returned to clients.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindBadInput:
		return http.StatusBadRequest
	case KindProviderTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
