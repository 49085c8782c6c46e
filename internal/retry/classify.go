package retry

import (
	"errors"
	"strings"
)

// Class tells the caller whether a failure is worth retrying.
type Class int

const (
	Permanent Class = iota
	Transient
)

func (c Class) String() string {
	if c == Transient {
		return "transient"
	}
	return "permanent"
}

// transientMarkers are matched case-insensitively against the error text.
// Provider SDKs do not agree on typed errors for overload, so the message is
// the only signal shared by all of them.
var transientMarkers = []string{
	"503",
	"overloaded",
	"unavailable",
	"rate",
	"quota",
	"capacity",
}

// Classifier maps a failure to a Class.
type Classifier func(err error) Class

// Classify is the default Classifier. Exhausted retries keep their
// transient class regardless of the wrapped text.
func Classify(err error) Class {
	if err == nil {
		return Permanent
	}

	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		return Transient
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return Transient
		}
	}
	return Permanent
}

// IsTransient reports whether Classify considers err transient.
func IsTransient(err error) bool {
	return Classify(err) == Transient
}
