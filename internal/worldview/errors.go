package worldview

import "errors"

var (
	// ErrNotFound is returned when no location, weather or country record matches.
	ErrNotFound = errors.New("not found")
	// ErrTransport covers network failures and malformed or unexpected upstream responses.
	ErrTransport = errors.New("transport error")
	// ErrPermissionDenied is returned when the host refuses access to device geolocation.
	ErrPermissionDenied = errors.New("geolocation permission denied")
	// ErrUnsupported is returned when the host has no geolocation capability.
	ErrUnsupported = errors.New("geolocation unsupported")
	// ErrInvalidInput is returned for an empty city name.
	ErrInvalidInput = errors.New("invalid input")
)

// FailureKind names the class of a failed pipeline run.
type FailureKind string

const (
	KindNotFound         FailureKind = "not_found"
	KindTransport        FailureKind = "transport"
	KindPermissionDenied FailureKind = "permission_denied"
	KindUnsupported      FailureKind = "unsupported"
	KindInvalidInput     FailureKind = "invalid_input"
)

// KindOf classifies err. Anything outside the taxonomy counts as a transport failure.
func KindOf(err error) FailureKind {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrUnsupported):
		return KindUnsupported
	default:
		return KindTransport
	}
}
