package moodle

import "github.com/pkg/errors"

var (
	// ErrMissingCredential is returned before any network activity is
	// attempted when no session token is available.
	ErrMissingCredential = errors.New("missing session token")

	// ErrEmptyUpload is returned when the upload endpoint replies without
	// an error marker but also without any file descriptor. It is kept
	// distinct from FaultError so the two cases can be told apart in logs.
	ErrEmptyUpload = errors.New("upload returned no file descriptor")
)

// FaultError is an error explicitly reported by the remote service's
// response payload, as opposed to a transport-level failure.
type FaultError struct {
	Code    string
	Message string
}

func (e *FaultError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "moodle reported an error"
}

// TransportError wraps a network, timeout or malformed-response failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "moodle request failed: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }
