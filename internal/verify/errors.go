package verify

import (
	"github.com/kozaktomas/face-verify/internal/constants"
)

// ClientError is a request the caller must fix before retrying.
type ClientError struct {
	Code    string
	Message string
}

func (e *ClientError) Error() string {
	return e.Message
}

var (
	// ErrMissingFiles is returned when either upload lacks a filename.
	ErrMissingFiles = &ClientError{Code: constants.ErrorCodeMissingFiles, Message: "Missing required files"}

	// ErrNoFrames is returned when no frame could be decoded from the video.
	ErrNoFrames = &ClientError{Code: constants.ErrorCodeNoFrames, Message: "Could not extract frames from video"}
)

// InternalError wraps an unexpected failure. Only IncidentID may be shown to
// the caller; Err stays in the logs.
type InternalError struct {
	IncidentID string
	Err        error
}

func (e *InternalError) Error() string {
	return "internal error " + e.IncidentID + ": " + e.Err.Error()
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
