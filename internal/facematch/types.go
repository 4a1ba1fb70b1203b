// Package facematch compares a profile photo against a video frame using the
// face-match engine sidecar.
package facematch

import (
	"errors"

	"github.com/kozaktomas/face-verify/internal/config"
)

// ErrFaceValidation marks a comparison the engine refused because a face could
// not be found or aligned in one of the images.
var ErrFaceValidation = errors.New("face validation failed")

// ValidationError carries the engine's explanation of a validation failure.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "face validation failed: " + e.Detail
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrFaceValidation
}

// Settings selects the model and decision rule used by the engine.
type Settings struct {
	Model           string
	DetectorBackend string
	DistanceMetric  string
	Threshold       float64
}

// SettingsFromConfig builds Settings from the face section of the config.
func SettingsFromConfig(cfg config.FaceConfig) Settings {
	return Settings{
		Model:           cfg.Model,
		DetectorBackend: cfg.DetectorBackend,
		DistanceMetric:  cfg.DistanceMetric,
		Threshold:       cfg.Threshold,
	}
}

// MatchResult is the outcome of one profile/probe comparison.
type MatchResult struct {
	Verified  bool    `json:"verified"`
	Distance  float64 `json:"distance"`
	Threshold float64 `json:"threshold"`
	Model     string  `json:"model"`
	Error     string  `json:"error,omitempty"`
	Message   string  `json:"message,omitempty"`
}
