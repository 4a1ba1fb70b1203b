// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Face mesh landmark indices (MediaPipe FaceMesh topology, refined landmarks)
const (
	// NoseTipLandmark is the index of the nose tip point
	NoseTipLandmark = 1

	// LeftTragionLandmark is the index of the point closest to the left ear tragion
	LeftTragionLandmark = 234

	// RightTragionLandmark is the index of the point closest to the right ear tragion
	RightTragionLandmark = 454
)

// Pose signal constants
const (
	// ExtremeRatio is reported when the nose sits exactly on the right tragion x-coordinate
	ExtremeRatio = 999.0

	// CenteredRatio is the yaw ratio of a subject looking straight into the camera
	CenteredRatio = 1.0

	// DefaultGoodEnoughDiff accepts the first frame whose ratio is this close to CenteredRatio
	DefaultGoodEnoughDiff = 0.15
)

// Verification constants
const (
	// DefaultFailedDistance is the distance reported when no comparison happened or it failed
	DefaultFailedDistance = 1.0

	// DefaultProfileSuffix is used when the profile upload has no usable extension
	DefaultProfileSuffix = ".jpg"

	// FrameJPEGQuality is the quality used when frames are encoded for the sidecars
	FrameJPEGQuality = 95
)
