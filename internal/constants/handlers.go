// Package constants provides shared constants used across the codebase.
package constants

// File upload constants
const (
	// MaxUploadSize is the maximum multipart body size in bytes (100MB)
	MaxUploadSize = 100 << 20

	// MultipartMemory is how much of a multipart body is kept in memory before spilling to disk
	MultipartMemory = 32 << 20

	// ProfileImageField is the multipart field carrying the reference photo
	ProfileImageField = "profile_image"

	// LiveVideoField is the multipart field carrying the liveness video
	LiveVideoField = "live_video"
)

// Attempt listing constants
const (
	// DefaultAttemptLimit is the default number of attempts returned by the listing endpoint
	DefaultAttemptLimit = 50

	// MaxAttemptLimit caps the listing endpoint page size
	MaxAttemptLimit = 500
)

// Error codes returned to API callers
const (
	ErrorCodeMissingFiles = "MISSING_FILES"
	ErrorCodeNoFrames     = "NO_FRAMES"
	ErrorCodeVerification = "VERIFICATION_ERROR"
	ErrorCodeTooLarge     = "UPLOAD_TOO_LARGE"

	// ErrorCodeMatchEngine replaces match engine error text in responses.
	ErrorCodeMatchEngine = "MATCH_ENGINE_ERROR"
)
