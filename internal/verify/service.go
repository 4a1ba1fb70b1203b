// Package verify runs the identity verification pipeline: frame sampling,
// liveness, frame selection and face matching.
package verify

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-verify/internal/constants"
	"github.com/kozaktomas/face-verify/internal/database"
	"github.com/kozaktomas/face-verify/internal/facematch"
	"github.com/kozaktomas/face-verify/internal/liveness"
	"github.com/kozaktomas/face-verify/internal/staging"
	"github.com/kozaktomas/face-verify/internal/video"
)

// Match result messages.
const (
	MessageLivenessFailed   = "Liveness check failed"
	MessageFaceValidation   = "Face validation failed. Ensure face is clear and visible."
	MessageVerificationFail = "Verification service error"
)

// Status is the overall verdict of a request.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
)

// StatusOf derives the status of a completed request.
func StatusOf(livenessPassed, verified bool) Status {
	if livenessPassed && verified {
		return StatusSuccess
	}
	return StatusFailed
}

// Outcome is the response of a completed verification.
type Outcome struct {
	Status       Status                `json:"status"`
	Liveness     liveness.Verdict      `json:"liveness"`
	Verification facematch.MatchResult `json:"verification"`
}

// Request carries the two uploads. Names are the client-supplied filenames.
type Request struct {
	ProfileName string
	Profile     io.Reader
	VideoName   string
	Video       io.Reader
}

// FrameSampler extracts frames from a video stream.
type FrameSampler interface {
	Sample(ctx context.Context, r io.Reader, n int) ([]video.Frame, error)
}

// PoseExtractor computes one optional yaw ratio per frame, in frame order.
type PoseExtractor interface {
	ExtractAll(ctx context.Context, frames []video.Frame) ([]*float64, error)
}

// Matcher compares the profile image at profilePath with a probe frame.
type Matcher interface {
	Compare(ctx context.Context, profilePath string, probe image.Image) (facematch.MatchResult, error)
}

// Options tunes the pipeline.
type Options struct {
	NumFrames      int
	GoodEnoughDiff float64
	MatchTimeout   time.Duration
	TempDir        string
	Match          facematch.Settings
}

// Service orchestrates a verification request.
type Service struct {
	sampler   FrameSampler
	extractor PoseExtractor
	policy    liveness.Policy
	matcher   Matcher
	opts      Options
	recorder  database.AttemptWriter
}

// NewService wires the pipeline stages together.
func NewService(sampler FrameSampler, extractor PoseExtractor, policy liveness.Policy, matcher Matcher, opts Options) *Service {
	return &Service{
		sampler:   sampler,
		extractor: extractor,
		policy:    policy,
		matcher:   matcher,
		opts:      opts,
	}
}

// WithRecorder enables the attempt audit log.
func (s *Service) WithRecorder(w database.AttemptWriter) *Service {
	s.recorder = w
	return s
}

// Verify runs the pipeline. A *ClientError means the request was invalid, an
// *InternalError that processing failed unexpectedly. Policy failures are
// reported through Outcome.Status with a nil error.
func (s *Service) Verify(ctx context.Context, req Request) (out Outcome, err error) {
	if req.ProfileName == "" || req.VideoName == "" || req.Profile == nil || req.Video == nil {
		return Outcome{}, ErrMissingFiles
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("verify: recovered panic", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			out, err = Outcome{}, s.internal(ctx, fmt.Errorf("panic: %v", r))
		}
	}()

	profile, err := staging.Stage(s.opts.TempDir, req.Profile, profileSuffix(req.ProfileName))
	if err != nil {
		return Outcome{}, s.internal(ctx, fmt.Errorf("staging profile image: %w", err))
	}
	defer profile.Release()
	slog.Info("verify: processing profile image", "filename", req.ProfileName, "bytes", profile.Size())

	frames, err := s.sampler.Sample(ctx, req.Video, s.opts.NumFrames)
	if err != nil {
		return Outcome{}, s.internal(ctx, fmt.Errorf("sampling video: %w", err))
	}
	if len(frames) == 0 {
		slog.Error("verify: could not extract frames from video", "filename", req.VideoName)
		return Outcome{}, ErrNoFrames
	}
	slog.Info("verify: extracted frames", "count", len(frames))

	ratios, err := s.extractor.ExtractAll(ctx, frames)
	if err != nil {
		return Outcome{}, s.internal(ctx, fmt.Errorf("extracting pose: %w", err))
	}

	verdict := s.policy.Evaluate(ratios)
	if !verdict.Passed {
		slog.Warn("verify: liveness check failed", "message", verdict.Message)
		out = Outcome{
			Status:   StatusFailed,
			Liveness: verdict,
			Verification: facematch.MatchResult{
				Verified:  false,
				Distance:  constants.DefaultFailedDistance,
				Threshold: s.opts.Match.Threshold,
				Model:     s.opts.Match.Model,
				Message:   MessageLivenessFailed,
			},
		}
		s.record(ctx, out, "", "")
		return out, nil
	}

	best := SelectFrame(frames, ratios, s.opts.GoodEnoughDiff)
	slog.Info("verify: performing face verification", "frame", best.Index, "source", best.Source)

	match, err := s.compare(ctx, profile.Path(), best)
	if err != nil {
		return Outcome{}, s.internal(ctx, err)
	}

	out = Outcome{
		Status:       StatusOf(verdict.Passed, match.Verified),
		Liveness:     verdict,
		Verification: match,
	}
	slog.Info("verify: completed", "status", out.Status)
	s.record(ctx, out, "", "")
	return out, nil
}

// compare calls the matcher and folds expected engine failures into an
// unverified result. Only timeouts and cancellation are returned as errors.
func (s *Service) compare(ctx context.Context, profilePath string, frame video.Frame) (facematch.MatchResult, error) {
	if s.opts.MatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.MatchTimeout)
		defer cancel()
	}

	match, err := s.matcher.Compare(ctx, profilePath, frame.Image)
	if err == nil {
		return match, nil
	}

	// Engine errors can carry sidecar URLs and tracebacks. Only the
	// validation detail is meant for the caller.
	failed := facematch.MatchResult{
		Verified:  false,
		Distance:  constants.DefaultFailedDistance,
		Threshold: s.opts.Match.Threshold,
		Model:     s.opts.Match.Model,
	}
	var validation *facematch.ValidationError
	switch {
	case isTimeout(err) || errors.Is(err, context.Canceled):
		return facematch.MatchResult{}, fmt.Errorf("face match: %w", err)
	case errors.As(err, &validation):
		slog.Error("verify: face validation error", "error", err)
		failed.Error = validation.Detail
		failed.Message = MessageFaceValidation
	case errors.Is(err, facematch.ErrFaceValidation):
		slog.Error("verify: face validation error", "error", err)
		failed.Error = facematch.ErrFaceValidation.Error()
		failed.Message = MessageFaceValidation
	default:
		slog.Error("verify: unexpected verification error", "error", err)
		failed.Error = constants.ErrorCodeMatchEngine
		failed.Message = MessageVerificationFail
	}
	return failed, nil
}

func (s *Service) internal(ctx context.Context, err error) *InternalError {
	ie := &InternalError{IncidentID: uuid.NewString(), Err: err}
	slog.Error("verify: verification error", "incident_id", ie.IncidentID, "error", err)
	s.record(ctx, Outcome{Status: StatusError}, ie.IncidentID, constants.ErrorCodeVerification)
	return ie
}

// record writes out to the audit log. An empty id lets the store assign one.
func (s *Service) record(ctx context.Context, out Outcome, id, errorCode string) {
	if s.recorder == nil {
		return
	}

	a := &database.Attempt{
		ID:              id,
		Status:          string(out.Status),
		LivenessPassed:  out.Liveness.Passed,
		LivenessMessage: out.Liveness.Message,
		MinRatio:        out.Liveness.Details.MinRatio,
		MaxRatio:        out.Liveness.Details.MaxRatio,
		Ratios:          out.Liveness.Details.Ratios,
		Verified:        out.Verification.Verified,
		Model:           out.Verification.Model,
		ErrorCode:       errorCode,
	}
	if out.Status != StatusError {
		distance, threshold := out.Verification.Distance, out.Verification.Threshold
		a.Distance, a.Threshold = &distance, &threshold
	}

	if err := s.recorder.SaveAttempt(context.WithoutCancel(ctx), a); err != nil {
		slog.Warn("verify: recording attempt failed", "error", err)
	}
}

func profileSuffix(name string) string {
	if ext := filepath.Ext(filepath.Base(name)); ext != "" {
		return ext
	}
	return constants.DefaultProfileSuffix
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
