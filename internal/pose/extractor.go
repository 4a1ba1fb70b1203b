package pose

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/kozaktomas/face-verify/internal/video"
)

// Extractor computes per-frame yaw ratios through a LandmarkDetector.
type Extractor struct {
	detector LandmarkDetector
	workers  int
}

// NewExtractor creates an extractor evaluating up to workers frames at once.
func NewExtractor(detector LandmarkDetector, workers int) *Extractor {
	if workers < 1 {
		workers = 1
	}
	return &Extractor{detector: detector, workers: workers}
}

// Ratio returns the yaw ratio of frame, or nil when no usable face geometry was
// found. It never fails: detector errors and panics are logged and become nil.
func (e *Extractor) Ratio(ctx context.Context, frame video.Frame) (ratio *float64) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("pose: landmark extraction panicked", "frame", frame.Index, "panic", fmt.Sprint(r))
			ratio = nil
		}
	}()

	if frame.Image == nil {
		return nil
	}

	set, err := e.detector.Detect(ctx, frame.Image)
	if err != nil {
		slog.Warn("pose: landmark detection failed", "frame", frame.Index, "error", err)
		return nil
	}
	if set == nil {
		slog.Debug("pose: no face found", "frame", frame.Index)
		return nil
	}

	r, err := YawRatio(set, frame.Width())
	if err != nil {
		slog.Warn("pose: unusable landmark geometry", "frame", frame.Index, "error", err)
		return nil
	}
	slog.Debug("pose: frame ratio", "frame", frame.Index, "ratio", r)
	return &r
}

// ExtractAll computes the ratio of every frame concurrently. The result is
// aligned with frames: ratios[i] belongs to frames[i].
func (e *Extractor) ExtractAll(ctx context.Context, frames []video.Frame) ([]*float64, error) {
	ratios := make([]*float64, len(frames))

	g := new(errgroup.Group)
	g.SetLimit(e.workers)
	for i, frame := range frames {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ratios[i] = e.Ratio(ctx, frame)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ratios, nil
}
