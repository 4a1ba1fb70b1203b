package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"

	"github.com/kozaktomas/face-verify/internal/staging"
)

// ErrUnreadable is returned by a Decoder when the container can't be opened.
var ErrUnreadable = errors.New("video could not be opened")

// Capture is an opened video container that supports random access by frame index.
type Capture interface {
	// FrameCount reports the total number of frames declared by the container.
	FrameCount() int
	// ReadFrame seeks to index and decodes one frame. The returned image must
	// already be in RGB(A) channel order.
	ReadFrame(index int) (image.Image, error)
	Close() error
}

// Decoder opens staged video files.
type Decoder interface {
	Open(path string) (Capture, error)
}

// Sampler extracts evenly spaced frames from uploaded videos.
type Sampler struct {
	decoder    Decoder
	tempDir    string
	tempSuffix string
}

// NewSampler creates a sampler staging uploads with the given file suffix.
func NewSampler(decoder Decoder, tempSuffix string) *Sampler {
	return &Sampler{
		decoder:    decoder,
		tempSuffix: tempSuffix,
	}
}

// WithTempDir overrides where uploads are staged before decoding.
func (s *Sampler) WithTempDir(dir string) *Sampler {
	s.tempDir = dir
	return s
}

// SampleIndices returns n frame indices spread linearly over [0, total-2],
// rounded to the nearest integer. The last frame is never chosen because many
// containers report one more frame than they can actually decode.
func SampleIndices(total, n int) []int {
	if total <= 0 || n <= 0 {
		return nil
	}

	end := float64(total - 2)
	indices := make([]int, n)
	for i := range n {
		var pos float64
		if n > 1 {
			pos = end * float64(i) / float64(n-1)
		}
		idx := int(math.Round(pos))
		indices[i] = min(max(idx, 0), total-1)
	}
	return indices
}

// Sample stages r, decodes it and returns up to n frames in sampling order.
// An unreadable or empty video yields an empty slice and no error; frames that
// fail to decode are skipped. Errors are reserved for staging failures and
// context cancellation.
func (s *Sampler) Sample(ctx context.Context, r io.Reader, n int) ([]Frame, error) {
	staged, err := staging.Stage(s.tempDir, r, s.tempSuffix)
	if err != nil {
		return nil, fmt.Errorf("staging video: %w", err)
	}
	defer staged.Release()

	capture, err := s.decoder.Open(staged.Path())
	if err != nil {
		slog.Error("sampler: could not open video file", "error", err)
		return nil, nil
	}
	defer func() {
		if err := capture.Close(); err != nil {
			slog.Warn("sampler: closing capture failed", "error", err)
		}
	}()

	total := capture.FrameCount()
	if total <= 0 {
		slog.Error("sampler: video has no frames or is unreadable", "frame_count", total)
		return nil, nil
	}

	var frames []Frame
	for _, idx := range SampleIndices(total, n) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := capture.ReadFrame(idx)
		if err != nil || img == nil {
			slog.Debug("sampler: skipping undecodable frame", "index", idx, "error", err)
			continue
		}

		frames = append(frames, Frame{
			Index:  len(frames),
			Source: idx,
			Image:  Normalize(img),
		})
	}

	slog.Info("sampler: extracted frames", "count", len(frames), "requested", n, "total", total)
	return frames, nil
}
