package verify

import (
	"context"
	"image"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/kozaktomas/face-verify/internal/config"
	"github.com/kozaktomas/face-verify/internal/facematch"
	"github.com/kozaktomas/face-verify/internal/liveness"
	"github.com/kozaktomas/face-verify/internal/video"
)

func f(v float64) *float64 { return &v }

func framesN(n int) []video.Frame {
	frames := make([]video.Frame, n)
	for i := range frames {
		frames[i] = video.Frame{Index: i, Source: i * 10, Image: image.NewRGBA(image.Rect(0, 0, 4, 8))}
	}
	return frames
}

type fakeSampler struct {
	frames []video.Frame
	err    error
	panic  bool
}

func (s *fakeSampler) Sample(_ context.Context, r io.Reader, _ int) ([]video.Frame, error) {
	_, _ = io.Copy(io.Discard, r)
	if s.panic {
		panic("decoder crashed")
	}
	return s.frames, s.err
}

type fakeExtractor struct {
	ratios []*float64
	err    error
}

func (e *fakeExtractor) ExtractAll(_ context.Context, frames []video.Frame) ([]*float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.ratios, nil
}

type fakeMatcher struct {
	result        facematch.MatchResult
	err           error
	calls         int
	probe         image.Image
	profileData   string
	profileExists bool
	block         bool
}

func (m *fakeMatcher) Compare(ctx context.Context, profilePath string, probe image.Image) (facematch.MatchResult, error) {
	m.calls++
	m.probe = probe
	data, err := os.ReadFile(profilePath)
	m.profileExists = err == nil
	m.profileData = string(data)
	if m.block {
		<-ctx.Done()
		return facematch.MatchResult{}, ctx.Err()
	}
	return m.result, m.err
}

func newTestService(t *testing.T, sampler FrameSampler, extractor PoseExtractor, matcher Matcher) (*Service, string) {
	t.Helper()
	cfg := config.Defaults()
	dir := t.TempDir()
	svc := NewService(sampler, extractor, liveness.PolicyFromConfig(cfg.Liveness), matcher, Options{
		NumFrames:      cfg.Video.NumFrames,
		GoodEnoughDiff: cfg.Selection.GoodEnoughDiff,
		MatchTimeout:   cfg.Sidecars.MatchTimeout,
		TempDir:        dir,
		Match:          facematch.SettingsFromConfig(cfg.Face),
	})
	return svc, dir
}

func validRequest() Request {
	return Request{
		ProfileName: "me.png",
		Profile:     strings.NewReader("profile-bytes"),
		VideoName:   "clip.mp4",
		Video:       strings.NewReader("video-bytes"),
	}
}

func assertNoResidualFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read temp dir: %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("expected no residual temp files, found %v", names)
	}
}
