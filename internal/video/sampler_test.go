package video

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"reflect"
	"strings"
	"testing"
)

// fakeCapture serves solid-colour frames whose red channel encodes the frame index.
type fakeCapture struct {
	total   int
	width   int
	height  int
	broken  map[int]bool
	reads   []int
	closed  bool
	path    string
	visible bool // whether the staged file existed while decoding
}

func (c *fakeCapture) FrameCount() int { return c.total }

func (c *fakeCapture) ReadFrame(index int) (image.Image, error) {
	c.reads = append(c.reads, index)
	if c.broken[index] {
		return nil, errors.New("decode failed")
	}
	img := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(index)
		img.Pix[i+3] = 0xFF
	}
	return img, nil
}

func (c *fakeCapture) Close() error {
	c.closed = true
	return nil
}

type fakeDecoder struct {
	capture *fakeCapture
	err     error
}

func (d *fakeDecoder) Open(path string) (Capture, error) {
	if d.err != nil {
		return nil, d.err
	}
	_, statErr := os.Stat(path)
	d.capture.path = path
	d.capture.visible = statErr == nil
	return d.capture, nil
}

func TestSampleIndices(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		n        int
		expected []int
	}{
		{"typical clip", 100, 4, []int{0, 33, 65, 98}},
		{"rounding to nearest", 12, 4, []int{0, 3, 7, 10}},
		{"single sample", 50, 1, []int{0}},
		{"two frames", 2, 4, []int{0, 0, 0, 0}},
		{"one frame clamps negative end", 1, 3, []int{0, 0, 0}},
		{"empty video", 0, 4, nil},
		{"no samples requested", 10, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SampleIndices(tt.total, tt.n)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("SampleIndices(%d, %d) = %v, want %v", tt.total, tt.n, got, tt.expected)
			}
		})
	}
}

func TestSampleIndices_NeverPicksLastFrame(t *testing.T) {
	for total := 2; total < 200; total++ {
		for _, idx := range SampleIndices(total, 4) {
			if idx >= total-1 {
				t.Fatalf("total=%d: index %d hits the last frame", total, idx)
			}
		}
	}
}

func TestSampler_Sample(t *testing.T) {
	capture := &fakeCapture{total: 100, width: 4, height: 8}
	dir := t.TempDir()
	s := NewSampler(&fakeDecoder{capture: capture}, ".mp4").WithTempDir(dir)

	frames, err := s.Sample(context.Background(), strings.NewReader("video bytes"), 4)
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}

	if len(frames) != 4 {
		t.Fatalf("expected 4 frames, got %d", len(frames))
	}
	if !reflect.DeepEqual(capture.reads, []int{0, 33, 65, 98}) {
		t.Errorf("unexpected seek order %v", capture.reads)
	}
	for i, f := range frames {
		if f.Index != i {
			t.Errorf("frame %d has index %d", i, f.Index)
		}
		if got := f.Image.RGBAAt(0, 0).R; int(got) != f.Source {
			t.Errorf("frame %d carries pixels of source %d, want %d", i, got, f.Source)
		}
	}
	if !capture.visible {
		t.Error("expected staged file to exist while decoding")
	}
	if !capture.closed {
		t.Error("expected capture to be closed")
	}
	if !strings.HasSuffix(capture.path, ".mp4") {
		t.Errorf("expected staged file with .mp4 suffix, got %s", capture.path)
	}
	assertNoResidualFiles(t, dir)
}

func TestSampler_SkipsUndecodableFrames(t *testing.T) {
	capture := &fakeCapture{total: 100, width: 4, height: 8, broken: map[int]bool{33: true}}
	s := NewSampler(&fakeDecoder{capture: capture}, ".mp4").WithTempDir(t.TempDir())

	frames, err := s.Sample(context.Background(), strings.NewReader("video"), 4)
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}

	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	sources := []int{frames[0].Source, frames[1].Source, frames[2].Source}
	if !reflect.DeepEqual(sources, []int{0, 65, 98}) {
		t.Errorf("unexpected sources %v", sources)
	}
	if frames[2].Index != 2 {
		t.Errorf("expected contiguous indices, last frame has %d", frames[2].Index)
	}
}

func TestSampler_UnreadableVideo(t *testing.T) {
	dir := t.TempDir()
	s := NewSampler(&fakeDecoder{err: ErrUnreadable}, ".mp4").WithTempDir(dir)

	frames, err := s.Sample(context.Background(), strings.NewReader("garbage"), 4)
	if err != nil {
		t.Fatalf("expected no error for unreadable video, got %v", err)
	}
	if len(frames) != 0 {
		t.Errorf("expected no frames, got %d", len(frames))
	}
	assertNoResidualFiles(t, dir)
}

func TestSampler_ZeroFrameCount(t *testing.T) {
	dir := t.TempDir()
	capture := &fakeCapture{total: 0}
	s := NewSampler(&fakeDecoder{capture: capture}, ".mp4").WithTempDir(dir)

	frames, err := s.Sample(context.Background(), strings.NewReader("empty"), 4)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(frames) != 0 {
		t.Errorf("expected no frames, got %d", len(frames))
	}
	if len(capture.reads) != 0 {
		t.Errorf("expected no reads, got %v", capture.reads)
	}
	assertNoResidualFiles(t, dir)
}

func TestSampler_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	capture := &fakeCapture{total: 10, width: 2, height: 2}
	s := NewSampler(&fakeDecoder{capture: capture}, ".mp4").WithTempDir(dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Sample(ctx, strings.NewReader("video"), 4)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	assertNoResidualFiles(t, dir)
}

func TestNormalize_RotatesLandscapeClockwise(t *testing.T) {
	// 3x2 landscape image with distinct corner colours.
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	topLeft := color.RGBA{R: 255, A: 255}
	topRight := color.RGBA{G: 255, A: 255}
	bottomLeft := color.RGBA{B: 255, A: 255}
	src.SetRGBA(0, 0, topLeft)
	src.SetRGBA(2, 0, topRight)
	src.SetRGBA(0, 1, bottomLeft)

	dst := Normalize(src)

	if dst.Bounds().Dx() != 2 || dst.Bounds().Dy() != 3 {
		t.Fatalf("expected 2x3 portrait result, got %v", dst.Bounds())
	}
	// Clockwise: top-left -> top-right, top-right -> bottom-right, bottom-left -> top-left.
	if got := dst.RGBAAt(1, 0); got != topLeft {
		t.Errorf("expected top-left pixel at (1,0), got %v", got)
	}
	if got := dst.RGBAAt(1, 2); got != topRight {
		t.Errorf("expected top-right pixel at (1,2), got %v", got)
	}
	if got := dst.RGBAAt(0, 0); got != bottomLeft {
		t.Errorf("expected bottom-left pixel at (0,0), got %v", got)
	}
}

func TestNormalize_KeepsPortrait(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 12, 13))
	marker := color.RGBA{R: 10, G: 20, B: 30, A: 255}
	src.SetRGBA(10, 10, marker)

	dst := Normalize(src)

	if dst.Bounds() != image.Rect(0, 0, 2, 3) {
		t.Fatalf("expected bounds rebased to origin, got %v", dst.Bounds())
	}
	if got := dst.RGBAAt(0, 0); got != marker {
		t.Errorf("expected marker at origin, got %v", got)
	}
}

func TestEncodeJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	data, err := EncodeJPEG(img, 90)
	if err != nil {
		t.Fatalf("EncodeJPEG failed: %v", err)
	}
	if len(data) < 3 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Errorf("expected JPEG SOI marker, got % X", data[:min(len(data), 3)])
	}
}

func assertNoResidualFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected staged video to be removed, found %d files", len(entries))
	}
}
