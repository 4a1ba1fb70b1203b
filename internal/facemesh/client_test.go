package facemesh

import (
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/face-verify/internal/pose"
)

func newLandmarkServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 0.3, 5*time.Second)
}

func TestDetect_Face(t *testing.T) {
	c := newLandmarkServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/landmarks" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.FormValue("min_detection_confidence"); got != "0.3" {
			t.Errorf("expected confidence 0.3, got %q", got)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer f.Close()
		img, err := jpeg.Decode(f)
		if err != nil {
			t.Errorf("frame is not a JPEG: %v", err)
		} else if img.Bounds().Dx() != 6 || img.Bounds().Dy() != 9 {
			t.Errorf("unexpected frame size %v", img.Bounds())
		}

		points := make([]pose.Point, 478)
		points[1] = pose.Point{X: 0.5, Y: 0.5, Z: -0.1}
		_ = json.NewEncoder(w).Encode(map[string]any{"faces_count": 1, "landmarks": points})
	})

	set, err := c.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 6, 9)))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if set == nil {
		t.Fatal("expected landmarks, got nil")
	}
	if len(set.Points) != 478 {
		t.Errorf("expected 478 points, got %d", len(set.Points))
	}
	if set.Points[1].X != 0.5 || set.Points[1].Z != -0.1 {
		t.Errorf("unexpected nose point %+v", set.Points[1])
	}
}

func TestDetect_NoFace(t *testing.T) {
	c := newLandmarkServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"faces_count":0,"landmarks":[]}`))
	})

	set, err := c.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4)))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if set != nil {
		t.Errorf("expected nil set, got %d points", len(set.Points))
	}
}

func TestDetect_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler func(w http.ResponseWriter, r *http.Request)
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"invalid json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newLandmarkServer(t, tt.handler)
			if _, err := c.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4))); err == nil {
				t.Error("expected error")
			}
		})
	}
}
