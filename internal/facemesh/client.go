// Package facemesh talks to the face-mesh landmark sidecar.
package facemesh

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"strconv"
	"time"

	"github.com/kozaktomas/face-verify/internal/constants"
	"github.com/kozaktomas/face-verify/internal/pose"
	"github.com/kozaktomas/face-verify/internal/sidecar"
	"github.com/kozaktomas/face-verify/internal/video"
)

// Client detects face landmarks using the landmark sidecar.
type Client struct {
	http       *sidecar.Client
	confidence float64
}

// NewClient creates a landmark client. confidence is the minimum detection
// confidence forwarded to the detector.
func NewClient(baseURL string, confidence float64, timeout time.Duration) *Client {
	return &Client{
		http:       sidecar.NewClient(baseURL, timeout),
		confidence: confidence,
	}
}

// landmarksResponse represents the response from the landmark endpoint
type landmarksResponse struct {
	FacesCount int          `json:"faces_count"`
	Landmarks  []pose.Point `json:"landmarks"`
}

// Detect returns the landmarks of the first face in img, or nil when the
// sidecar found no face.
func (c *Client) Detect(ctx context.Context, img image.Image) (*pose.LandmarkSet, error) {
	data, err := video.EncodeJPEG(img, constants.FrameJPEGQuality)
	if err != nil {
		return nil, err
	}

	body, err := c.http.PostMultipart(ctx, "/landmarks",
		[]sidecar.ImagePart{{Field: "file", Filename: "frame.jpg", Data: data}},
		map[string]string{"min_detection_confidence": strconv.FormatFloat(c.confidence, 'f', -1, 64)},
	)
	if err != nil {
		return nil, fmt.Errorf("landmark request: %w", err)
	}

	var resp landmarksResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.FacesCount == 0 || len(resp.Landmarks) == 0 {
		return nil, nil
	}
	return &pose.LandmarkSet{Points: resp.Landmarks}, nil
}

var _ pose.LandmarkDetector = (*Client)(nil)
