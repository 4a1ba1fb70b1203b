package facematch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kozaktomas/face-verify/internal/constants"
	"github.com/kozaktomas/face-verify/internal/sidecar"
	"github.com/kozaktomas/face-verify/internal/video"
)

// Client calls the face-match engine.
type Client struct {
	http     *sidecar.Client
	settings Settings
}

// NewClient creates a match engine client. Each comparison is bounded by timeout.
func NewClient(baseURL string, settings Settings, timeout time.Duration) *Client {
	return &Client{
		http:     sidecar.NewClient(baseURL, timeout),
		settings: settings,
	}
}

// verifyResponse represents the response from the verify endpoint
type verifyResponse struct {
	Verified  bool     `json:"verified"`
	Distance  float64  `json:"distance"`
	Threshold *float64 `json:"threshold"`
}

// errorResponse is the FastAPI style error body
type errorResponse struct {
	Detail string `json:"detail"`
}

// Compare matches the profile image stored at profilePath against probe. A
// face the engine cannot validate yields an error matching ErrFaceValidation.
func (c *Client) Compare(ctx context.Context, profilePath string, probe image.Image) (MatchResult, error) {
	profile, err := os.ReadFile(profilePath)
	if err != nil {
		return MatchResult{}, fmt.Errorf("reading profile image: %w", err)
	}

	frame, err := video.EncodeJPEG(probe, constants.FrameJPEGQuality)
	if err != nil {
		return MatchResult{}, err
	}

	body, err := c.http.PostMultipart(ctx, "/verify",
		[]sidecar.ImagePart{
			{Field: "img1", Filename: filepath.Base(profilePath), Data: profile},
			{Field: "img2", Filename: "frame.jpg", Data: frame},
		},
		map[string]string{
			"model_name":        c.settings.Model,
			"detector_backend":  c.settings.DetectorBackend,
			"distance_metric":   c.settings.DistanceMetric,
			"threshold":         strconv.FormatFloat(c.settings.Threshold, 'f', -1, 64),
			"enforce_detection": "false",
		},
	)
	if err != nil {
		var apiErr *sidecar.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnprocessableEntity {
			return MatchResult{}, &ValidationError{Detail: errorDetail(apiErr.Body)}
		}
		return MatchResult{}, fmt.Errorf("match request: %w", err)
	}

	var resp verifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return MatchResult{}, fmt.Errorf("failed to parse response: %w", err)
	}

	result := MatchResult{
		Verified:  resp.Verified,
		Distance:  resp.Distance,
		Threshold: c.settings.Threshold,
		Model:     c.settings.Model,
	}
	if resp.Threshold != nil {
		result.Threshold = *resp.Threshold
	}
	slog.Info("facematch: comparison done", "verified", result.Verified, "distance", result.Distance)
	return result, nil
}

// Warmup asks the engine to load the configured model ahead of traffic.
func (c *Client) Warmup(ctx context.Context) error {
	if _, err := c.http.Post(ctx, "/models/"+url.PathEscape(c.settings.Model)+"/load"); err != nil {
		return fmt.Errorf("loading model %s: %w", c.settings.Model, err)
	}
	slog.Info("facematch: model loaded", "model", c.settings.Model)
	return nil
}

func errorDetail(body string) string {
	var resp errorResponse
	if err := json.Unmarshal([]byte(body), &resp); err == nil && resp.Detail != "" {
		return resp.Detail
	}
	return body
}
