package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kozaktomas/face-verify/internal/config"
	"github.com/kozaktomas/face-verify/internal/facematch"
	"github.com/kozaktomas/face-verify/internal/facemesh"
	"github.com/kozaktomas/face-verify/internal/liveness"
	"github.com/kozaktomas/face-verify/internal/pose"
	"github.com/kozaktomas/face-verify/internal/verify"
	"github.com/kozaktomas/face-verify/internal/video"
	"github.com/kozaktomas/face-verify/internal/video/opencv"
)

// loadConfig reads and validates the configuration shared by all commands.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildService wires the verification pipeline from configuration and asks the
// match engine to load its model. A failed warmup is logged; the first request
// pays for the load instead.
func buildService(ctx context.Context, cfg *config.Config, tempDir string) *verify.Service {
	sampler := video.NewSampler(opencv.NewDecoder(), cfg.Video.TempSuffix).WithTempDir(tempDir)

	detector := facemesh.NewClient(cfg.Sidecars.FaceMeshURL, cfg.Face.DetectionConfidence, cfg.Sidecars.LandmarkTimeout)
	extractor := pose.NewExtractor(detector, cfg.Selection.PoseWorkers)

	settings := facematch.SettingsFromConfig(cfg.Face)
	matcher := facematch.NewClient(cfg.Sidecars.FaceMatchURL, settings, cfg.Sidecars.MatchTimeout)

	warmupCtx, cancel := context.WithTimeout(ctx, cfg.Sidecars.MatchTimeout)
	defer cancel()
	if err := matcher.Warmup(warmupCtx); err != nil {
		slog.Warn("match engine: warmup failed", "model", settings.Model, "error", err)
	} else {
		slog.Info("match engine: model loaded", "model", settings.Model)
	}

	return verify.NewService(sampler, extractor, liveness.PolicyFromConfig(cfg.Liveness), matcher, verify.Options{
		NumFrames:      cfg.Video.NumFrames,
		GoodEnoughDiff: cfg.Selection.GoodEnoughDiff,
		MatchTimeout:   cfg.Sidecars.MatchTimeout,
		TempDir:        tempDir,
		Match:          settings,
	})
}
