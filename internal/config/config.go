package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Face      FaceConfig      `yaml:"face"`
	Liveness  LivenessConfig  `yaml:"liveness"`
	Video     VideoConfig     `yaml:"video"`
	Selection SelectionConfig `yaml:"selection"`
	Sidecars  SidecarConfig   `yaml:"sidecars"`
	Web       WebConfig       `yaml:"web"`
	Database  DatabaseConfig  `yaml:"database"`
	LogLevel  string          `yaml:"log_level"`
}

// FaceConfig configures the external match engine and the landmark detector.
type FaceConfig struct {
	Model               string  `yaml:"model"`
	DetectorBackend     string  `yaml:"detector_backend"`
	DistanceMetric      string  `yaml:"distance_metric"`
	Threshold           float64 `yaml:"threshold"`
	DetectionConfidence float64 `yaml:"detection_confidence"`
}

type LivenessConfig struct {
	MinValidFrames    int     `yaml:"min_valid_frames"`
	CenterRatioMin    float64 `yaml:"center_ratio_min"`
	CenterRatioMax    float64 `yaml:"center_ratio_max"` // carried for parity, not applied by the evaluator
	LeftTurnThreshold float64 `yaml:"left_turn_threshold"`
	MirrorThreshold   float64 `yaml:"mirror_threshold"`
}

type VideoConfig struct {
	NumFrames  int    `yaml:"num_frames"`
	TempSuffix string `yaml:"temp_suffix"`
}

type SelectionConfig struct {
	GoodEnoughDiff float64 `yaml:"good_enough_diff"`
	PoseWorkers    int     `yaml:"pose_workers"`
}

type SidecarConfig struct {
	FaceMeshURL     string        `yaml:"facemesh_url"`
	FaceMatchURL    string        `yaml:"facematch_url"`
	LandmarkTimeout time.Duration `yaml:"landmark_timeout"`
	MatchTimeout    time.Duration `yaml:"match_timeout"`
}

type WebConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	AllowedOrigins string `yaml:"-"` // comma-separated, read by the CORS middleware
	APIKey         string `yaml:"-"`
}

type DatabaseConfig struct {
	URL          string `yaml:"-"` // PostgreSQL connection URL, attempt log is disabled when empty
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

var knownMetrics = map[string]struct{}{
	"cosine":       {},
	"euclidean":    {},
	"euclidean_l2": {},
	"angular":      {},
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a float64, falling back on parse errors.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

// Defaults returns the configuration embedded in defaults.yaml without any
// environment overrides.
func Defaults() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return &cfg
}

func Load() *Config {
	cfg := Defaults()

	cfg.Face.Model = envString("FACE_MODEL", cfg.Face.Model)
	cfg.Face.DetectorBackend = envString("FACE_DETECTOR_BACKEND", cfg.Face.DetectorBackend)
	cfg.Face.DistanceMetric = envString("FACE_DISTANCE_METRIC", cfg.Face.DistanceMetric)
	cfg.Face.Threshold = envFloat("FACE_DETECTION_THRESHOLD", cfg.Face.Threshold)
	cfg.Face.DetectionConfidence = envFloat("FACE_DETECTION_CONFIDENCE", cfg.Face.DetectionConfidence)

	cfg.Liveness.MinValidFrames = envInt("LIVENESS_MIN_VALID_FRAMES", cfg.Liveness.MinValidFrames)
	cfg.Liveness.CenterRatioMin = envFloat("LIVENESS_CENTER_RATIO_MIN", cfg.Liveness.CenterRatioMin)
	cfg.Liveness.CenterRatioMax = envFloat("LIVENESS_CENTER_RATIO_MAX", cfg.Liveness.CenterRatioMax)
	cfg.Liveness.LeftTurnThreshold = envFloat("LIVENESS_LEFT_TURN_THRESHOLD", cfg.Liveness.LeftTurnThreshold)
	cfg.Liveness.MirrorThreshold = envFloat("LIVENESS_MIRROR_THRESHOLD", cfg.Liveness.MirrorThreshold)

	cfg.Video.NumFrames = envInt("VIDEO_NUM_FRAMES", cfg.Video.NumFrames)
	cfg.Video.TempSuffix = envString("VIDEO_TEMP_SUFFIX", cfg.Video.TempSuffix)

	cfg.Selection.GoodEnoughDiff = envFloat("SELECT_GOOD_ENOUGH_DIFF", cfg.Selection.GoodEnoughDiff)
	cfg.Selection.PoseWorkers = envInt("POSE_WORKERS", cfg.Selection.PoseWorkers)

	cfg.Sidecars.FaceMeshURL = envString("FACEMESH_URL", cfg.Sidecars.FaceMeshURL)
	cfg.Sidecars.FaceMatchURL = envString("FACEMATCH_URL", cfg.Sidecars.FaceMatchURL)
	cfg.Sidecars.LandmarkTimeout = envDuration("LANDMARK_TIMEOUT", cfg.Sidecars.LandmarkTimeout)
	cfg.Sidecars.MatchTimeout = envDuration("MATCH_TIMEOUT", cfg.Sidecars.MatchTimeout)

	cfg.Web.Host = envString("WEB_HOST", cfg.Web.Host)
	cfg.Web.Port = envInt("WEB_PORT", cfg.Web.Port)
	cfg.Web.AllowedOrigins = os.Getenv("WEB_ALLOWED_ORIGINS")
	cfg.Web.APIKey = os.Getenv("API_KEY")

	cfg.Database.URL = os.Getenv("DATABASE_URL")
	cfg.Database.MaxOpenConns = envInt("DATABASE_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = envInt("DATABASE_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)

	cfg.LogLevel = strings.ToUpper(envString("LOG_LEVEL", cfg.LogLevel))

	return cfg
}

// Validate checks the values that would otherwise make the pipeline misbehave silently.
func (c *Config) Validate() error {
	var errs []error
	if c.Video.NumFrames <= 0 {
		errs = append(errs, fmt.Errorf("video frame count must be positive, got %d", c.Video.NumFrames))
	}
	if c.Liveness.MinValidFrames <= 0 {
		errs = append(errs, fmt.Errorf("liveness min valid frames must be positive, got %d", c.Liveness.MinValidFrames))
	}
	for name, v := range map[string]float64{
		"face threshold":               c.Face.Threshold,
		"liveness center ratio min":    c.Liveness.CenterRatioMin,
		"liveness left turn threshold": c.Liveness.LeftTurnThreshold,
		"liveness mirror threshold":    c.Liveness.MirrorThreshold,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, v))
		}
	}
	if c.Liveness.CenterRatioMin >= c.Liveness.CenterRatioMax {
		errs = append(errs, fmt.Errorf("liveness center ratio min (%v) must be below max (%v)",
			c.Liveness.CenterRatioMin, c.Liveness.CenterRatioMax))
	}
	if c.Selection.GoodEnoughDiff < 0 {
		errs = append(errs, fmt.Errorf("selection good-enough diff must not be negative, got %v", c.Selection.GoodEnoughDiff))
	}
	if _, ok := knownMetrics[c.Face.DistanceMetric]; !ok {
		errs = append(errs, fmt.Errorf("unknown distance metric %q", c.Face.DistanceMetric))
	}
	return errors.Join(errs...)
}
