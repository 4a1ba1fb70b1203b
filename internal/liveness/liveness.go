// Package liveness decides whether a sequence of yaw ratios shows a
// center-to-left head turn.
package liveness

import (
	"fmt"
	"log/slog"

	"github.com/kozaktomas/face-verify/internal/config"
)

// Messages returned to the caller.
const (
	MessageInsufficientFrames = "Face not detected clearly. Move slower and ensure good lighting."
	MessageNotCentered        = "Start by looking straight."
	MessagePassed             = "Liveness verified (Center -> Left)."
	messageNoTurnFormat       = "Head turn LEFT not detected. Range: %.2f to %.2f"
)

// Policy holds the liveness thresholds.
type Policy struct {
	MinValidFrames    int
	CenterRatioMin    float64
	LeftTurnThreshold float64
	MirrorThreshold   float64
}

// PolicyFromConfig builds a Policy from the liveness section of the config.
func PolicyFromConfig(cfg config.LivenessConfig) Policy {
	return Policy{
		MinValidFrames:    cfg.MinValidFrames,
		CenterRatioMin:    cfg.CenterRatioMin,
		LeftTurnThreshold: cfg.LeftTurnThreshold,
		MirrorThreshold:   cfg.MirrorThreshold,
	}
}

// Details carries the diagnostics of a verdict. Ratios keeps nil entries for
// frames without a usable face, in sampling order.
type Details struct {
	Ratios   []*float64 `json:"ratios"`
	MinRatio *float64   `json:"min_ratio,omitempty"`
	MaxRatio *float64   `json:"max_ratio,omitempty"`
}

// Verdict is the outcome of a liveness evaluation. Message is display text
// for the end user; clients that need the observed range read Details.
type Verdict struct {
	Passed  bool    `json:"passed"`
	Message string  `json:"message"`
	Details Details `json:"details"`
}

// Evaluate reduces the per-frame ratios to a verdict. It is deterministic and
// performs no I/O.
func (p Policy) Evaluate(ratios []*float64) Verdict {
	raw := make([]*float64, len(ratios))
	copy(raw, ratios)

	var valid []float64
	for _, r := range ratios {
		if r != nil {
			valid = append(valid, *r)
		}
	}

	if len(valid) < p.MinValidFrames || len(valid) == 0 {
		slog.Warn("liveness: insufficient valid frames", "valid", len(valid), "required", p.MinValidFrames)
		return Verdict{Message: MessageInsufficientFrames, Details: Details{Ratios: raw}}
	}

	lo, hi := valid[0], valid[0]
	for _, r := range valid[1:] {
		lo = min(lo, r)
		hi = max(hi, r)
	}
	slog.Debug("liveness: valid ratios", "ratios", valid)

	if hi < p.CenterRatioMin {
		slog.Warn("liveness: subject never centered", "max_ratio", hi, "floor", p.CenterRatioMin)
		return Verdict{Message: MessageNotCentered, Details: Details{Ratios: raw}}
	}

	details := Details{Ratios: raw, MinRatio: &lo, MaxRatio: &hi}
	if lo < p.LeftTurnThreshold || hi > p.MirrorThreshold {
		slog.Info("liveness: check passed", "min_ratio", lo, "max_ratio", hi)
		return Verdict{Passed: true, Message: MessagePassed, Details: details}
	}

	slog.Warn("liveness: head turn not detected", "min_ratio", lo, "max_ratio", hi)
	return Verdict{Message: fmt.Sprintf(messageNoTurnFormat, lo, hi), Details: details}
}
