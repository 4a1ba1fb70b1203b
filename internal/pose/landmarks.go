// Package pose turns face landmarks into a horizontal head-rotation signal.
package pose

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/kozaktomas/face-verify/internal/constants"
)

// Point is a landmark in normalised image coordinates. X and Y are in [0, 1]
// relative to the frame; Z is relative depth.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// LandmarkSet is the ordered landmark mesh of a single face.
type LandmarkSet struct {
	Points []Point
}

// LandmarkDetector finds the face landmarks in an image. A nil set with a nil
// error means no face was found.
type LandmarkDetector interface {
	Detect(ctx context.Context, img image.Image) (*LandmarkSet, error)
}

// YawRatio computes dist(nose, left tragion) / dist(right tragion, nose) in
// pixel space. A zero right-hand distance yields the extreme sentinel.
func YawRatio(set *LandmarkSet, width int) (float64, error) {
	if set == nil {
		return 0, errors.New("no landmarks")
	}
	if width <= 0 {
		return 0, fmt.Errorf("invalid frame width %d", width)
	}

	need := max(constants.NoseTipLandmark, constants.LeftTragionLandmark, constants.RightTragionLandmark)
	if len(set.Points) <= need {
		return 0, fmt.Errorf("landmark set has %d points, need %d", len(set.Points), need+1)
	}

	w := float64(width)
	noseX := set.Points[constants.NoseTipLandmark].X * w
	leftX := set.Points[constants.LeftTragionLandmark].X * w
	rightX := set.Points[constants.RightTragionLandmark].X * w

	distLeft := abs(noseX - leftX)
	distRight := abs(rightX - noseX)
	if distRight == 0 {
		return constants.ExtremeRatio, nil
	}
	return distLeft / distRight, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
