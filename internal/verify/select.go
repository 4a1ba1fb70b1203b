package verify

import (
	"math"

	"github.com/kozaktomas/face-verify/internal/constants"
	"github.com/kozaktomas/face-verify/internal/video"
)

// SelectFrame returns the frame whose ratio is closest to a centered pose.
// Frames are scanned in order and the first one within goodEnough of centered
// is taken immediately. Without any ratio the first frame is returned.
// ratios[i] belongs to frames[i]; frames must not be empty.
func SelectFrame(frames []video.Frame, ratios []*float64, goodEnough float64) video.Frame {
	if len(frames) == 0 {
		return video.Frame{}
	}

	best := frames[0]
	bestDiff := constants.ExtremeRatio
	for i, frame := range frames {
		if i >= len(ratios) || ratios[i] == nil {
			continue
		}
		diff := math.Abs(*ratios[i] - constants.CenteredRatio)
		if diff < bestDiff {
			best, bestDiff = frame, diff
			if diff < goodEnough {
				break
			}
		}
	}
	return best
}
