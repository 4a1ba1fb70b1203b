// Package opencv decodes video containers through gocv.
package opencv

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/kozaktomas/face-verify/internal/video"
)

// Decoder implements video.Decoder on top of OpenCV's VideoCapture.
type Decoder struct{}

// NewDecoder creates a gocv-backed decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Open opens the file at path. Containers OpenCV can't open report video.ErrUnreadable.
func (d *Decoder) Open(path string) (video.Capture, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", video.ErrUnreadable, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, video.ErrUnreadable
	}
	return &capture{vc: vc}, nil
}

type capture struct {
	vc *gocv.VideoCapture
}

func (c *capture) FrameCount() int {
	return int(c.vc.Get(gocv.VideoCaptureFrameCount))
}

// ReadFrame seeks to index and converts OpenCV's BGR layout to RGBA.
func (c *capture) ReadFrame(index int) (image.Image, error) {
	c.vc.Set(gocv.VideoCapturePosFrames, float64(index))

	mat := gocv.NewMat()
	defer mat.Close()

	if ok := c.vc.Read(&mat); !ok || mat.Empty() {
		return nil, fmt.Errorf("frame %d could not be decoded", index)
	}

	rgba := gocv.NewMat()
	defer rgba.Close()
	gocv.CvtColor(mat, &rgba, gocv.ColorBGRToRGBA)
	if rgba.Empty() {
		return nil, errors.New("color conversion produced an empty frame")
	}

	cols, rows := rgba.Cols(), rgba.Rows()
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))
	copy(img.Pix, rgba.ToBytes())
	return img, nil
}

func (c *capture) Close() error {
	return c.vc.Close()
}
