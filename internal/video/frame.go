// Package video samples orientation-normalised RGB frames from uploaded clips.
package video

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Frame is one decoded, upright RGB frame. Index is its position within the
// sampled set, Source its position within the container.
type Frame struct {
	Index  int
	Source int
	Image  *image.RGBA
}

// Width returns the pixel width of the frame.
func (f Frame) Width() int {
	return f.Image.Bounds().Dx()
}

// Normalize returns an RGBA copy of img, rotated 90° clockwise when it is wider
// than tall. Phones often store portrait recordings as landscape frames.
func Normalize(img image.Image) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if w <= h {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}

	// Source (x, y) lands on destination (h - y, x): a clockwise quarter turn.
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	s2d := f64.Aff3{
		0, -1, float64(h + b.Min.Y),
		1, 0, float64(-b.Min.X),
	}
	draw.NearestNeighbor.Transform(dst, s2d, img, b, draw.Src, nil)
	return dst
}

// EncodeJPEG encodes img for transport to the landmark and match sidecars.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
