// Package testdata builds synthetic camera frames for tests.
package testdata

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Blank returns a black BGR frame. The caller closes it.
func Blank(width, height int) *gocv.Mat {
	m := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	m.SetTo(gocv.NewScalar(0, 0, 0, 0))
	return &m
}

// WithSquare returns a black frame with a filled white square whose top-left
// corner is at (x, y).
func WithSquare(width, height, x, y, size int) *gocv.Mat {
	m := Blank(width, height)
	gocv.Rectangle(m, image.Rect(x, y, x+size, y+size), color.RGBA{R: 255, G: 255, B: 255, A: 0}, -1)
	return m
}

// Sequence returns n frames with a square moving right by step pixels per
// frame, so consecutive frames register as motion.
func Sequence(width, height, n, step int) []*gocv.Mat {
	size := height / 4
	frames := make([]*gocv.Mat, 0, n)
	for i := 0; i < n; i++ {
		x := (i * step) % (width - size)
		frames = append(frames, WithSquare(width, height, x, height/2-size/2, size))
	}
	return frames
}

// CloseAll releases every frame.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}
