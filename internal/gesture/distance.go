package gesture

import (
	"math"

	"github.com/ayusman/airmouse/internal/detector"
)

// Measurement is the pixel distance between two landmarks and their endpoints.
type Measurement struct {
	Length int
	X1, Y1 int
	X2, Y2 int
}

// DistanceFunc measures the distance between two landmark indices.
// ok is false when either landmark is missing from the frame.
type DistanceFunc func(p1, p2 int) (m Measurement, ok bool)

// Distance returns the floored Euclidean distance between landmarks p1 and p2.
func Distance(frame detector.Frame, p1, p2 int) (Measurement, bool) {
	if p1 < 0 || p2 < 0 || len(frame) < max(p1, p2)+1 {
		return Measurement{}, false
	}

	a, b := frame[p1], frame[p2]
	length := math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))

	return Measurement{
		Length: int(length),
		X1:     a.X,
		Y1:     a.Y,
		X2:     b.X,
		Y2:     b.Y,
	}, true
}

// Measurer binds Distance to a frame.
func Measurer(frame detector.Frame) DistanceFunc {
	return func(p1, p2 int) (Measurement, bool) {
		return Distance(frame, p1, p2)
	}
}
