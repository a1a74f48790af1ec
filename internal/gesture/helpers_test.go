package gesture

import (
	"time"

	"github.com/ayusman/airmouse/internal/detector"
)

const (
	testFrameWidth  = 1280
	testFrameHeight = 720
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// pose returns a complete 1280x720 frame whose fingers match sig.
func pose(sig Signature) detector.Frame {
	h := detector.PoseLandmarks(sig[Thumb], sig[Index], sig[Middle], sig[Ring], sig[Pinky])
	return h.ToFrame(testFrameWidth, testFrameHeight)
}

// with returns a copy of f with landmark id moved to (x, y).
func with(f detector.Frame, id, x, y int) detector.Frame {
	out := append(detector.Frame(nil), f...)
	out[id].X = x
	out[id].Y = y
	return out
}

// flatFrame returns n landmarks all placed at (100, 100).
func flatFrame(n int) detector.Frame {
	f := make(detector.Frame, n)
	for i := range f {
		f[i] = detector.Landmark{ID: i, X: 100, Y: 100}
	}
	return f
}

func at(d time.Duration) time.Time {
	return t0.Add(d)
}
