package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	// blurSize is the Gaussian kernel applied before differencing.
	blurSize = 21
	// pixelDelta is the grey-level change that counts a pixel as moved.
	pixelDelta = 25
)

// MotionDetector compares consecutive frames and reports the share of
// pixels that changed.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	prev      gocv.Mat
	hasPrev   bool
}

// NewMotionDetector creates a detector that reports motion when more than
// threshold percent of pixels change.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prev:      gocv.NewMat(),
	}
}

// Detect returns whether frame moved relative to the previous one and the
// changed percentage. The first frame only sets the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(blurSize, blurSize), 0, 0, gocv.BorderDefault)

	defer blurred.CopyTo(&m.prev)
	if !m.hasPrev || m.prev.Rows() != blurred.Rows() || m.prev.Cols() != blurred.Cols() {
		m.hasPrev = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prev, &diff)
	gocv.Threshold(diff, &diff, pixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	return changed > m.threshold, changed
}

// SetThreshold changes the trigger percentage. Non-positive values are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases the baseline frame. The detector stays usable.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	m.prev.Close()
	m.prev = gocv.NewMat()
	m.hasPrev = false
}

// Governor lowers the capture rate while the scene is still and restores it
// as soon as motion or a hand shows up.
type Governor struct {
	activeFPS int
	idleFPS   int
	idleAfter time.Duration

	active     bool
	lastMotion time.Time
}

// NewGovernor creates a governor. It is disabled when idleFPS is zero or not
// below activeFPS; a disabled governor always reports activeFPS.
func NewGovernor(activeFPS, idleFPS int, idleAfter time.Duration) *Governor {
	return &Governor{
		activeFPS: activeFPS,
		idleFPS:   idleFPS,
		idleAfter: idleAfter,
		active:    true,
	}
}

// Enabled reports whether the governor ever changes the rate.
func (g *Governor) Enabled() bool {
	return g.idleFPS > 0 && g.idleFPS < g.activeFPS
}

// Active reports whether the governor is at the active rate.
func (g *Governor) Active() bool {
	return g.active || !g.Enabled()
}

// FPS returns the current target rate.
func (g *Governor) FPS() int {
	if g.Active() {
		return g.activeFPS
	}
	return g.idleFPS
}

// Observe records one frame. It returns the target rate and whether it changed.
func (g *Governor) Observe(motion bool, now time.Time) (int, bool) {
	if !g.Enabled() {
		return g.activeFPS, false
	}
	if g.lastMotion.IsZero() {
		g.lastMotion = now
	}

	switch {
	case motion:
		g.lastMotion = now
		if !g.active {
			g.active = true
			return g.activeFPS, true
		}
	case g.active && now.Sub(g.lastMotion) > g.idleAfter:
		g.active = false
		return g.idleFPS, true
	}
	return g.FPS(), false
}
