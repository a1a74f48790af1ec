package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// PoseLandmarks returns a right hand, as seen in a mirrored camera view, with
// each finger raised or curled as requested. The offsets are far larger than
// the classifier margins at any resolution of 640x480 or above.
func PoseLandmarks(thumb, index, middle, ring, pinky bool) HandLandmarks {
	h := HandLandmarks{
		Count:      NumLandmarks,
		Handedness: "Right",
		Score:      0.95,
	}

	h.Points[Wrist] = Point3D{X: 0.50, Y: 0.80}

	h.Points[ThumbCMC] = Point3D{X: 0.56, Y: 0.76}
	h.Points[ThumbMCP] = Point3D{X: 0.60, Y: 0.72}
	if thumb {
		h.Points[ThumbIP] = Point3D{X: 0.65, Y: 0.68}
		h.Points[ThumbTip] = Point3D{X: 0.70, Y: 0.64}
	} else {
		h.Points[ThumbIP] = Point3D{X: 0.58, Y: 0.68}
		h.Points[ThumbTip] = Point3D{X: 0.55, Y: 0.66}
	}

	setFinger(&h, IndexMCP, 0.56, 0.62, index)
	setFinger(&h, MiddleMCP, 0.51, 0.60, middle)
	setFinger(&h, RingMCP, 0.46, 0.62, ring)
	setFinger(&h, PinkyMCP, 0.41, 0.65, pinky)

	return h
}

// setFinger lays out the four joints of a finger starting at its MCP index.
func setFinger(h *HandLandmarks, mcp int, x, y float64, up bool) {
	h.Points[mcp] = Point3D{X: x, Y: y}
	h.Points[mcp+1] = Point3D{X: x, Y: y - 0.08}
	if up {
		h.Points[mcp+2] = Point3D{X: x, Y: y - 0.15}
		h.Points[mcp+3] = Point3D{X: x, Y: y - 0.22}
		return
	}
	h.Points[mcp+2] = Point3D{X: x - 0.01, Y: y - 0.04}
	h.Points[mcp+3] = Point3D{X: x - 0.01, Y: y + 0.01}
}
