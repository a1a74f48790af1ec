// Package detector provides hand detection interfaces and landmark types.
package detector

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D represents a normalized landmark position as reported by the detector.
// X and Y are fractions of the frame width and height.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents one detected hand in normalized coordinates.
// Count is the number of leading points the detector actually filled.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Count      int                   `json:"count"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Landmark is a single hand joint in pixel coordinates.
type Landmark struct {
	ID int `json:"id"`
	X  int `json:"x"`
	Y  int `json:"y"`
}

// Frame is the ordered set of landmarks for one camera frame.
// It is empty when no hand is visible and holds at most NumLandmarks entries.
type Frame []Landmark

// Complete reports whether the frame carries every hand landmark.
func (f Frame) Complete() bool {
	return len(f) >= NumLandmarks
}

// ToFrame rescales the hand to pixel coordinates for a width x height image.
// Coordinates are truncated toward zero.
func (h *HandLandmarks) ToFrame(width, height int) Frame {
	if h == nil {
		return nil
	}

	n := h.Count
	if n > NumLandmarks {
		n = NumLandmarks
	}

	frame := make(Frame, 0, n)
	for i := 0; i < n; i++ {
		p := h.Points[i]
		frame = append(frame, Landmark{
			ID: i,
			X:  int(p.X * float64(width)),
			Y:  int(p.Y * float64(height)),
		})
	}
	return frame
}

// FirstHandFrame converts the first detected hand into a pixel Frame.
// It returns an empty frame when no hand was detected.
func FirstHandFrame(hands []HandLandmarks, width, height int) Frame {
	if len(hands) == 0 {
		return Frame{}
	}
	return hands[0].ToFrame(width, height)
}
