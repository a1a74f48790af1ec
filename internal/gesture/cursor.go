package gesture

// CursorConfig describes how the index fingertip maps onto the screen.
type CursorConfig struct {
	FrameWidth   int
	FrameHeight  int
	Margin       int // inset of the active rectangle from each frame edge
	ScreenWidth  int
	ScreenHeight int
	Smoothing    float64 // divisor; 1 disables smoothing
	Clamp        bool    // clamp targets outside the active rectangle to the screen edge
}

// DefaultCursorConfig returns the stock mapping for a 1280x720 camera.
func DefaultCursorConfig() CursorConfig {
	return CursorConfig{
		FrameWidth:   1280,
		FrameHeight:  720,
		Margin:       150,
		ScreenWidth:  1920,
		ScreenHeight: 1080,
		Smoothing:    7,
	}
}

// ScreenSize is the display size in pixels.
type ScreenSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (s ScreenSize) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Point is a screen-space position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MapToScreen maps a fingertip pixel position to a raw screen target.
// x is interpolated from [margin, frameWidth-margin] to [0, screenWidth], and y
// likewise. Positions outside the rectangle extrapolate unless cfg.Clamp is set.
func MapToScreen(x, y int, cfg CursorConfig) Point {
	return Point{
		X: interp(float64(x), float64(cfg.Margin), float64(cfg.FrameWidth-cfg.Margin), 0, float64(cfg.ScreenWidth), cfg.Clamp),
		Y: interp(float64(y), float64(cfg.Margin), float64(cfg.FrameHeight-cfg.Margin), 0, float64(cfg.ScreenHeight), cfg.Clamp),
	}
}

// Smooth moves prev a 1/factor fraction of the way toward target.
func Smooth(target, prev Point, factor float64) Point {
	if factor < 1 {
		factor = 1
	}
	return Point{
		X: prev.X + (target.X-prev.X)/factor,
		Y: prev.Y + (target.Y-prev.Y)/factor,
	}
}

// CursorMapper holds the smoothed pointer position between frames.
// The position only changes when Update is called.
type CursorMapper struct {
	cfg   CursorConfig
	start Point
	pos   Point
}

// NewCursorMapper creates a mapper whose smoothed position starts at start.
func NewCursorMapper(cfg CursorConfig, start Point) *CursorMapper {
	return &CursorMapper{cfg: cfg, start: start, pos: start}
}

// Update maps the fingertip, advances the smoothed position and returns it.
func (c *CursorMapper) Update(x, y int) Point {
	target := MapToScreen(x, y, c.cfg)
	c.pos = Smooth(target, c.pos, c.cfg.Smoothing)
	return c.pos
}

// SetFrameSize sets the size of the frame fingertip positions are measured
// in. Non-positive sizes are ignored.
func (c *CursorMapper) SetFrameSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.cfg.FrameWidth = width
	c.cfg.FrameHeight = height
}

// SetScreenSize sets the display the pointer maps onto. Invalid sizes are ignored.
func (c *CursorMapper) SetScreenSize(s ScreenSize) {
	if !s.Valid() {
		return
	}
	c.cfg.ScreenWidth = s.Width
	c.cfg.ScreenHeight = s.Height
}

// Config returns the mapping currently in use.
func (c *CursorMapper) Config() CursorConfig {
	return c.cfg
}

// Position returns the current smoothed position.
func (c *CursorMapper) Position() Point {
	return c.pos
}

// Reset returns the smoothed position to its start.
func (c *CursorMapper) Reset() {
	c.pos = c.start
}

// interp maps v from [x0, x1] onto [y0, y1].
func interp(v, x0, x1, y0, y1 float64, clamp bool) float64 {
	if x1 == x0 {
		return y0
	}
	if clamp {
		if v <= x0 {
			return y0
		}
		if v >= x1 {
			return y1
		}
	}
	return y0 + (v-x0)*(y1-y0)/(x1-x0)
}
