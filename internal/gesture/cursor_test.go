package gesture

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func TestMapToScreen(t *testing.T) {
	cfg := DefaultCursorConfig()

	tests := []struct {
		name string
		x, y int
		want Point
	}{
		{name: "top-left of rectangle", x: 150, y: 150, want: Point{0, 0}},
		{name: "bottom-right of rectangle", x: 1130, y: 570, want: Point{1920, 1080}},
		{name: "center", x: 640, y: 360, want: Point{960, 540}},
		{name: "extrapolates left of margin", x: 52, y: 360, want: Point{-192, 540}},
		{name: "extrapolates below margin", x: 640, y: 675, want: Point{960, 1350}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapToScreen(tt.x, tt.y, cfg)
			if math.Abs(got.X-tt.want.X) > epsilon || math.Abs(got.Y-tt.want.Y) > epsilon {
				t.Errorf("MapToScreen(%d, %d) = %+v, want %+v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestMapToScreen_Clamp(t *testing.T) {
	cfg := DefaultCursorConfig()
	cfg.Clamp = true

	if got := MapToScreen(0, 0, cfg); got != (Point{0, 0}) {
		t.Errorf("clamped top-left = %+v, want {0 0}", got)
	}
	if got := MapToScreen(1280, 720, cfg); got != (Point{1920, 1080}) {
		t.Errorf("clamped bottom-right = %+v, want {1920 1080}", got)
	}
}

func TestSmooth(t *testing.T) {
	got := Smooth(Point{700, 70}, Point{0, 0}, 7)
	if math.Abs(got.X-100) > epsilon || math.Abs(got.Y-10) > epsilon {
		t.Errorf("Smooth() = %+v, want {100 10}", got)
	}

	if got := Smooth(Point{50, 60}, Point{0, 0}, 1); got != (Point{50, 60}) {
		t.Errorf("factor 1 should jump to target, got %+v", got)
	}
	if got := Smooth(Point{50, 60}, Point{0, 0}, 0); got != (Point{50, 60}) {
		t.Errorf("factor below 1 should behave as 1, got %+v", got)
	}
}

func TestCursorMapper_GeometricConvergence(t *testing.T) {
	cfg := DefaultCursorConfig()
	start := Point{X: 100, Y: 900}
	c := NewCursorMapper(cfg, start)

	target := MapToScreen(400, 300, cfg)
	d0 := math.Hypot(start.X-target.X, start.Y-target.Y)
	ratio := (cfg.Smoothing - 1) / cfg.Smoothing

	for n := 1; n <= 20; n++ {
		pos := c.Update(400, 300)
		dn := math.Hypot(pos.X-target.X, pos.Y-target.Y)
		want := d0 * math.Pow(ratio, float64(n))
		if math.Abs(dn-want) > 1e-6 {
			t.Fatalf("frame %d: distance = %f, want %f", n, dn, want)
		}
	}
}

func TestCursorMapper_Reset(t *testing.T) {
	c := NewCursorMapper(DefaultCursorConfig(), Point{})
	c.Update(640, 360)

	if c.Position() == (Point{}) {
		t.Fatal("Update should move the cursor")
	}

	c.Reset()
	if c.Position() != (Point{}) {
		t.Errorf("Position() after Reset = %+v, want start", c.Position())
	}
}

func TestCursorMapper_FrameAndScreenSize(t *testing.T) {
	cfg := DefaultCursorConfig()
	cfg.Smoothing = 1
	c := NewCursorMapper(cfg, Point{})

	// Center of a 640x480 frame measured against the 1280x720 default.
	c.SetFrameSize(640, 480)
	c.SetScreenSize(ScreenSize{Width: 2560, Height: 1440})
	got := c.Update(320, 240)

	if math.Abs(got.X-1280) > epsilon || math.Abs(got.Y-720) > epsilon {
		t.Errorf("Update(320, 240) = %+v, want {1280 720}", got)
	}

	c.SetFrameSize(0, 480)
	c.SetScreenSize(ScreenSize{Width: -1, Height: 1440})
	if cur := c.Config(); cur.FrameWidth != 640 || cur.ScreenWidth != 2560 {
		t.Errorf("invalid sizes should be ignored, got %+v", cur)
	}
}
