package gesture

import (
	"math"
	"testing"
	"time"

	"github.com/ayusman/airmouse/internal/detector"
)

// routerFixture wires a router to fresh session state and records hook calls.
type routerFixture struct {
	router     *Router
	cooldowns  *CooldownGate
	cursor     *CursorMapper
	fired      []string
	suppressed []string
	unmeasured []string
}

func newRouterFixture(cfg RouterConfig) *routerFixture {
	f := &routerFixture{
		cooldowns: NewCooldownGate(),
		cursor:    NewCursorMapper(DefaultCursorConfig(), Point{}),
	}
	f.router = NewRouter(DefaultRules(cfg), Hooks{
		OnFire:         func(r Rule, _ Action) { f.fired = append(f.fired, r.Name) },
		OnSuppress:     func(r Rule) { f.suppressed = append(f.suppressed, r.Name) },
		OnUnmeasurable: func(r Rule) { f.unmeasured = append(f.unmeasured, r.Name) },
	}, nil)
	return f
}

func (f *routerFixture) route(frame detector.Frame, now time.Time) Action {
	return f.router.Route(Classify(frame, DefaultClassifierConfig()), RouteContext{
		Now:       now,
		Frame:     frame,
		Distance:  Measurer(frame),
		Cursor:    f.cursor,
		Cooldowns: f.cooldowns,
		Volume:    VolumeRange{Min: -65.25, Max: 0},
	})
}

// pinched returns an index+middle pose with the tips gap pixels apart.
func pinched(gap int) detector.Frame {
	f := pose(Sig(0, 1, 1, 0, 0))
	tip := f[detector.IndexTip]
	return with(f, detector.MiddleTip, tip.X+gap, tip.Y)
}

func TestDefaultRules_Order(t *testing.T) {
	want := []string{
		"move", "left-click", "right-click", "volume",
		"zoom-in", "zoom-out", "scroll-up", "scroll-down", "screenshot",
	}

	rules := DefaultRules(DefaultRouterConfig())
	if len(rules) != len(want) {
		t.Fatalf("expected %d rules, got %d", len(want), len(rules))
	}
	for i, r := range rules {
		if r.Name != want[i] {
			t.Errorf("rule %d = %q, want %q", i+1, r.Name, want[i])
		}
	}
}

func TestDefaultRules_NonTerminalRulesHaveUniquePatterns(t *testing.T) {
	rules := DefaultRules(DefaultRouterConfig())

	for i, r := range rules {
		if r.Terminal {
			continue
		}
		for _, later := range rules[i+1:] {
			if later.Pattern == r.Pattern {
				t.Errorf("non-terminal rule %q shares pattern %s with later rule %q", r.Name, r.Pattern, later.Name)
			}
		}
	}
}

func TestDefaultRules_ScreenshotShadowedByScrollDown(t *testing.T) {
	rules := DefaultRules(DefaultRouterConfig())
	scroll, shot := rules[7], rules[8]

	if scroll.Pattern != shot.Pattern || scroll.Class != shot.Class || scroll.Cooldown != shot.Cooldown {
		t.Fatalf("screenshot no longer mirrors scroll-down: %+v vs %+v", scroll, shot)
	}
	if !scroll.Terminal {
		t.Fatal("scroll-down must be terminal for screenshot to stay unreachable")
	}
}

func TestRouter_Move(t *testing.T) {
	f := newRouterFixture(DefaultRouterConfig())
	frame := with(pose(Sig(0, 1, 0, 0, 0)), detector.IndexTip, 640, 360)

	got := f.route(frame, t0)

	if got.Kind != ActionMove {
		t.Fatalf("Kind = %s, want move", got.Kind)
	}
	if math.Abs(got.X-960.0/7) > epsilon || math.Abs(got.Y-540.0/7) > epsilon {
		t.Errorf("move to (%f, %f), want (%f, %f)", got.X, got.Y, 960.0/7, 540.0/7)
	}
}

func TestRouter_LeftClick(t *testing.T) {
	t.Run("fires when tips pinch", func(t *testing.T) {
		f := newRouterFixture(DefaultRouterConfig())

		if got := f.route(pinched(10), t0); got.Kind != ActionClick || got.Button != ButtonLeft {
			t.Errorf("got %s, want click(left)", got)
		}
	})

	t.Run("declines at threshold and records no cooldown", func(t *testing.T) {
		f := newRouterFixture(DefaultRouterConfig())

		if got := f.route(pinched(30), t0); !got.IsNone() {
			t.Errorf("got %s, want none at distance 30", got)
		}
		if _, ok := f.cooldowns.LastFired(ClassClick); ok {
			t.Error("declined click must not start the cooldown")
		}
		if got := f.route(pinched(29), t0); got.Kind != ActionClick {
			t.Errorf("got %s, want click at distance 29", got)
		}
	})

	t.Run("debounced for 300ms", func(t *testing.T) {
		f := newRouterFixture(DefaultRouterConfig())

		f.route(pinched(5), t0)
		if got := f.route(pinched(5), at(300*time.Millisecond)); !got.IsNone() {
			t.Errorf("got %s at +300ms, want none", got)
		}
		if got := f.route(pinched(5), at(301*time.Millisecond)); got.Kind != ActionClick {
			t.Errorf("got %s at +301ms, want click", got)
		}
		if len(f.suppressed) != 1 || f.suppressed[0] != "left-click" {
			t.Errorf("suppressed = %v, want [left-click]", f.suppressed)
		}
	})

	t.Run("unmeasurable distance does not fire", func(t *testing.T) {
		f := newRouterFixture(DefaultRouterConfig())
		short := pinched(5)[:detector.MiddleTip]

		got := f.router.Route(Sig(0, 1, 1, 0, 0), RouteContext{
			Now:       t0,
			Frame:     short,
			Distance:  Measurer(short),
			Cooldowns: f.cooldowns,
		})

		if !got.IsNone() {
			t.Errorf("got %s, want none", got)
		}
		if len(f.unmeasured) != 1 || f.unmeasured[0] != "left-click" {
			t.Errorf("unmeasured = %v, want [left-click]", f.unmeasured)
		}
	})
}

func TestRouter_RightClickSharesClickClass(t *testing.T) {
	f := newRouterFixture(DefaultRouterConfig())
	rightPose := pose(Sig(0, 1, 1, 1, 0))

	if got := f.route(rightPose, t0); got.Kind != ActionClick || got.Button != ButtonRight {
		t.Fatalf("got %s, want click(right)", got)
	}

	// Left click waits 300ms after any click.
	if got := f.route(pinched(5), at(200*time.Millisecond)); !got.IsNone() {
		t.Errorf("left click at +200ms: got %s, want none", got)
	}
	if got := f.route(pinched(5), at(350*time.Millisecond)); got.Kind != ActionClick {
		t.Errorf("left click at +350ms: got %s, want click", got)
	}

	// Right click waits 500ms after any click.
	if got := f.route(rightPose, at(800*time.Millisecond)); !got.IsNone() {
		t.Errorf("right click at +800ms: got %s, want none", got)
	}
	if got := f.route(rightPose, at(900*time.Millisecond)); got.Button != ButtonRight {
		t.Errorf("right click at +900ms: got %s, want click(right)", got)
	}
}

func TestRouter_Volume(t *testing.T) {
	// Index tip stays put; the thumb tip slides below it.
	base := with(pose(Sig(1, 1, 0, 0, 0)), detector.IndexTip, 900, 300)

	tests := []struct {
		name     string
		distance int
		want     float64
	}{
		{name: "minimum", distance: 30, want: -65.25},
		{name: "below minimum clamps", distance: 10, want: -65.25},
		{name: "midpoint", distance: 90, want: -32.625},
		{name: "maximum", distance: 150, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(DefaultRouterConfig())
			frame := with(base, detector.ThumbTip, 900, 300+tt.distance)
			if got := Classify(frame, DefaultClassifierConfig()); got != Sig(1, 1, 0, 0, 0) {
				t.Fatalf("fixture classifies as %s", got)
			}

			got := f.route(frame, t0)
			if got.Kind != ActionVolume {
				t.Fatalf("Kind = %s, want volume", got.Kind)
			}
			if math.Abs(got.Level-tt.want) > epsilon {
				t.Errorf("Level = %f, want %f", got.Level, tt.want)
			}
		})
	}

	t.Run("above maximum clamps", func(t *testing.T) {
		f := newRouterFixture(DefaultRouterConfig())
		frame := with(base, detector.ThumbTip, 900, 500)

		if got := f.route(frame, t0); got.Level != 0 {
			t.Errorf("Level = %f, want 0", got.Level)
		}
	})
}

func TestRouter_Zoom(t *testing.T) {
	spread := pose(Sig(1, 0, 0, 0, 1))
	spread = with(spread, detector.ThumbTip, 900, 460)
	spread = with(spread, detector.PinkyTip, 520, 300)

	t.Run("zoom in when thumb and pinky spread", func(t *testing.T) {
		f := newRouterFixture(DefaultRouterConfig())
		got := f.route(spread, t0)
		if got.Kind != ActionZoomIn {
			t.Fatalf("got %s, want zoom-in", got)
		}
		if len(got.Keys) != 2 || got.Keys[0] != "ctrl" || got.Keys[1] != "+" {
			t.Errorf("Keys = %v, want [ctrl +]", got.Keys)
		}
	})

	t.Run("no zoom when thumb and pinky close", func(t *testing.T) {
		f := newRouterFixture(DefaultRouterConfig())
		near := with(spread, detector.PinkyTip, 850, 380)
		if Classify(near, DefaultClassifierConfig()) != Sig(1, 0, 0, 0, 1) {
			t.Fatal("fixture no longer classifies as thumb+pinky")
		}
		if got := f.route(near, t0); !got.IsNone() {
			t.Errorf("got %s, want none", got)
		}
	})

	t.Run("zoom out fires every frame by default", func(t *testing.T) {
		f := newRouterFixture(DefaultRouterConfig())
		thumb := pose(Sig(1, 0, 0, 0, 0))
		for i := 0; i < 3; i++ {
			if got := f.route(thumb, t0); got.Kind != ActionZoomOut {
				t.Fatalf("frame %d: got %s, want zoom-out", i, got)
			}
		}
	})

	t.Run("zoom cooldown when configured", func(t *testing.T) {
		cfg := DefaultRouterConfig()
		cfg.ZoomCooldown = time.Second
		f := newRouterFixture(cfg)
		thumb := pose(Sig(1, 0, 0, 0, 0))

		f.route(thumb, t0)
		if got := f.route(thumb, at(500*time.Millisecond)); !got.IsNone() {
			t.Errorf("got %s, want none while zoom cools down", got)
		}
	})

	t.Run("exclusive zoom stops evaluation", func(t *testing.T) {
		cfg := DefaultRouterConfig()
		cfg.ZoomExclusive = true
		for _, r := range DefaultRules(cfg) {
			if (r.Name == "zoom-in" || r.Name == "zoom-out") && !r.Terminal {
				t.Errorf("%s should be terminal when exclusive", r.Name)
			}
		}
	})
}

func TestRouter_Scroll(t *testing.T) {
	f := newRouterFixture(DefaultRouterConfig())
	palm := pose(Sig(1, 1, 1, 1, 1))
	fist := pose(Sig(0, 0, 0, 0, 0))

	if got := f.route(palm, t0); got.Kind != ActionScroll || got.Delta != 40 {
		t.Fatalf("got %s, want scroll(40)", got)
	}
	// Shared scroll class blocks the fist for 500ms.
	if got := f.route(fist, at(400*time.Millisecond)); !got.IsNone() {
		t.Errorf("got %s, want none", got)
	}
	if got := f.route(fist, at(600*time.Millisecond)); got.Kind != ActionScroll || got.Delta != -40 {
		t.Errorf("got %s, want scroll(-40)", got)
	}
}

func TestRouter_UnmatchedSignature(t *testing.T) {
	f := newRouterFixture(DefaultRouterConfig())

	for _, sig := range []Signature{Sig(0, 0, 1, 0, 0), Sig(0, 1, 0, 0, 1), Sig(1, 1, 1, 0, 0)} {
		if got := f.route(pose(sig), t0); !got.IsNone() {
			t.Errorf("%s: got %s, want none", sig, got)
		}
	}
	if len(f.fired) != 0 {
		t.Errorf("fired = %v, want none", f.fired)
	}
}

func TestRouter_ScreenshotNeverFires(t *testing.T) {
	f := newRouterFixture(DefaultRouterConfig())
	fist := pose(Sig(0, 0, 0, 0, 0))

	for ms := 0; ms < 5000; ms += 50 {
		if got := f.route(fist, at(time.Duration(ms)*time.Millisecond)); got.Kind == ActionScreenshot {
			t.Fatalf("screenshot fired at +%dms", ms)
		}
	}
	for _, name := range f.fired {
		if name == "screenshot" {
			t.Fatal("screenshot rule reported as fired")
		}
	}
}

func TestRouter_Rules(t *testing.T) {
	r := NewRouter(DefaultRules(DefaultRouterConfig()), Hooks{}, nil)

	rules := r.Rules()
	rules[0].Name = "changed"

	if r.Rules()[0].Name != "move" {
		t.Error("Rules() should return a copy")
	}
}

func TestChainHooks(t *testing.T) {
	var calls []string
	a := Hooks{OnFire: func(r Rule, _ Action) { calls = append(calls, "a:"+r.Name) }}
	b := Hooks{
		OnFire:     func(r Rule, _ Action) { calls = append(calls, "b:"+r.Name) },
		OnSuppress: func(r Rule) { calls = append(calls, "b-suppress:"+r.Name) },
	}

	h := ChainHooks(a, b, Hooks{})
	h.OnFire(Rule{Name: "move"}, MoveTo(Point{X: 1, Y: 2}))
	h.OnSuppress(Rule{Name: "scroll-up"})
	h.OnUnmeasurable(Rule{Name: "volume"})

	want := []string{"a:move", "b:move", "b-suppress:scroll-up"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}
