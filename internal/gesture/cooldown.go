package gesture

import "time"

// CooldownClass names a debounce bucket shared by one or more rules.
type CooldownClass string

// Cooldown classes used by the default rule table.
const (
	ClassNone   CooldownClass = ""
	ClassClick  CooldownClass = "click"
	ClassScroll CooldownClass = "scroll"
	ClassZoom   CooldownClass = "zoom"
)

// CooldownGate debounces actions per class.
// A class that has never fired is always ready. Classes never interact.
type CooldownGate struct {
	last map[CooldownClass]time.Time
}

// NewCooldownGate creates an empty gate.
func NewCooldownGate() *CooldownGate {
	return &CooldownGate{last: make(map[CooldownClass]time.Time)}
}

// Ready reports whether class may fire at now given its cooldown duration.
// The class must be strictly more than d past its last firing.
func (g *CooldownGate) Ready(class CooldownClass, now time.Time, d time.Duration) bool {
	last, ok := g.last[class]
	if !ok {
		return true
	}
	return now.Sub(last) > d
}

// TryFire records now as the last firing of class and returns true if the
// class is ready. Otherwise it returns false and leaves the gate unchanged.
func (g *CooldownGate) TryFire(class CooldownClass, now time.Time, d time.Duration) bool {
	if !g.Ready(class, now, d) {
		return false
	}
	g.last[class] = now
	return true
}

// SeedAt records t as the last firing of every class in classes that has
// not fired yet. Seeded classes stay blocked until their duration has passed.
func (g *CooldownGate) SeedAt(t time.Time, classes ...CooldownClass) {
	for _, class := range classes {
		if class == ClassNone {
			continue
		}
		if _, ok := g.last[class]; !ok {
			g.last[class] = t
		}
	}
}

// LastFired returns the last firing time of class.
func (g *CooldownGate) LastFired(class CooldownClass) (time.Time, bool) {
	t, ok := g.last[class]
	return t, ok
}

// Reset forgets every recorded firing.
func (g *CooldownGate) Reset() {
	clear(g.last)
}
