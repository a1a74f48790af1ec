package gesture

import (
	"log/slog"
	"time"

	"github.com/ayusman/airmouse/internal/detector"
)

// RouteContext carries the per-frame inputs and the session state a rule may touch.
type RouteContext struct {
	Now       time.Time
	Frame     detector.Frame
	Distance  DistanceFunc
	Cursor    *CursorMapper
	Cooldowns *CooldownGate
	Volume    VolumeRange
}

func (rc *RouteContext) measure(p1, p2 int) (Measurement, bool) {
	if rc.Distance == nil {
		return Distance(rc.Frame, p1, p2)
	}
	return rc.Distance(p1, p2)
}

// Hooks observe routing decisions. Any field may be nil.
type Hooks struct {
	// OnFire is called for the action a frame produces.
	OnFire func(rule Rule, action Action)
	// OnSuppress is called when a rule matched but its cooldown class was active.
	OnSuppress func(rule Rule)
	// OnUnmeasurable is called when a matched rule could not measure a distance.
	OnUnmeasurable func(rule Rule)
}

// ChainHooks returns Hooks that call each of hs in order.
func ChainHooks(hs ...Hooks) Hooks {
	return Hooks{
		OnFire: func(rule Rule, action Action) {
			for _, h := range hs {
				if h.OnFire != nil {
					h.OnFire(rule, action)
				}
			}
		},
		OnSuppress: func(rule Rule) {
			for _, h := range hs {
				if h.OnSuppress != nil {
					h.OnSuppress(rule)
				}
			}
		},
		OnUnmeasurable: func(rule Rule) {
			for _, h := range hs {
				if h.OnUnmeasurable != nil {
					h.OnUnmeasurable(rule)
				}
			}
		},
	}
}

// Router evaluates the rule table for a signature.
type Router struct {
	rules  []Rule
	hooks  Hooks
	logger *slog.Logger
}

// NewRouter creates a router over rules. A nil logger uses slog.Default.
func NewRouter(rules []Rule, hooks Hooks, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{rules: rules, hooks: hooks, logger: logger}
}

// Rules returns a copy of the table in priority order.
func (r *Router) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Route walks the table top to bottom and returns at most one action.
//
// A rule is skipped when its pattern differs from sig or its cooldown class is
// still active. Otherwise it is evaluated, and when it fires its class is
// recorded at rc.Now. Evaluation stops at the first such rule that is terminal.
func (r *Router) Route(sig Signature, rc RouteContext) Action {
	if rc.Cooldowns == nil {
		rc.Cooldowns = NewCooldownGate()
	}

	result := NoAction()
	for _, rule := range r.rules {
		if rule.Pattern != sig {
			continue
		}

		if rule.Class != ClassNone && !rc.Cooldowns.Ready(rule.Class, rc.Now, rule.Cooldown) {
			r.logger.Debug("rule cooling down", "rule", rule.Name, "class", rule.Class)
			if r.hooks.OnSuppress != nil {
				r.hooks.OnSuppress(rule)
			}
			continue
		}

		action, v := rule.eval(&rc)
		switch v {
		case fired:
			if result.IsNone() {
				if rule.Class != ClassNone {
					rc.Cooldowns.TryFire(rule.Class, rc.Now, rule.Cooldown)
				}
				result = action
				r.logger.Debug("rule fired", "rule", rule.Name, "action", action.String())
				if r.hooks.OnFire != nil {
					r.hooks.OnFire(rule, action)
				}
			}
		case unmeasurable:
			r.logger.Debug("rule unmeasurable", "rule", rule.Name)
			if r.hooks.OnUnmeasurable != nil {
				r.hooks.OnUnmeasurable(rule)
			}
		}

		if rule.Terminal {
			break
		}
	}

	return result
}
