package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/airmouse/internal/gesture"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Hooks(t *testing.T) {
	c := New()
	h := c.Hooks()

	scroll := gesture.Rule{Name: "scroll-down", Class: gesture.ClassScroll}
	h.OnFire(scroll, gesture.Scroll(-40))
	h.OnFire(scroll, gesture.Scroll(-40))
	h.OnSuppress(scroll)
	h.OnUnmeasurable(gesture.Rule{Name: "volume"})

	assert.InDelta(t, 2, testutil.ToFloat64(c.actions.WithLabelValues("scroll-down", "scroll")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.suppressions.WithLabelValues("scroll-down", "scroll")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.unmeasurable.WithLabelValues("volume")), 0)
}

func TestCollector_FramesAndGauges(t *testing.T) {
	c := New()

	c.Frame(OutcomeNoHand)
	c.Frame(OutcomeNoHand)
	c.Frame(OutcomeAction)
	c.SetFPS(29.5)
	c.SetEnabled(true)
	c.EffectorError(gesture.ActionClick)
	c.ObserveLatency(4 * time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(c.frames.WithLabelValues(OutcomeNoHand)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.frames.WithLabelValues(OutcomeAction)), 0)
	assert.InDelta(t, 29.5, testutil.ToFloat64(c.fps), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(c.enabled), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.effectorErrors.WithLabelValues("click")), 0)

	c.SetEnabled(false)
	assert.InDelta(t, 0, testutil.ToFloat64(c.enabled), 0)
}

func TestCollector_Handler(t *testing.T) {
	c := New()
	c.Frame(OutcomeIdle)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `airmouse_frames_total{outcome="idle"} 1`), string(body))
}

func TestCollector_Isolated(t *testing.T) {
	a, b := New(), New()
	a.Frame(OutcomeIdle)

	assert.InDelta(t, 0, testutil.ToFloat64(b.frames.WithLabelValues(OutcomeIdle)), 0)
}
