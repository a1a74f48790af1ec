package app

import (
	"context"
	"time"

	"github.com/ayusman/airmouse/internal/capture"
	"github.com/ayusman/airmouse/internal/detector"
	"github.com/ayusman/airmouse/internal/effector"
	"github.com/ayusman/airmouse/internal/metrics"
	"gocv.io/x/gocv"
)

// processFrame runs one captured frame through the pipeline and closes it.
//
// Pipeline:
//  1. Mirror the image so the user's right hand appears on the right
//  2. Feed the motion detector when the idle governor is on
//  3. Keep a JPEG copy for the preview stream
//  4. Detect the hand and rescale its landmarks to frame pixels
//  5. Classify and route through the session
//  6. Hand the action, if any, to the effector and publish it
//
// It returns the governor's target rate and whether it changed.
func (a *App) processFrame(ctx context.Context, frame *gocv.Mat) (int, bool) {
	defer frame.Close()

	start := time.Now()
	now := a.now()

	if a.cfg.Mirror {
		capture.Mirror(frame)
	}

	motion := false
	if a.motion != nil {
		motion, _ = a.motion.Detect(frame)
	}

	if a.cfg.Preview {
		a.storePreview(frame)
	}

	if !a.IsEnabled() {
		a.metrics.Frame(metrics.OutcomeDisabled)
		return a.governor.Observe(motion, now)
	}

	hands, err := a.detector.Detect(frame)
	if err != nil {
		a.metrics.Frame(metrics.OutcomeDetectFailed)
		a.logger.Warn("hand detection failed", "err", err)
		return a.governor.Observe(motion, now)
	}

	landmarks := detector.FirstHandFrame(hands, frame.Cols(), frame.Rows())
	a.session.SetFrameSize(frame.Cols(), frame.Rows())
	res := a.session.Process(landmarks, now)

	switch {
	case len(landmarks) == 0:
		a.metrics.Frame(metrics.OutcomeNoHand)
	case !landmarks.Complete():
		a.metrics.Frame(metrics.OutcomePartial)
	case res.Action.IsNone():
		a.metrics.Frame(metrics.OutcomeIdle)
	default:
		a.metrics.Frame(metrics.OutcomeAction)
	}

	if !res.Action.IsNone() {
		if err := effector.Apply(ctx, a.effector, res.Action); err != nil {
			a.metrics.EffectorError(res.Action.Kind)
			a.logger.Warn("action failed", "action", res.Action.String(), "err", err)
		}
	}

	fps := a.session.FPS()
	a.metrics.SetFPS(fps)
	a.metrics.ObserveLatency(time.Since(start))

	a.mu.Lock()
	a.fps = fps
	if !res.Action.IsNone() {
		a.lastAction = res.Action
		a.lastFired = now
	}
	a.mu.Unlock()

	if !res.Action.IsNone() {
		a.publish(Event{
			Time:      now,
			Session:   a.session.ID(),
			Signature: res.Signature.String(),
			Action:    res.Action,
			FPS:       fps,
		})
	}

	// A visible hand keeps the loop at the active rate even when the
	// background is still.
	return a.governor.Observe(motion || len(landmarks) > 0, now)
}

func (a *App) storePreview(frame *gocv.Mat) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		a.logger.Debug("preview encode failed", "err", err)
		return
	}
	defer buf.Close()

	data := append([]byte(nil), buf.GetBytes()...)

	a.mu.Lock()
	a.preview = data
	a.mu.Unlock()
}

// loadVolumeRange asks the effector for the device volume range. The
// session keeps its configured range when the query fails.
func (a *App) loadVolumeRange(ctx context.Context) {
	r, err := a.effector.VolumeRange(ctx)
	if err != nil {
		a.logger.Warn("volume range unavailable, using configured range", "err", err)
		return
	}
	a.session.SetVolumeRange(r)
	a.logger.Debug("volume range", "min", r.Min, "max", r.Max)
}

// loadScreenSize asks the effector for the display size the cursor maps onto.
func (a *App) loadScreenSize(ctx context.Context) {
	size, err := a.effector.ScreenSize(ctx)
	if err != nil {
		a.logger.Warn("screen size unavailable, using configured size", "err", err)
		return
	}
	a.session.SetScreenSize(size)
	a.logger.Debug("screen size", "width", size.Width, "height", size.Height)
}

func (a *App) release() {
	if err := a.camera.Close(); err != nil {
		a.logger.Warn("camera close failed", "err", err)
	}
	if err := a.detector.Close(); err != nil {
		a.logger.Warn("detector close failed", "err", err)
	}
	if a.motion != nil {
		a.motion.Reset()
	}
}

func frameInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = 1
	}
	return time.Second / time.Duration(fps)
}
