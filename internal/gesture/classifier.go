// Package gesture turns per-frame hand landmarks into pointer commands.
//
// A frame is classified into a five-finger Signature, the Signature is routed
// through an ordered, debounced rule table, and at most one Action comes out.
// All state that outlives a frame (cursor smoothing, cooldown timestamps) is
// owned by a Session.
package gesture

import (
	"strings"

	"github.com/ayusman/airmouse/internal/detector"
)

// Finger positions within a Signature.
const (
	Thumb = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers
)

// Signature is the finger-up state of one frame in [Thumb, Index, Middle, Ring, Pinky] order.
type Signature [NumFingers]bool

// Sig builds a Signature from 0/1 digits, e.g. Sig(0, 1, 0, 0, 0).
func Sig(thumb, index, middle, ring, pinky int) Signature {
	return Signature{thumb != 0, index != 0, middle != 0, ring != 0, pinky != 0}
}

// String renders the signature as five binary digits.
func (s Signature) String() string {
	var b strings.Builder
	for _, up := range s {
		if up {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// ClassifierConfig holds the pixel margins a joint must clear to count as raised.
type ClassifierConfig struct {
	// ThumbMargin is how far right of its MCP joint the thumb tip must be.
	ThumbMargin int
	// FingerMargin is how far above its PIP joint a finger tip must be.
	FingerMargin int
}

// DefaultClassifierConfig returns the stock margins (10px thumb, 8px fingers).
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		ThumbMargin:  10,
		FingerMargin: 8,
	}
}

// fingerJoints pairs each non-thumb finger with its tip and PIP landmark.
var fingerJoints = [...]struct {
	finger, tip, base int
}{
	{Index, detector.IndexTip, detector.IndexPIP},
	{Middle, detector.MiddleTip, detector.MiddlePIP},
	{Ring, detector.RingTip, detector.RingPIP},
	{Pinky, detector.PinkyTip, detector.PinkyPIP},
}

// Classify derives the finger-up signature of a frame.
//
// Frames with fewer than 21 landmarks classify as all fingers down. The thumb
// test assumes a mirrored camera view: the thumb is up when its tip lies more
// than ThumbMargin pixels right of the MCP joint. Other fingers are up when the
// tip lies more than FingerMargin pixels above the PIP joint.
func Classify(frame detector.Frame, cfg ClassifierConfig) Signature {
	var sig Signature
	if !frame.Complete() {
		return sig
	}

	sig[Thumb] = frame[detector.ThumbTip].X > frame[detector.ThumbMCP].X+cfg.ThumbMargin

	for _, j := range fingerJoints {
		sig[j.finger] = frame[j.tip].Y < frame[j.base].Y-cfg.FingerMargin
	}

	return sig
}
