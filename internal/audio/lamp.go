package audio

import (
	"time"

	"github.com/discohub/disco-monitor/internal/types"
)

// LampConfig holds the tunables the detector evaluates on every chunk.
// The caller passes a fresh copy each time, so runtime config changes
// take effect on the next chunk without restarting the monitor.
type LampConfig struct {
	Threshold         float64       // smoothed level below this counts as silence
	SilenceDuration   time.Duration // continuous silence before the lamp goes red
	SoundConfirmation time.Duration // uninterrupted sound before the lamp goes green
}

// LampEvent describes what a single Process call observed. Transition
// flags fire exactly once per transition.
type LampEvent struct {
	Lit   bool    // lamp state after this chunk (true = red)
	Level float64 // smoothed level that was evaluated

	SilenceOnset bool // level first dropped below the threshold
	SoundOnset   bool // level first rose to or above the threshold
	ToRed        bool // silence persisted long enough, lamp switched on
	ToGreen      bool // sound confirmed, lamp switched off

	// Silence carries the relevant silence duration for transitions:
	// for ToRed the length of the ongoing silence, for ToGreen the
	// length of the silence streak that preceded the recovery.
	Silence time.Duration
}

// LampDetector implements the asymmetric silence/sound hysteresis behind
// the warning lamp. The lamp starts red and only turns green after sound
// has been confirmed for the full confirmation window; a single quiet
// chunk restarts that window. Silence only changes the lamp after the
// full silence duration, so the lamp holds its previous state while a
// silence streak is still pending.
//
// The detector is a pure state machine over (level, now) inputs. It is
// not safe for concurrent use; the sampling loop is its only caller.
type LampDetector struct {
	lit            bool
	soundConfirmed bool
	silenceStart   time.Time
	soundStart     time.Time
	lastSilence    time.Duration // most recent completed silence streak
}

// NewLampDetector returns a detector in its initial state: lamp red,
// no streak in progress, sound unconfirmed.
func NewLampDetector() *LampDetector {
	return &LampDetector{lit: true}
}

// Lit reports the current lamp state.
func (d *LampDetector) Lit() bool {
	return d.lit
}

// State returns the lamp state as its status constant.
func (d *LampDetector) State() types.LampState {
	if d.lit {
		return types.LampRed
	}
	return types.LampGreen
}

// Reset returns the detector to its initial state. Called on every
// monitor start so a new session never inherits stale timers.
func (d *LampDetector) Reset() {
	*d = LampDetector{lit: true}
}

// Process evaluates one smoothed level reading taken at the given time
// and advances the state machine.
func (d *LampDetector) Process(level float64, cfg LampConfig, now time.Time) LampEvent {
	ev := LampEvent{Level: level}
	wasLit := d.lit

	if level < cfg.Threshold {
		// Any quiet chunk cancels an in-progress sound streak and
		// drops confirmation, so the next recovery starts from zero.
		d.soundConfirmed = false
		d.soundStart = time.Time{}

		if d.silenceStart.IsZero() {
			d.silenceStart = now
			ev.SilenceOnset = true
		}
		if now.Sub(d.silenceStart) >= cfg.SilenceDuration {
			d.lit = true
		}
	} else {
		if !d.silenceStart.IsZero() {
			d.lastSilence = now.Sub(d.silenceStart)
			d.silenceStart = time.Time{}
		}
		if d.soundStart.IsZero() {
			d.soundStart = now
			ev.SoundOnset = true
		} else if now.Sub(d.soundStart) >= cfg.SoundConfirmation {
			d.soundConfirmed = true
		}
		// The lamp only goes off once sound is confirmed. Unconfirmed
		// sound leaves a lit lamp lit.
		if d.soundConfirmed {
			d.lit = false
		}
	}

	if d.lit != wasLit {
		if d.lit {
			ev.ToRed = true
			ev.Silence = now.Sub(d.silenceStart)
		} else {
			ev.ToGreen = true
			ev.Silence = d.lastSilence
		}
	}
	ev.Lit = d.lit
	return ev
}
