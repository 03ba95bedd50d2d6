package draw

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// stopAndDrainTimer stops a timer and drains its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}

// timerChan returns the timer's channel, or nil so a select case on it never
// fires.
func timerChan(timer clockwork.Timer) <-chan time.Time {
	if timer == nil {
		return nil
	}
	return timer.Chan()
}

func (s *Session) cancelFlipTimer() {
	if s.flipTimer != nil {
		stopAndDrainTimer(s.flipTimer)
		s.flipTimer = nil
	}
}

func (s *Session) cancelTickTimer() {
	if s.tickTimer != nil {
		stopAndDrainTimer(s.tickTimer)
		s.tickTimer = nil
	}
}

func (s *Session) stopTimers() {
	s.cancelFlipTimer()
	s.cancelTickTimer()
}
