package draw

import "github.com/looplab/fsm"

// Phase is where the session is in the draw cycle.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseFlipping     Phase = "flipping"
	PhaseRevealed     Phase = "revealed"
	PhaseCountingDown Phase = "countingDown"
)

const (
	eventStart  = "start"
	eventReveal = "reveal"
	eventCount  = "count"
	eventCancel = "cancel" // countdown interrupted by a new draw
	eventReset  = "reset"
)

func newPhaseMachine() *fsm.FSM {
	return fsm.NewFSM(
		string(PhaseIdle),
		fsm.Events{
			{Name: eventStart, Src: []string{string(PhaseIdle)}, Dst: string(PhaseFlipping)},
			{Name: eventReveal, Src: []string{string(PhaseFlipping)}, Dst: string(PhaseRevealed)},
			{Name: eventCount, Src: []string{string(PhaseRevealed)}, Dst: string(PhaseCountingDown)},
			{Name: eventCancel, Src: []string{string(PhaseRevealed), string(PhaseCountingDown)}, Dst: string(PhaseIdle)},
			{Name: eventReset, Src: []string{string(PhaseFlipping), string(PhaseRevealed), string(PhaseCountingDown)}, Dst: string(PhaseIdle)},
		},
		fsm.Callbacks{},
	)
}
