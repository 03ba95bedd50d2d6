package draw

import "github.com/mcdev12/icebreaker/go/internal/models"

// State is a snapshot of the session. It is never persisted.
type State struct {
	Phase              Phase       `json:"phase"`
	InputName          string      `json:"inputName"`
	DrawnName          string      `json:"drawnName"`
	DrawnQuestion      string      `json:"drawnQuestion"`
	Tier               models.Tier `json:"tier,omitempty"`
	FirstDraw          bool        `json:"firstDraw"`
	CountdownRemaining int         `json:"countdownRemaining"`
	Generation         uint64      `json:"generation"`
}

// CanDraw reports whether a new draw would be accepted in this phase.
func (s State) CanDraw() bool {
	return s.Phase != PhaseFlipping
}

// ShowQuestion reports whether the drawn question is on display.
func (s State) ShowQuestion() bool {
	return s.Phase == PhaseRevealed || s.Phase == PhaseCountingDown
}
