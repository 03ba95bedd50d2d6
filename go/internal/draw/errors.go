package draw

import "errors"

var (
	ErrInvalidName    = errors.New("name is empty")
	ErrNameNotAllowed = errors.New("name is not on the allow-list")
	ErrDrawInProgress = errors.New("a draw is already in progress")
	ErrSessionClosed  = errors.New("draw session is not running")
	ErrAlreadyRunning = errors.New("draw session is already running")
)

// Reset reasons reported in events and metrics.
const (
	ResetReasonManual    = "manual"
	ResetReasonCountdown = "countdown"
)
