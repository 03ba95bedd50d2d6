package events

import "time"

type DrawStartedPayload struct {
	Generation uint64    `json:"generation"`
	Name       string    `json:"name"`
	StartedAt  time.Time `json:"started_at"`
	RevealAt   time.Time `json:"reveal_at"`
}

type QuestionRevealedPayload struct {
	Generation   uint64    `json:"generation"`
	Name         string    `json:"name"`
	Question     string    `json:"question"`
	Tier         string    `json:"tier,omitempty"`
	FirstDraw    bool      `json:"first_draw"`
	RevealedAt   time.Time `json:"revealed_at"`
	CountdownSec int       `json:"countdown_sec"`
}

type CountdownTickPayload struct {
	Generation       uint64    `json:"generation"`
	TimeRemainingSec int       `json:"time_remaining_sec"`
	TickedAt         time.Time `json:"ticked_at"`
}

type SessionResetPayload struct {
	Generation uint64    `json:"generation"`
	Reason     string    `json:"reason"`
	ResetAt    time.Time `json:"reset_at"`
}

// RecordAppendedPayload is used for both successful and failed appends.
type RecordAppendedPayload struct {
	Name     string    `json:"name"`
	Question string    `json:"question"`
	DrawnAt  time.Time `json:"drawn_at"`
	Error    string    `json:"error,omitempty"`
}

type RecordsRefreshedPayload struct {
	TotalQuestions int       `json:"total_questions"`
	UniqueSpeakers int       `json:"unique_speakers"`
	Degraded       bool      `json:"degraded"`
	RefreshedAt    time.Time `json:"refreshed_at"`
}

type QuestionsReloadedPayload struct {
	IceBreaking    int       `json:"ice_breaking"`
	GettingToKnow  int       `json:"getting_to_know"`
	DeepConnection int       `json:"deep_connection"`
	Fallback       bool      `json:"fallback"`
	ReloadedAt     time.Time `json:"reloaded_at"`
}
