package models

import "time"

// QuestionRecord is one completed draw. Records are appended once and never
// mutated or deleted.
type QuestionRecord struct {
	Name     string    `json:"name"`     // trimmed display name of the participant
	Question string    `json:"question"` // the question text that was revealed
	DrawnAt  time.Time `json:"timestamp"`
}
