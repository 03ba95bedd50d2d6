package models

const (
	MinRating = 1
	MaxRating = 5
)

// SurveyResponse is the post-event survey a participant submits once.
type SurveyResponse struct {
	Name          string `json:"name"`
	Satisfaction  int    `json:"satisfaction"`  // activity topic satisfaction
	Timing        int    `json:"timing"`        // time management satisfaction
	PsychSafety   int    `json:"psychSafety"`   // psychological safety improvement
	SelfAwareness int    `json:"selfAwareness"` // self-awareness improvement
	Suggestion    string `json:"suggestion,omitempty"`
}

// ValidRating reports whether r is inside the accepted rating scale.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
