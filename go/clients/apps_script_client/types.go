package apps_script_client

// QuestionCategories mirrors the three question tiers kept in the sheet.
type QuestionCategories struct {
	IceBreaking    []string `json:"iceBreaking"`
	GettingToKnow  []string `json:"gettingToKnow"`
	DeepConnection []string `json:"deepConnection"`
}

type QuestionsResponse struct {
	Status    string              `json:"status"`
	Questions *QuestionCategories `json:"questions"`
}

type NamesResponse struct {
	Status string   `json:"status"`
	Names  []string `json:"names"`
}

// RawRecord is a record row exactly as the sheet returns it. Fields may be
// empty or malformed; callers sanitize before use.
type RawRecord struct {
	Name      string `json:"name"`
	Question  string `json:"question"`
	Timestamp string `json:"timestamp"`
}

type RecordsResponse struct {
	Status  string      `json:"status"`
	Records []RawRecord `json:"records"`
}

// RecordPayload is the body posted for every completed draw.
type RecordPayload struct {
	Name      string `json:"name"`
	Question  string `json:"question"`
	Timestamp string `json:"timestamp"`
}

type SurveyPayload struct {
	Action        string `json:"action"`
	Name          string `json:"name"`
	Satisfaction  int    `json:"satisfaction"`
	Timing        int    `json:"timing"`
	PsychSafety   int    `json:"psychSafety"`
	SelfAwareness int    `json:"selfAwareness"`
	Suggestion    string `json:"suggestion"`
}
