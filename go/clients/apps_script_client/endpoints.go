package apps_script_client

const (
	// Query parameters understood by the deployed web app
	ActionParam   = "action"
	CallbackParam = "callback"

	// Actions
	ActionGetQuestions    = "getQuestions"
	ActionGetAllowedNames = "getAllowedNames"
	ActionSubmitSurvey    = "submitSurvey"

	// Callback names must be valid JavaScript identifiers on the script side
	CallbackPrefix = "googleSheetsCallback_"

	StatusSuccess = "success"

	// TimestampLayout is the fixed local date-time format written to the sheet
	TimestampLayout = "2006-01-02 15:04:05"

	ContentTypeJSON = "application/json"
)
