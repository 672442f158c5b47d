package model

// Intent is the closed classification of what the user wants this turn.
// Every dispatch point switches over the full set so a new intent forces an
// update of each consumer.
type Intent string

const (
	IntentSearchPart         Intent = "search_part"
	IntentDiagnoseIssue      Intent = "diagnose_issue"
	IntentInstallationHelp   Intent = "installation_help"
	IntentCompatibilityCheck Intent = "compatibility_check"
	IntentProductDetails     Intent = "product_details"
	IntentGeneralQuestion    Intent = "general_question"
)

// Intents lists every known intent in a stable order.
var Intents = []Intent{
	IntentSearchPart,
	IntentDiagnoseIssue,
	IntentInstallationHelp,
	IntentCompatibilityCheck,
	IntentProductDetails,
	IntentGeneralQuestion,
}

// String returns the wire representation of the intent.
func (i Intent) String() string {
	return string(i)
}

// Valid reports whether the intent is one of the known labels.
func (i Intent) Valid() bool {
	switch i {
	case IntentSearchPart, IntentDiagnoseIssue, IntentInstallationHelp,
		IntentCompatibilityCheck, IntentProductDetails, IntentGeneralQuestion:
		return true
	}
	return false
}

// NeedsSearch reports whether the pipeline should run the retrieval stage
// for this intent.
func (i Intent) NeedsSearch() bool {
	switch i {
	case IntentSearchPart, IntentDiagnoseIssue, IntentInstallationHelp,
		IntentCompatibilityCheck, IntentProductDetails:
		return true
	case IntentGeneralQuestion:
		return false
	}
	return false
}

// NeedsContext reports whether the pipeline should gather semantic documents
// before ranking. Only diagnosis and installation questions benefit from the
// extra troubleshooting/installation context.
func (i Intent) NeedsContext() bool {
	switch i {
	case IntentDiagnoseIssue, IntentInstallationHelp:
		return true
	case IntentSearchPart, IntentCompatibilityCheck, IntentProductDetails, IntentGeneralQuestion:
		return false
	}
	return false
}

// ParseIntent maps a raw label to a known Intent. Unknown labels report
// ok=false so callers can fall back instead of threading bad labels through
// the pipeline.
func ParseIntent(v string) (Intent, bool) {
	in := Intent(v)
	if in.Valid() {
		return in, true
	}
	return IntentGeneralQuestion, false
}

const (
	// ClassifyMethodLLM marks a classification produced by the model.
	ClassifyMethodLLM = "llm"
	// ClassifyMethodFallback marks the degraded path taken when the model
	// call or its output parse failed.
	ClassifyMethodFallback = "error_fallback"
)

// Classification is the intent classifier's output for one utterance.
type Classification struct {
	Intent     Intent            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities"`
	Reasoning  string            `json:"reasoning,omitempty"`
	Method     string            `json:"method,omitempty"`
	IsFollowup bool              `json:"is_followup,omitempty"`
}

// FallbackClassification is the result used when classification fails for any
// reason. It never fails itself, keeping the turn alive. Confidence carries
// the same default an unscored model answer gets.
func FallbackClassification(query string) *Classification {
	return &Classification{
		Intent:     IntentGeneralQuestion,
		Confidence: DefaultConfidence,
		Entities:   map[string]string{"query": query},
		Method:     ClassifyMethodFallback,
	}
}

// DefaultConfidence is assumed when the classifier omits a confidence score.
const DefaultConfidence = 0.7
