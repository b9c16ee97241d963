package assistant

import (
	"encoding/json"
	"strings"
)

// Actions the generate mode may ask the UI to take.
const (
	ActionViewVisualizer = "VIEW_VISUALIZER"
	ActionViewEER        = "VIEW_EER"
)

const fallbackMessage = "Here is the query you requested."

// Visualization is a chart hint for the result viewer.
type Visualization struct {
	Type string `json:"type"`
	XKey string `json:"xKey"`
	YKey string `json:"yKey"`
}

// Suggestion is the structured answer of the generate mode.
type Suggestion struct {
	SQL           string         `json:"sql"`
	Message       string         `json:"message"`
	Action        *string        `json:"action"`
	Visualization *Visualization `json:"visualization,omitempty"`
}

var fences = strings.NewReplacer("```json", "", "```", "")

// parseSuggestion reads the model's JSON answer. Text that is not a JSON
// object is taken to be bare SQL.
func parseSuggestion(text string) Suggestion {
	clean := strings.TrimSpace(fences.Replace(text))

	var s Suggestion
	if err := json.Unmarshal([]byte(clean), &s); err != nil {
		return Suggestion{SQL: clean, Message: fallbackMessage}
	}
	return s
}
