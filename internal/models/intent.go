// internal/models/intent.go
package models

const (
	IntentNone     = "None"
	IntentFallback = "nlu.fallback"

	IntentGreeting     = "greeting.hello"
	IntentFarewell     = "farewell.bye"
	IntentIntroduction = "bot.introduction"
	IntentCapabilities = "bot.capabilities"
	IntentTimeDate     = "common.time_date"

	// IntentSourceCache tags results that were produced for the intent cache.
	IntentSourceCache = "nlp_cache"
)

type Entity struct {
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence,omitempty"`
}

type IntentResult struct {
	Intent     string   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Entities   []Entity `json:"entities"`
	Language   Language `json:"language,omitempty"`
	Score      float64  `json:"score,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Source     string   `json:"source,omitempty"`
}

// IsFallback reports whether no confident intent was matched.
func (r *IntentResult) IsFallback() bool {
	return r == nil || r.Intent == "" || r.Intent == IntentNone || r.Intent == IntentFallback
}
