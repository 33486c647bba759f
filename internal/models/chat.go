// internal/models/chat.go
package models

import "strings"

// Language of a chat exchange.
type Language string

const (
	LanguageVietnamese Language = "vi"
	LanguageEnglish    Language = "en"
)

// NormalizeLanguage maps anything other than "en" to Vietnamese.
func NormalizeLanguage(s string) Language {
	if strings.EqualFold(strings.TrimSpace(s), string(LanguageEnglish)) {
		return LanguageEnglish
	}
	return LanguageVietnamese
}

// Pick returns vi or en depending on the language.
func (l Language) Pick(vi, en string) string {
	if l == LanguageEnglish {
		return en
	}
	return vi
}

const (
	ProcessedByRule   = "rule"
	ProcessedByGemini = "gemini"
)

type ChatRequest struct {
	Message  string   `json:"message"`
	Language Language `json:"language"`
	UserID   string   `json:"-"`
}

// ChatResponse is the envelope returned for every chat request. Status is the
// HTTP status the transport should answer with.
type ChatResponse struct {
	Status   int       `json:"-"`
	Success  bool      `json:"success"`
	Response string    `json:"response,omitempty"`
	Error    string    `json:"error,omitempty"`
	Blocked  *bool     `json:"blocked,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

type Metadata struct {
	Intent       string        `json:"intent,omitempty"`
	ProcessedBy  string        `json:"processedBy,omitempty"`
	Cached       bool          `json:"cached,omitempty"`
	Language     Language      `json:"language,omitempty"`
	Model        string        `json:"model,omitempty"`
	Usage        *Usage        `json:"usage,omitempty"`
	ResponseTime int64         `json:"responseTime"`
	NLPAnalysis  *IntentResult `json:"nlp_analysis,omitempty"`
	Detail       string        `json:"detail,omitempty"`
	Stack        string        `json:"stack,omitempty"`
}
