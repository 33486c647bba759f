// internal/models/generation.go
package models

type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CandidatesTokens int `json:"candidatesTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// GeneratedResponse carries either Response (Success) or Error and Blocked.
type GeneratedResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
	Blocked  bool   `json:"blocked"`
	Model    string `json:"model,omitempty"`
	Usage    *Usage `json:"usage,omitempty"`
}

const (
	ModeEnhanced = "enhanced"

	UseCaseIntentClassification = "intent_classification"
	UseCaseDataExtraction       = "data_extraction"
	UseCaseFinancialAnalysis    = "financial_analysis"
	UseCaseConversation         = "conversation"
	UseCaseCalculation          = "calculation"
	UseCaseAdvice               = "advice"
)

type GenerateOptions struct {
	Language Language
	Mode     string
	UseCase  string
}
