package gemini

import (
	"time"

	"vanlang-chatbot/internal/models"
)

const (
	DefaultModel   = "gemini-2.0-flash"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

type Config struct {
	BaseURL           string
	APIKey            string
	Model             string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerMinute int
	// UnhealthyAfter consecutive failures marks the client degraded.
	UnhealthyAfter int
}

// GenerationConfig is the sampling setup sent with each request.
type GenerationConfig struct {
	Temperature     float64
	TopK            int
	TopP            float64
	MaxOutputTokens int
}

var useCaseConfigs = map[string]GenerationConfig{
	models.UseCaseIntentClassification: {Temperature: 0.1, TopK: 10, TopP: 0.8, MaxOutputTokens: 50},
	models.UseCaseDataExtraction:       {Temperature: 0.05, TopK: 5, TopP: 0.7, MaxOutputTokens: 200},
	models.UseCaseFinancialAnalysis:    {Temperature: 0.6, TopK: 40, TopP: 0.9, MaxOutputTokens: 1024},
	models.UseCaseConversation:         {Temperature: 0.8, TopK: 50, TopP: 0.95, MaxOutputTokens: 512},
	models.UseCaseCalculation:          {Temperature: 0.2, TopK: 20, TopP: 0.8, MaxOutputTokens: 300},
	models.UseCaseAdvice:               {Temperature: 0.9, TopK: 60, TopP: 0.95, MaxOutputTokens: 800},
}

// ConfigFor resolves the generation config for a request. An explicit use
// case wins; "enhanced" chat mode maps to financial analysis; everything else
// is conversation.
func ConfigFor(opts models.GenerateOptions) GenerationConfig {
	if cfg, ok := useCaseConfigs[opts.UseCase]; ok {
		return cfg
	}
	if opts.Mode == models.ModeEnhanced {
		return useCaseConfigs[models.UseCaseFinancialAnalysis]
	}
	return useCaseConfigs[models.UseCaseConversation]
}

func (c *Config) withDefaults() *Config {
	out := *c
	if out.BaseURL == "" {
		out.BaseURL = DefaultBaseURL
	}
	if out.Model == "" {
		out.Model = DefaultModel
	}
	if out.Timeout <= 0 {
		out.Timeout = 30 * time.Second
	}
	if out.MaxRetries <= 0 {
		out.MaxRetries = 3
	}
	if out.RequestsPerMinute <= 0 {
		out.RequestsPerMinute = 60
	}
	if out.UnhealthyAfter <= 0 {
		out.UnhealthyAfter = 3
	}
	return &out
}

var systemInstructions = map[models.Language]string{
	models.LanguageVietnamese: "Bạn là VanLangBot, trợ lý tài chính cá nhân của ứng dụng VanLang Budget. " +
		"Hãy trả lời bằng tiếng Việt, ngắn gọn và thân thiện. Khi nói về số liệu của người dùng, " +
		"chỉ dựa trên dữ liệu tài chính được cung cấp và không bịa đặt con số.",
	models.LanguageEnglish: "You are VanLangBot, the personal finance assistant of the VanLang Budget app. " +
		"Answer in English, concisely and kindly. When discussing the user's figures, rely only on " +
		"the financial data provided and never invent numbers.",
}
