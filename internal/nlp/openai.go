package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"vanlang-chatbot/internal/common/metrics"
	"vanlang-chatbot/internal/models"

	"github.com/sashabaranov/go-openai"
)

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// OpenAIClassifier asks a chat model for the intent and falls back to the
// keyword classifier whenever the call or its JSON answer fails.
type OpenAIClassifier struct {
	client    *openai.Client
	config    *OpenAIConfig
	fallback  *KeywordClassifier
	logger    Logger
	fallbacks int64
}

type gptIntentResponse struct {
	Intent     string          `json:"intent"`
	Confidence float64         `json:"confidence"`
	Entities   []models.Entity `json:"entities"`
}

const intentSystemPrompt = `You classify messages sent to VanLangBot, a personal finance assistant.
Answer with a single JSON object and nothing else:
{"intent": "<label>", "confidence": <0..1>, "entities": [{"type": "<time_period|amount|category>", "value": "<text>"}]}
Allowed labels: greeting.hello, farewell.bye, bot.introduction, bot.capabilities, common.time_date,
expense.query, expense.summary, expense.detail, income.query, income.summary, balance.query, loan.query,
budget.check, investment.query, saving.goal, calculate.income, calculate.expense, calculate.investment,
calculate.budget, calculate.general, financial.trend, financial.planning, financial.general, blocked.topic, None.
Use None when no label fits.`

func NewOpenAIClassifier(config *OpenAIConfig, log Logger) *OpenAIClassifier {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIClassifier{
		client:   openai.NewClientWithConfig(clientConfig),
		config:   config,
		fallback: NewKeywordClassifier(),
		logger: log.With(map[string]interface{}{
			"classifier": "openai",
			"model":      config.Model,
		}),
	}
}

func (c *OpenAIClassifier) AnalyzeIntent(ctx context.Context, message string) (*models.IntentResult, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: intentSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: float32(c.config.Temperature),
	})
	if err != nil {
		c.logger.Error("Failed to get GPT response", map[string]interface{}{"error": err.Error()})
		return c.fallbackClassification(message), nil
	}
	if len(resp.Choices) == 0 {
		c.logger.Warn("GPT response had no choices", nil)
		return c.fallbackClassification(message), nil
	}

	var parsed gptIntentResponse
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(content, "```json"), "```"), "```")
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &parsed); err != nil || parsed.Intent == "" {
		c.logger.Error("Failed to parse GPT response", map[string]interface{}{
			"error":    fmt.Sprint(err),
			"response": content,
		})
		return c.fallbackClassification(message), nil
	}

	if parsed.Entities == nil {
		parsed.Entities = []models.Entity{}
	}

	metrics.IntentClassificationsTotal.WithLabelValues("openai", "success").Inc()
	return &models.IntentResult{
		Intent:     parsed.Intent,
		Confidence: clamp01(parsed.Confidence),
		Entities:   parsed.Entities,
		Language:   models.Language(DetectLanguage(message)),
	}, nil
}

func (c *OpenAIClassifier) fallbackClassification(message string) *models.IntentResult {
	atomic.AddInt64(&c.fallbacks, 1)
	metrics.IntentClassificationsTotal.WithLabelValues("openai", "fallback").Inc()
	return c.fallback.Analyze(message)
}

func (c *OpenAIClassifier) Health(_ context.Context) models.ServiceHealth {
	status := models.StatusHealthy
	if c.config.APIKey == "" {
		status = models.StatusDegraded
	}
	return models.ServiceHealth{
		Status: status,
		Details: map[string]interface{}{
			"service":   "openai",
			"model":     c.config.Model,
			"fallbacks": atomic.LoadInt64(&c.fallbacks),
		},
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
