// Package nlp classifies chat messages into dotted intent labels.
package nlp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vanlang-chatbot/internal/common/config"
	"vanlang-chatbot/internal/models"
)

var (
	ErrIntentParsingFailed = errors.New("INTENT_PARSING_FAILED")
	ErrIntentAPITimeout    = errors.New("INTENT_API_TIMEOUT")
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Classifier maps a raw message to an intent. Implementations must be safe
// for concurrent use.
type Classifier interface {
	AnalyzeIntent(ctx context.Context, message string) (*models.IntentResult, error)
	Health(ctx context.Context) models.ServiceHealth
}

// New builds the classifier selected by cfg.Provider.
func New(cfg config.NLPConfig, log Logger) (Classifier, error) {
	timeout := config.GetDuration(cfg.Timeout)
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	switch cfg.Provider {
	case "", config.ProviderKeyword:
		return NewKeywordClassifier(), nil
	case config.ProviderRemote:
		return NewRemoteClassifier(&RemoteConfig{
			BaseURL:    cfg.BaseURL,
			Timeout:    timeout,
			MaxRetries: cfg.MaxRetries,
		}, log), nil
	case config.ProviderOpenAI:
		return NewOpenAIClassifier(&OpenAIConfig{
			APIKey:      cfg.OpenAI.APIKey,
			Model:       cfg.OpenAI.Model,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Temperature: cfg.OpenAI.Temperature,
			Timeout:     timeout,
		}, log), nil
	default:
		return nil, fmt.Errorf("unknown nlp provider %q", cfg.Provider)
	}
}
