package nlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	commonhttp "vanlang-chatbot/internal/common/http"
	"vanlang-chatbot/internal/common/metrics"
	"vanlang-chatbot/internal/common/validation"
	"vanlang-chatbot/internal/models"
)

const parseIntentPath = "/api/ai/parse-intent"

const parseIntentResponseSchema = `{
	"type": "object",
	"required": ["intent", "confidence"],
	"properties": {
		"intent": {"type": "string", "minLength": 1},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"language": {"type": "string"},
		"entities": {
			"type": ["array", "null"],
			"items": {
				"type": "object",
				"required": ["type", "value"],
				"properties": {
					"type": {"type": "string"},
					"value": {"type": ["string", "number"]}
				}
			}
		}
	}
}`

var parseIntentValidator = validation.MustValidator(parseIntentResponseSchema)

type RemoteConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// RemoteClassifier delegates to an external intent parsing service.
type RemoteClassifier struct {
	config *RemoteConfig
	client *commonhttp.Client
	logger Logger
}

func NewRemoteClassifier(config *RemoteConfig, log Logger) *RemoteClassifier {
	return &RemoteClassifier{
		config: config,
		client: commonhttp.NewClient(config.Timeout, config.MaxRetries+1),
		logger: log.With(map[string]interface{}{
			"classifier": "remote",
		}),
	}
}

type remoteEntity struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type remoteResponse struct {
	Intent     string         `json:"intent"`
	Confidence float64        `json:"confidence"`
	Language   string         `json:"language"`
	Entities   []remoteEntity `json:"entities"`
}

func (c *RemoteClassifier) AnalyzeIntent(ctx context.Context, message string) (*models.IntentResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var raw []byte
	err := c.client.PostJSON(ctx, strings.TrimSuffix(c.config.BaseURL, "/")+parseIntentPath, nil,
		map[string]interface{}{"query": message}, &raw)
	if err != nil {
		metrics.IntentClassificationsTotal.WithLabelValues("remote", "error").Inc()
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrIntentAPITimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrIntentParsingFailed, err)
	}

	result, err := parseIntentValidator.ValidateBytes(raw)
	if err != nil {
		metrics.IntentClassificationsTotal.WithLabelValues("remote", "invalid").Inc()
		return nil, fmt.Errorf("%w: decode error: %v", ErrIntentParsingFailed, err)
	}
	if !result.Valid {
		metrics.IntentClassificationsTotal.WithLabelValues("remote", "invalid").Inc()
		return nil, fmt.Errorf("%w: invalid response: %s", ErrIntentParsingFailed,
			strings.Join(result.GetErrorMessages(), "; "))
	}

	var apiResponse remoteResponse
	if err := json.Unmarshal(raw, &apiResponse); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrIntentParsingFailed, err)
	}

	out := &models.IntentResult{
		Intent:     apiResponse.Intent,
		Confidence: apiResponse.Confidence,
		Entities:   make([]models.Entity, 0, len(apiResponse.Entities)),
		Language:   models.Language(apiResponse.Language),
	}
	if out.Language == "" {
		out.Language = models.Language(DetectLanguage(message))
	}
	for _, e := range apiResponse.Entities {
		out.Entities = append(out.Entities, models.Entity{Type: e.Type, Value: entityValue(e.Value)})
	}

	metrics.IntentClassificationsTotal.WithLabelValues("remote", "success").Inc()
	c.logger.Info("intent parsed successfully", map[string]interface{}{
		"intent":      out.Intent,
		"confidence":  out.Confidence,
		"entityCount": len(out.Entities),
	})

	return out, nil
}

func entityValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func (c *RemoteClassifier) Health(_ context.Context) models.ServiceHealth {
	status := models.StatusHealthy
	if c.config.BaseURL == "" {
		status = models.StatusUnhealthy
	}
	return models.ServiceHealth{
		Status: status,
		Details: map[string]interface{}{
			"service": "remote",
			"baseUrl": c.config.BaseURL,
		},
	}
}
