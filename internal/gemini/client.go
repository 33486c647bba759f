// Package gemini generates chat answers with the Gemini generateContent API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	commonhttp "vanlang-chatbot/internal/common/http"
	"vanlang-chatbot/internal/common/metrics"
	"vanlang-chatbot/internal/models"
)

var (
	ErrMissingAPIKey      = errors.New("GEMINI_API_KEY_MISSING")
	ErrLLMTimeout         = errors.New("LLM_TIMEOUT")
	ErrLLMSynthesisFailed = errors.New("LLM_SYNTHESIS_FAILED")
	ErrContentBlocked     = errors.New("CONTENT_BLOCKED")
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Client struct {
	config  *Config
	http    *commonhttp.Client
	limiter *RateLimiter
	logger  Logger

	requests            int64
	failures            int64
	blocked             int64
	consecutiveFailures int64
	totalLatencyMs      int64
}

func NewClient(config *Config, log Logger) *Client {
	cfg := config.withDefaults()
	return &Client{
		config:  cfg,
		http:    commonhttp.NewClient(cfg.Timeout, cfg.MaxRetries),
		limiter: NewRateLimiter(cfg.RequestsPerMinute, time.Minute),
		logger: log.With(map[string]interface{}{
			"component": "gemini",
			"model":     cfg.Model,
		}),
	}
}

func (c *Client) Model() string { return c.config.Model }

func (c *Client) HasAPIKey() bool { return c.config.APIKey != "" }

// GenerateResponse sends prompt to Gemini. Expected failures (missing key,
// timeout, upstream error, safety block) come back as a GeneratedResponse
// with Success false; only cancellation of ctx is returned as an error.
func (c *Client) GenerateResponse(ctx context.Context, prompt string, opts models.GenerateOptions) (*models.GeneratedResponse, error) {
	if !c.HasAPIKey() {
		return c.failure(ErrMissingAPIKey, "Gemini API key not configured", false), nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	atomic.AddInt64(&c.requests, 1)

	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	genCfg := ConfigFor(opts)
	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			MaxOutputTokens: genCfg.MaxOutputTokens,
			Temperature:     genCfg.Temperature,
			TopP:            genCfg.TopP,
			TopK:            genCfg.TopK,
			CandidateCount:  1,
		},
	}
	if instruction, ok := systemInstructions[models.NormalizeLanguage(string(opts.Language))]; ok {
		req.SystemInstruction = &content{Parts: []part{{Text: instruction}}}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimSuffix(c.config.BaseURL, "/"), c.config.Model)
	headers := map[string]string{"x-goog-api-key": c.config.APIKey}

	var raw []byte
	err := c.http.PostJSON(callCtx, url, headers, req, &raw)
	c.observe(start)

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if callCtx.Err() != nil {
			return c.failure(ErrLLMTimeout, "Gemini request timed out", false), nil
		}
		return c.failure(ErrLLMSynthesisFailed, upstreamMessage(err), false), nil
	}

	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return c.failure(ErrLLMSynthesisFailed, "invalid response from Gemini API", false), nil
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return c.failure(ErrContentBlocked, resp.PromptFeedback.BlockReason, true), nil
	}
	if len(resp.Candidates) == 0 {
		return c.failure(ErrLLMSynthesisFailed, "no candidates in response", false), nil
	}

	candidate := resp.Candidates[0]
	if blockedFinishReasons[candidate.FinishReason] {
		return c.failure(ErrContentBlocked, candidate.FinishReason, true), nil
	}

	var text strings.Builder
	for _, p := range candidate.Content.Parts {
		text.WriteString(p.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return c.failure(ErrLLMSynthesisFailed, "Empty response from Gemini API", false), nil
	}

	atomic.StoreInt64(&c.consecutiveFailures, 0)
	metrics.GeminiRequestsTotal.WithLabelValues("success").Inc()

	usage := &models.Usage{
		PromptTokens:     resp.UsageMetadata.PromptTokenCount,
		CandidatesTokens: resp.UsageMetadata.CandidatesTokenCount,
		TotalTokens:      resp.UsageMetadata.TotalTokenCount,
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CandidatesTokens
	}

	c.logger.Info("Gemini request completed", map[string]interface{}{
		"promptLength":   len(prompt),
		"responseLength": text.Len(),
		"responseTime":   time.Since(start).Milliseconds(),
		"totalTokens":    usage.TotalTokens,
	})

	return &models.GeneratedResponse{
		Success:  true,
		Response: text.String(),
		Model:    c.config.Model,
		Usage:    usage,
	}, nil
}

func (c *Client) failure(kind error, detail string, blocked bool) *models.GeneratedResponse {
	atomic.AddInt64(&c.failures, 1)
	atomic.AddInt64(&c.consecutiveFailures, 1)
	status := "error"
	if blocked {
		atomic.AddInt64(&c.blocked, 1)
		status = "blocked"
	}
	metrics.GeminiRequestsTotal.WithLabelValues(status).Inc()

	err := fmt.Errorf("%w: %s", kind, detail)
	c.logger.Warn("Gemini generation failed", map[string]interface{}{
		"error":   err.Error(),
		"blocked": blocked,
	})

	return &models.GeneratedResponse{
		Success: false,
		Error:   err.Error(),
		Blocked: blocked,
		Model:   c.config.Model,
	}
}

func (c *Client) observe(start time.Time) {
	elapsed := time.Since(start)
	atomic.AddInt64(&c.totalLatencyMs, elapsed.Milliseconds())
	metrics.GeminiRequestDuration.WithLabelValues(c.config.Model).Observe(elapsed.Seconds())
}

func upstreamMessage(err error) string {
	var se *commonhttp.StatusError
	if !errors.As(err, &se) {
		return err.Error()
	}
	var body errorResponse
	if json.Unmarshal([]byte(se.Body), &body) == nil && body.Error.Message != "" {
		return fmt.Sprintf("status %d: %s", se.StatusCode, body.Error.Message)
	}
	return fmt.Sprintf("status %d", se.StatusCode)
}

// HealthCheck reports unhealthy without an API key and degraded after
// repeated consecutive failures.
func (c *Client) HealthCheck(_ context.Context) models.ServiceHealth {
	requests := atomic.LoadInt64(&c.requests)
	var avgLatency int64
	if requests > 0 {
		avgLatency = atomic.LoadInt64(&c.totalLatencyMs) / requests
	}

	details := map[string]interface{}{
		"model":               c.config.Model,
		"hasApiKey":           c.HasAPIKey(),
		"requests":            requests,
		"failures":            atomic.LoadInt64(&c.failures),
		"blocked":             atomic.LoadInt64(&c.blocked),
		"averageResponseTime": avgLatency,
		"requestsInWindow":    c.limiter.InWindow(),
	}

	status := models.StatusHealthy
	switch {
	case !c.HasAPIKey():
		status = models.StatusUnhealthy
	case atomic.LoadInt64(&c.consecutiveFailures) >= int64(c.config.UnhealthyAfter):
		status = models.StatusDegraded
	}
	return models.ServiceHealth{Status: status, Details: details}
}

func (c *Client) Health(ctx context.Context) models.ServiceHealth {
	return c.HealthCheck(ctx)
}
