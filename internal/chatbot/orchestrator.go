// Package chatbot runs the chat pipeline: validation, cached intent
// resolution, canned replies, financial grounding and cached generation.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"vanlang-chatbot/internal/cache"
	"vanlang-chatbot/internal/common/metrics"
	"vanlang-chatbot/internal/common/observability"
	"vanlang-chatbot/internal/finance"
	"vanlang-chatbot/internal/models"
	"vanlang-chatbot/internal/nlp"
)

var (
	ErrEmptyIntent     = errors.New("classifier returned no result")
	ErrEmptyGeneration = errors.New("generator returned no result")
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Cache is the two-namespace store the pipeline reads and writes.
type Cache interface {
	GetIntentAnalysis(ctx context.Context, key string) (*models.IntentResult, bool)
	CacheIntentAnalysis(ctx context.Context, key string, result *models.IntentResult) error
	GetGeminiResponse(ctx context.Context, prompt string) (string, bool)
	CacheGeminiResponse(ctx context.Context, prompt, response string) error
	ClearAll(ctx context.Context) error
	GetStats() cache.Stats
	Health(ctx context.Context) models.ServiceHealth
}

// Generator produces the answer for prompts that are not handled by rules.
type Generator interface {
	GenerateResponse(ctx context.Context, prompt string, opts models.GenerateOptions) (*models.GeneratedResponse, error)
	Health(ctx context.Context) models.ServiceHealth
	Model() string
	HasAPIKey() bool
}

type Orchestrator struct {
	config     *Config
	classifier nlp.Classifier
	cache      Cache
	finance    finance.Provider
	generator  Generator
	analytics  *Analytics
	obs        *observability.Observability
	logger     Logger
	now        func() time.Time
}

type Dependencies struct {
	Classifier    nlp.Classifier
	Cache         Cache
	Finance       finance.Provider
	Generator     Generator
	Observability *observability.Observability
}

// NewOrchestrator wires the pipeline. Finance may be nil, in which case every
// request that needs account data is answered with the degraded note.
func NewOrchestrator(config *Config, deps Dependencies, log Logger) *Orchestrator {
	obs := deps.Observability
	if obs == nil {
		obs = observability.NewNoop()
	}
	return &Orchestrator{
		config:     config.withDefaults(),
		classifier: deps.Classifier,
		cache:      deps.Cache,
		finance:    deps.Finance,
		generator:  deps.Generator,
		analytics:  NewAnalytics(),
		obs:        obs,
		logger: log.With(map[string]interface{}{
			"component": "chatbot",
		}),
		now: time.Now,
	}
}

func (o *Orchestrator) Analytics() *Analytics { return o.analytics }

// Handle answers one chat request. It never returns nil and never panics:
// unexpected failures become a localized 500 response.
func (o *Orchestrator) Handle(ctx context.Context, req *models.ChatRequest) (resp *models.ChatResponse) {
	start := o.now()
	o.analytics.requests.Add(1)

	if req == nil {
		req = &models.ChatRequest{}
	}
	lang := models.NormalizeLanguage(string(req.Language))

	ctx, span := o.obs.StartSpan(ctx, "chatbot.handle", attribute.String("language", string(lang)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			resp = o.internalError(start, lang, fmt.Errorf("panic: %v", r), debug.Stack())
		}
		if resp.Status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, resp.Error)
		}
		o.record(ctx, resp, start)
	}()

	resp, err := o.handle(ctx, req, lang, start)
	if err != nil {
		return o.internalError(start, lang, err, debug.Stack())
	}
	return resp
}

func (o *Orchestrator) handle(ctx context.Context, req *models.ChatRequest, lang models.Language, start time.Time) (*models.ChatResponse, error) {
	if reason := ValidateInput(req.Message, lang, o.config.MaxMessageLength); reason != "" {
		o.analytics.errors.Add(1)
		o.logger.Info("chat request rejected", map[string]interface{}{
			"reason": "invalid_input",
			"length": len(req.Message),
		})
		return failure(http.StatusBadRequest, reason), nil
	}

	if req.UserID == "" {
		o.analytics.errors.Add(1)
		o.logger.Warn("chat request rejected", map[string]interface{}{
			"reason": "auth_failed",
		})
		return failure(http.StatusUnauthorized, lang.Pick(
			"Xác thực thất bại. Vui lòng đăng nhập lại.",
			"Authentication failed. Please log in again.",
		)), nil
	}

	analysis, err := o.resolveIntent(ctx, req.Message)
	if err != nil {
		return nil, err
	}
	intent := analysis.Intent

	if analysis.Confidence >= o.config.ConfidenceThreshold {
		if text, ok := SimpleReply(intent, lang, o.now().In(o.config.Location)); ok {
			o.analytics.ruleBasedResponses.Add(1)
			return &models.ChatResponse{
				Status:   http.StatusOK,
				Success:  true,
				Response: text,
				Metadata: &models.Metadata{
					Intent:       intent,
					ProcessedBy:  models.ProcessedByRule,
					Language:     lang,
					ResponseTime: o.elapsed(start),
					NLPAnalysis:  analysis,
				},
			}, nil
		}
	}

	needsData := finance.NeedsFinancialData(req.Message, analysis)
	var financialContext string
	if needsData {
		financialContext, err = o.financialContext(ctx, req.UserID, lang)
		if err != nil {
			return nil, err
		}
	}

	prompt := BuildPrompt(req.Message, intent, lang, needsData, financialContext)
	return o.resolveResponse(ctx, prompt, analysis, lang, start)
}

// resolveIntent reads the intent cache and falls back to the classifier. Only
// entries tagged with the cache source count as hits.
func (o *Orchestrator) resolveIntent(ctx context.Context, message string) (*models.IntentResult, error) {
	ctx, span := o.obs.StartSpan(ctx, "intent.resolve")
	defer span.End()

	key := cache.IntentKey(message)
	if cached, ok := o.cache.GetIntentAnalysis(ctx, key); ok && cached != nil && cached.Source == models.IntentSourceCache {
		o.analytics.cacheHitsIntent.Add(1)
		span.SetAttributes(attribute.Bool("cached", true), attribute.String("intent", cached.Intent))
		return cached, nil
	}

	analysis, err := o.classifier.AnalyzeIntent(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("analyze intent: %w", err)
	}
	if analysis == nil {
		return nil, ErrEmptyIntent
	}
	span.SetAttributes(attribute.Bool("cached", false), attribute.String("intent", analysis.Intent))

	tagged := *analysis
	tagged.Source = models.IntentSourceCache
	if err := o.cache.CacheIntentAnalysis(ctx, key, &tagged); err != nil {
		o.logger.Warn("failed to cache intent analysis", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return analysis, nil
}

// financialContext returns the formatted account block, or the localized
// note when the data could not be read. Only cancellation is an error.
func (o *Orchestrator) financialContext(ctx context.Context, userID string, lang models.Language) (string, error) {
	ctx, span := o.obs.StartSpan(ctx, "finance.fetch")
	defer span.End()

	note := lang.Pick(
		" (Lưu ý: có lỗi khi truy xuất dữ liệu tài chính của bạn) ",
		" (Note: error retrieving your financial data) ",
	)

	if o.finance == nil {
		span.SetAttributes(attribute.Bool("degraded", true))
		return note, nil
	}

	fc, err := o.finance.GetUserFinancialData(ctx, userID)
	if err != nil {
		return "", err
	}
	if fc.Degraded() {
		span.SetAttributes(attribute.Bool("degraded", true))
		o.logger.Warn("financial data unavailable, answering without it", map[string]interface{}{
			"userId": userID,
			"error":  errorText(fc),
		})
		return note, nil
	}
	return finance.FormatFinancialContext(fc, lang), nil
}

func (o *Orchestrator) resolveResponse(ctx context.Context, prompt string, analysis *models.IntentResult, lang models.Language, start time.Time) (*models.ChatResponse, error) {
	ctx, span := o.obs.StartSpan(ctx, "response.resolve", attribute.Int("promptLength", len(prompt)))
	defer span.End()

	intent := analysis.Intent

	if text, ok := o.cache.GetGeminiResponse(ctx, prompt); ok {
		o.analytics.cacheHitsGemini.Add(1)
		o.analytics.geminiResponses.Add(1)
		span.SetAttributes(attribute.Bool("cached", true))
		return &models.ChatResponse{
			Status:   http.StatusOK,
			Success:  true,
			Response: text,
			Metadata: &models.Metadata{
				Intent:       intent,
				ProcessedBy:  models.ProcessedByGemini,
				Cached:       true,
				Language:     lang,
				ResponseTime: o.elapsed(start),
				NLPAnalysis:  analysis,
			},
		}, nil
	}

	generated, err := o.generator.GenerateResponse(ctx, prompt, models.GenerateOptions{
		Language: lang,
		Mode:     models.ModeEnhanced,
	})
	o.analytics.geminiResponses.Add(1)
	if err != nil {
		return nil, fmt.Errorf("generate response: %w", err)
	}
	if generated == nil {
		return nil, ErrEmptyGeneration
	}

	if !generated.Success {
		o.analytics.errors.Add(1)
		o.logger.Error("response generation failed", map[string]interface{}{
			"intent":  intent,
			"error":   generated.Error,
			"blocked": generated.Blocked,
		})
		blocked := generated.Blocked
		return &models.ChatResponse{
			Status:  http.StatusInternalServerError,
			Success: false,
			Error:   generated.Error,
			Blocked: &blocked,
			Metadata: &models.Metadata{
				Intent:       intent,
				ProcessedBy:  models.ProcessedByGemini,
				Language:     lang,
				ResponseTime: o.elapsed(start),
				NLPAnalysis:  analysis,
			},
		}, nil
	}

	if err := o.cache.CacheGeminiResponse(ctx, prompt, generated.Response); err != nil {
		o.logger.Warn("failed to cache generated response", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return &models.ChatResponse{
		Status:   http.StatusOK,
		Success:  true,
		Response: generated.Response,
		Metadata: &models.Metadata{
			Intent:       intent,
			ProcessedBy:  models.ProcessedByGemini,
			Language:     lang,
			Model:        generated.Model,
			Usage:        generated.Usage,
			ResponseTime: o.elapsed(start),
			NLPAnalysis:  analysis,
		},
	}, nil
}

// internalError is the single place unexpected failures are turned into a
// response. Detail and stack are only exposed in development.
func (o *Orchestrator) internalError(start time.Time, lang models.Language, err error, stack []byte) *models.ChatResponse {
	o.analytics.errors.Add(1)
	o.logger.Error("chat request failed", map[string]interface{}{
		"error": err.Error(),
	})

	resp := failure(http.StatusInternalServerError, lang.Pick(
		"Đã có lỗi máy chủ xảy ra. Vui lòng thử lại sau.",
		"A server error occurred. Please try again later.",
	))
	resp.Metadata = &models.Metadata{ResponseTime: o.elapsed(start)}
	if o.config.isDevelopment() {
		resp.Metadata.Detail = err.Error()
		resp.Metadata.Stack = string(stack)
	}
	return resp
}

func (o *Orchestrator) record(ctx context.Context, resp *models.ChatResponse, start time.Time) {
	processedBy := "none"
	if resp.Metadata != nil && resp.Metadata.ProcessedBy != "" {
		processedBy = resp.Metadata.ProcessedBy
	}
	status := strconv.Itoa(resp.Status)

	metrics.ChatResponsesTotal.WithLabelValues(processedBy, status).Inc()
	o.obs.RecordChatProcessed(ctx, processedBy, status)
	o.obs.RecordChatDuration(ctx, o.now().Sub(start), processedBy)
}

func (o *Orchestrator) elapsed(start time.Time) int64 {
	return o.now().Sub(start).Milliseconds()
}

func failure(status int, message string) *models.ChatResponse {
	return &models.ChatResponse{
		Status:  status,
		Success: false,
		Error:   message,
	}
}

func errorText(fc *models.FinancialContext) string {
	if fc == nil {
		return "no data"
	}
	return fc.Error
}
