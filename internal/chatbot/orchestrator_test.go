package chatbot

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vanlang-chatbot/internal/cache"
	"vanlang-chatbot/internal/models"
	"vanlang-chatbot/internal/nlp"
)

// ==========================
// Test Logger Implementation
// ==========================

// TestLogger implements the Logger interface for testing
type TestLogger struct {
	t      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{
		t:      t,
		fields: make(map[string]interface{}),
	}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return &TestLogger{t: l.t, fields: l.mergeFields(fields)}
}

func (l *TestLogger) mergeFields(fields map[string]interface{}) map[string]interface{} {
	all := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		all[k] = v
	}
	for k, v := range fields {
		all[k] = v
	}
	return all
}

// ==========================
// Fakes
// ==========================

type fakeClassifier struct {
	mu      sync.Mutex
	calls   []string
	results map[string]*models.IntentResult
	err     error
	health  string
}

func (f *fakeClassifier) AnalyzeIntent(_ context.Context, message string) (*models.IntentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, message)
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.results[message]; ok {
		out := *r
		return &out, nil
	}
	return &models.IntentResult{Intent: models.IntentNone, Language: models.LanguageVietnamese}, nil
}

func (f *fakeClassifier) Health(context.Context) models.ServiceHealth {
	if f.health == "" {
		return models.ServiceHealth{Status: models.StatusHealthy}
	}
	return models.ServiceHealth{Status: f.health}
}

func (f *fakeClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	result  *models.GeneratedResponse
	err     error
	panics  bool
	health  string
}

func (f *fakeGenerator) GenerateResponse(_ context.Context, prompt string, opts models.GenerateOptions) (*models.GeneratedResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.panics {
		panic("generator exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		out := *f.result
		return &out, nil
	}
	return &models.GeneratedResponse{
		Success:  true,
		Response: "generated answer",
		Model:    "gemini-2.0-flash",
		Usage:    &models.Usage{PromptTokens: 10, CandidatesTokens: 20, TotalTokens: 30},
	}, nil
}

func (f *fakeGenerator) Health(context.Context) models.ServiceHealth {
	if f.health == "" {
		return models.ServiceHealth{Status: models.StatusHealthy}
	}
	return models.ServiceHealth{Status: f.health}
}

func (f *fakeGenerator) Model() string   { return "gemini-2.0-flash" }
func (f *fakeGenerator) HasAPIKey() bool { return true }

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeGenerator) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

type fakeFinance struct {
	data  *models.FinancialContext
	err   error
	calls int
}

func (f *fakeFinance) GetUserFinancialData(_ context.Context, _ string) (*models.FinancialContext, error) {
	f.calls++
	return f.data, f.err
}

func (f *fakeFinance) Health(context.Context) models.ServiceHealth {
	return models.ServiceHealth{Status: models.StatusHealthy}
}

// failingCache wraps the real cache and rejects every write.
type failingCache struct {
	*cache.Cache
}

func (f failingCache) CacheIntentAnalysis(context.Context, string, *models.IntentResult) error {
	return errors.New("redis down")
}

func (f failingCache) CacheGeminiResponse(context.Context, string, string) error {
	return errors.New("redis down")
}

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2025, time.March, 15, 14, 5, 9, 0, time.UTC)

type harness struct {
	orch       *Orchestrator
	cache      *cache.Cache
	classifier *fakeClassifier
	generator  *fakeGenerator
	finance    *fakeFinance
}

func createTestConfig() *Config {
	return &Config{
		Environment:         "production",
		MaxMessageLength:    DefaultMaxMessageLength,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		Location:            time.UTC,
	}
}

func newHarness(t *testing.T, cfg *Config) *harness {
	t.Helper()
	if cfg == nil {
		cfg = createTestConfig()
	}
	c := cache.New(cache.DefaultConfig(), nil, NewTestLogger(t))
	t.Cleanup(c.Close)

	h := &harness{
		cache: c,
		classifier: &fakeClassifier{results: map[string]*models.IntentResult{
			"chào bạn":            {Intent: models.IntentGreeting, Confidence: 0.9},
			"mấy giờ rồi":         {Intent: models.IntentTimeDate, Confidence: 0.9},
			"số dư của tôi":       {Intent: "balance.query", Confidence: 0.8},
			"tính lãi vay":        {Intent: "calculate.general", Confidence: 0.6},
			"hello maybe":         {Intent: models.IntentGreeting, Confidence: 0.2},
			"kể chuyện cười đi":   {Intent: models.IntentFallback, Confidence: 0.1},
			"tell me about money": {Intent: "financial.general", Confidence: 0.7},
		}},
		generator: &fakeGenerator{},
		finance: &fakeFinance{data: &models.FinancialContext{
			TotalBalance:       15000000,
			TotalIncomeAllTime: 20000000,
			Period:             models.Period{Month: 3, Year: 2025},
		}},
	}
	h.orch = NewOrchestrator(cfg, Dependencies{
		Classifier: h.classifier,
		Cache:      c,
		Finance:    h.finance,
		Generator:  h.generator,
	}, NewTestLogger(t))
	h.orch.now = func() time.Time { return fixedNow }
	return h
}

func chat(message string, lang models.Language) *models.ChatRequest {
	return &models.ChatRequest{Message: message, Language: lang, UserID: "user-1"}
}

// ==========================
// Rule-based replies
// ==========================

func TestHandle_GreetingIsRuleBased(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.orch.Handle(context.Background(), chat("chào bạn", models.LanguageVietnamese))

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.True(t, resp.Success)
	assert.Equal(t, "Chào bạn! Tôi là VanLangBot, trợ lý tài chính AI của bạn. Tôi có thể giúp gì cho bạn hôm nay? 💰", resp.Response)
	require.NotNil(t, resp.Metadata)
	assert.Equal(t, models.IntentGreeting, resp.Metadata.Intent)
	assert.Equal(t, models.ProcessedByRule, resp.Metadata.ProcessedBy)
	assert.Equal(t, models.LanguageVietnamese, resp.Metadata.Language)
	assert.NotNil(t, resp.Metadata.NLPAnalysis)

	stats := h.orch.Analytics().Snapshot()
	assert.Equal(t, int64(1), stats.Requests)
	assert.Equal(t, int64(1), stats.RuleBasedResponses)
	assert.Equal(t, int64(0), stats.GeminiResponses)
	assert.Equal(t, 0, h.generator.callCount())
}

func TestHandle_GreetingWithKeywordClassifier(t *testing.T) {
	h := newHarness(t, nil)
	h.orch.classifier = nlp.NewKeywordClassifier()

	resp := h.orch.Handle(context.Background(), chat("chào bạn", models.LanguageVietnamese))

	require.NotNil(t, resp.Metadata)
	assert.Equal(t, models.IntentGreeting, resp.Metadata.Intent)
	assert.Equal(t, models.ProcessedByRule, resp.Metadata.ProcessedBy)
}

func TestHandle_TimeDateUsesClock(t *testing.T) {
	h := newHarness(t, nil)

	vi := h.orch.Handle(context.Background(), chat("mấy giờ rồi", models.LanguageVietnamese))
	assert.Equal(t, "Bây giờ là 14:05:09 ngày 15/3/2025.", vi.Response)

	en := h.orch.Handle(context.Background(), chat("mấy giờ rồi", models.LanguageEnglish))
	assert.Equal(t, "The current time is 2:05:09 PM on 3/15/2025.", en.Response)
}

func TestHandle_FallbackIntentsReachGenerator(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{"None", "một câu hỏi lạ"},
		{"nlu.fallback", "kể chuyện cười đi"},
		{"low confidence greeting", "hello maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)

			resp := h.orch.Handle(context.Background(), chat(tt.message, models.LanguageVietnamese))

			assert.True(t, resp.Success)
			assert.Equal(t, models.ProcessedByGemini, resp.Metadata.ProcessedBy)
			assert.Equal(t, 1, h.generator.callCount())
			assert.Equal(t, int64(0), h.orch.Analytics().Snapshot().RuleBasedResponses)
		})
	}
}

// ==========================
// Validation and auth
// ==========================

func TestHandle_ValidationAndAuth(t *testing.T) {
	tests := []struct {
		name       string
		req        *models.ChatRequest
		wantStatus int
		wantError  string
	}{
		{"empty message", &models.ChatRequest{Message: "", Language: "vi", UserID: "u"}, http.StatusBadRequest, "Tin nhắn không hợp lệ."},
		{"whitespace message", &models.ChatRequest{Message: "   ", Language: "en", UserID: "u"}, http.StatusBadRequest, "Invalid message."},
		{"missing user", &models.ChatRequest{Message: "chào bạn", Language: "vi"}, http.StatusUnauthorized, "Xác thực thất bại. Vui lòng đăng nhập lại."},
		{"missing user english", &models.ChatRequest{Message: "hi", Language: "en"}, http.StatusUnauthorized, "Authentication failed. Please log in again."},
		{"validation checked before auth", &models.ChatRequest{Message: "", Language: "vi"}, http.StatusBadRequest, "Tin nhắn không hợp lệ."},
		{"nil request", nil, http.StatusBadRequest, "Tin nhắn không hợp lệ."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)

			resp := h.orch.Handle(context.Background(), tt.req)

			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantError, resp.Error)

			stats := h.orch.Analytics().Snapshot()
			assert.Equal(t, int64(1), stats.Requests)
			assert.Equal(t, int64(1), stats.Errors)
			assert.Equal(t, 0, h.classifier.callCount())
		})
	}
}

func TestHandle_MessageTooLong(t *testing.T) {
	cfg := createTestConfig()
	cfg.MaxMessageLength = 10
	h := newHarness(t, cfg)

	resp := h.orch.Handle(context.Background(), chat("ngân sách tháng này", models.LanguageVietnamese))

	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "Tin nhắn quá dài.", resp.Error)
}

// ==========================
// Caching
// ==========================

func TestHandle_IntentCachedAcrossCaseAndWhitespace(t *testing.T) {
	h := newHarness(t, nil)

	first := h.orch.Handle(context.Background(), chat("chào bạn", models.LanguageVietnamese))
	second := h.orch.Handle(context.Background(), chat("  CHÀO BẠN ", models.LanguageVietnamese))

	assert.Equal(t, 1, h.classifier.callCount())
	assert.Equal(t, []string{"chào bạn"}, h.classifier.calls)
	assert.Equal(t, int64(1), h.orch.Analytics().Snapshot().CacheHitsIntent)

	assert.Equal(t, first.Response, second.Response)
	assert.Equal(t, models.IntentSourceCache, second.Metadata.NLPAnalysis.Source)
}

func TestHandle_IntentCacheIgnoresForeignEntries(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	require.NoError(t, h.cache.CacheIntentAnalysis(ctx, cache.IntentKey("chào bạn"), &models.IntentResult{
		Intent: models.IntentFarewell,
		Source: "import",
	}))

	resp := h.orch.Handle(ctx, chat("chào bạn", models.LanguageVietnamese))

	assert.Equal(t, 1, h.classifier.callCount())
	assert.Equal(t, models.IntentGreeting, resp.Metadata.Intent)
	assert.Equal(t, int64(0), h.orch.Analytics().Snapshot().CacheHitsIntent)
}

func TestHandle_ResponseCachedByPrompt(t *testing.T) {
	h := newHarness(t, nil)

	first := h.orch.Handle(context.Background(), chat("kể chuyện cười đi", models.LanguageVietnamese))
	second := h.orch.Handle(context.Background(), chat("kể chuyện cười đi", models.LanguageVietnamese))

	assert.Equal(t, 1, h.generator.callCount())
	assert.False(t, first.Metadata.Cached)
	assert.Equal(t, "gemini-2.0-flash", first.Metadata.Model)
	assert.NotNil(t, first.Metadata.Usage)

	assert.True(t, second.Metadata.Cached)
	assert.Equal(t, "generated answer", second.Response)

	stats := h.orch.Analytics().Snapshot()
	assert.Equal(t, int64(2), stats.GeminiResponses)
	assert.Equal(t, int64(1), stats.CacheHitsGemini)
}

func TestHandle_ClearCacheForcesFreshCalls(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	h.orch.Handle(ctx, chat("kể chuyện cười đi", models.LanguageVietnamese))
	require.NoError(t, h.orch.ClearCache(ctx))
	resp := h.orch.Handle(ctx, chat("kể chuyện cười đi", models.LanguageVietnamese))

	assert.Equal(t, 2, h.classifier.callCount())
	assert.Equal(t, 2, h.generator.callCount())
	assert.False(t, resp.Metadata.Cached)
}

func TestHandle_CacheWriteFailuresAreIgnored(t *testing.T) {
	h := newHarness(t, nil)
	h.orch.cache = failingCache{h.cache}

	resp := h.orch.Handle(context.Background(), chat("kể chuyện cười đi", models.LanguageVietnamese))

	assert.True(t, resp.Success)
	assert.Equal(t, int64(0), h.orch.Analytics().Snapshot().Errors)
}

// ==========================
// Financial grounding
// ==========================

func TestHandle_FinancialContextAppended(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.orch.Handle(context.Background(), chat("số dư của tôi", models.LanguageVietnamese))

	assert.True(t, resp.Success)
	assert.Equal(t, 1, h.finance.calls)
	prompt := h.generator.lastPrompt()
	assert.Contains(t, prompt, `Người dùng muốn biết số dư hiện tại. Câu hỏi gốc: "số dư của tôi".`)
	assert.Contains(t, prompt, "Dữ liệu tài chính tham khảo:")
	assert.Contains(t, prompt, "💎 Số dư hiện tại: 15.000.000 VND")
}

func TestHandle_FinancialOutageDegrades(t *testing.T) {
	tests := []struct {
		name string
		lang models.Language
		data *models.FinancialContext
		want string
	}{
		{"vietnamese", models.LanguageVietnamese, &models.FinancialContext{Error: "X"}, "(Lưu ý: có lỗi khi truy xuất dữ liệu tài chính của bạn)"},
		{"english", models.LanguageEnglish, &models.FinancialContext{Error: "X"}, "(Note: error retrieving your financial data)"},
		{"nil snapshot", models.LanguageVietnamese, nil, "(Lưu ý: có lỗi khi truy xuất dữ liệu tài chính của bạn)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.finance.data = tt.data

			resp := h.orch.Handle(context.Background(), chat("số dư của tôi", tt.lang))

			assert.True(t, resp.Success)
			assert.Contains(t, h.generator.lastPrompt(), tt.want)
			assert.Equal(t, int64(0), h.orch.Analytics().Snapshot().Errors)
		})
	}
}

func TestHandle_NoFinanceProviderDegrades(t *testing.T) {
	h := newHarness(t, nil)
	h.orch.finance = nil

	resp := h.orch.Handle(context.Background(), chat("số dư của tôi", models.LanguageVietnamese))

	assert.True(t, resp.Success)
	assert.Contains(t, h.generator.lastPrompt(), "Lưu ý")
}

func TestHandle_NonFinancialQuestionSkipsFinance(t *testing.T) {
	h := newHarness(t, nil)

	h.orch.Handle(context.Background(), chat("kể chuyện cười đi", models.LanguageVietnamese))

	assert.Equal(t, 0, h.finance.calls)
	assert.Equal(t, "kể chuyện cười đi", h.generator.lastPrompt())
}

// ==========================
// Failures
// ==========================

func TestHandle_GenerationFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.generator.result = &models.GeneratedResponse{Success: false, Error: "CONTENT_BLOCKED: SAFETY", Blocked: true}

	resp := h.orch.Handle(context.Background(), chat("kể chuyện cười đi", models.LanguageVietnamese))

	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.False(t, resp.Success)
	assert.Equal(t, "CONTENT_BLOCKED: SAFETY", resp.Error)
	require.NotNil(t, resp.Blocked)
	assert.True(t, *resp.Blocked)
	assert.Equal(t, models.ProcessedByGemini, resp.Metadata.ProcessedBy)

	stats := h.orch.Analytics().Snapshot()
	assert.Equal(t, int64(1), stats.Errors)
	assert.Equal(t, int64(1), stats.GeminiResponses)

	// failures are not cached
	h.generator.result = nil
	again := h.orch.Handle(context.Background(), chat("kể chuyện cười đi", models.LanguageVietnamese))
	assert.True(t, again.Success)
	assert.Equal(t, 2, h.generator.callCount())
}

func TestHandle_UnexpectedErrors(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		setup       func(h *harness)
		wantDetail  bool
	}{
		{"classifier error in production", "production", func(h *harness) { h.classifier.err = errors.New("nlp down") }, false},
		{"classifier error in development", "development", func(h *harness) { h.classifier.err = errors.New("nlp down") }, true},
		{"generator error", "development", func(h *harness) { h.generator.err = context.DeadlineExceeded }, true},
		{"generator panic", "development", func(h *harness) { h.generator.panics = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createTestConfig()
			cfg.Environment = tt.environment
			h := newHarness(t, cfg)
			tt.setup(h)

			resp := h.orch.Handle(context.Background(), chat("kể chuyện cười đi", models.LanguageVietnamese))

			assert.Equal(t, http.StatusInternalServerError, resp.Status)
			assert.False(t, resp.Success)
			assert.Equal(t, "Đã có lỗi máy chủ xảy ra. Vui lòng thử lại sau.", resp.Error)
			require.NotNil(t, resp.Metadata)
			if tt.wantDetail {
				assert.NotEmpty(t, resp.Metadata.Detail)
				assert.NotEmpty(t, resp.Metadata.Stack)
			} else {
				assert.Empty(t, resp.Metadata.Detail)
				assert.Empty(t, resp.Metadata.Stack)
			}

			stats := h.orch.Analytics().Snapshot()
			assert.Equal(t, int64(1), stats.Requests)
			assert.Equal(t, int64(1), stats.Errors)
		})
	}
}

func TestHandle_UnexpectedErrorEnglish(t *testing.T) {
	h := newHarness(t, nil)
	h.classifier.err = errors.New("nlp down")

	resp := h.orch.Handle(context.Background(), chat("anything", models.LanguageEnglish))

	assert.Equal(t, "A server error occurred. Please try again later.", resp.Error)
}

// ==========================
// Concurrency
// ==========================

func TestHandle_ConcurrentRequestsCounted(t *testing.T) {
	h := newHarness(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.orch.Handle(context.Background(), chat("chào bạn", models.LanguageVietnamese))
		}()
	}
	wg.Wait()

	stats := h.orch.Analytics().Snapshot()
	assert.Equal(t, int64(20), stats.Requests)
	assert.Equal(t, int64(20), stats.RuleBasedResponses)
}
