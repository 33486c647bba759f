package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vanlang-chatbot/internal/chatbot"
	"vanlang-chatbot/internal/common/auth"
	"vanlang-chatbot/internal/common/logger"
	"vanlang-chatbot/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeChat struct {
	requests []*models.ChatRequest
	response *models.ChatResponse
	clearErr error
	cleared  int
}

func (f *fakeChat) Handle(_ context.Context, req *models.ChatRequest) *models.ChatResponse {
	f.requests = append(f.requests, req)
	if f.response != nil {
		return f.response
	}
	if strings.TrimSpace(req.Message) == "" {
		return &models.ChatResponse{Status: http.StatusBadRequest, Error: "Tin nhắn không hợp lệ."}
	}
	return &models.ChatResponse{Status: http.StatusOK, Success: true, Response: "ok"}
}

func (f *fakeChat) GetAnalytics(context.Context) chatbot.AnalyticsReport {
	return chatbot.AnalyticsReport{ControllerAnalytics: chatbot.AnalyticsSnapshot{Requests: 3}}
}

func (f *fakeChat) HealthCheck(context.Context) chatbot.HealthReport {
	return chatbot.HealthReport{Status: models.StatusHealthy}
}

func (f *fakeChat) GetSystemStatus(context.Context) chatbot.SystemStatus {
	return chatbot.SystemStatus{Services: map[string]string{"chatbotService": "active"}}
}

func (f *fakeChat) ClearCache(context.Context) error {
	f.cleared++
	return f.clearErr
}

func newTestServer(t *testing.T, chat *fakeChat) *Server {
	return New(Config{}, chat, auth.HeaderAuthenticator{}, logger.NewTestLogger(t))
}

func do(s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

var admin = map[string]string{"X-User-ID": "u-1", "X-User-Role": "user, admin"}

// ==========================
// Chat Endpoint Tests
// ==========================

func TestEnhanced_PassesIdentityAndLanguage(t *testing.T) {
	chat := &fakeChat{}
	s := newTestServer(t, chat)

	rec := do(s, http.MethodPost, "/api/chatbot/enhanced", `{"message":"hello","language":"EN"}`,
		map[string]string{"X-User-ID": "u-42", "Content-Type": "application/json"})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, chat.requests, 1)
	assert.Equal(t, "u-42", chat.requests[0].UserID)
	assert.Equal(t, models.LanguageEnglish, chat.requests[0].Language)
	assert.Equal(t, "ok", decode(t, rec)["response"])
}

func TestEnhanced_AnonymousCallerReachesOrchestrator(t *testing.T) {
	chat := &fakeChat{response: &models.ChatResponse{Status: http.StatusUnauthorized, Error: "Unauthorized"}}
	s := newTestServer(t, chat)

	rec := do(s, http.MethodPost, "/api/chatbot/enhanced", `{"message":"hi"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Len(t, chat.requests, 1)
	assert.Empty(t, chat.requests[0].UserID)
	assert.Equal(t, models.LanguageVietnamese, chat.requests[0].Language)
}

func TestEnhanced_MalformedBodyBecomesEmptyMessage(t *testing.T) {
	chat := &fakeChat{}
	s := newTestServer(t, chat)

	rec := do(s, http.MethodPost, "/api/chatbot/enhanced", `{"message":`, admin)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, chat.requests, 1)
	assert.Empty(t, chat.requests[0].Message)
}

func TestLegacy_NotImplemented(t *testing.T) {
	s := newTestServer(t, &fakeChat{})

	rec := do(s, http.MethodPost, "/api/chatbot/legacy", `{}`, nil)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, legacyMessage, body["error"])
}

// ==========================
// Admin Endpoint Tests
// ==========================

func TestAdminRoutes_RequireAdminRole(t *testing.T) {
	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/chatbot/analytics"},
		{http.MethodPost, "/api/chatbot/clear-cache"},
		{http.MethodGet, "/api/chatbot/system-status"},
	}

	for _, route := range routes {
		t.Run(route.path, func(t *testing.T) {
			chat := &fakeChat{}
			s := newTestServer(t, chat)

			rec := do(s, route.method, route.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			rec = do(s, route.method, route.path, "", map[string]string{"X-User-ID": "u-2", "X-User-Role": "user"})
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, "Unauthorized", decode(t, rec)["error"])

			rec = do(s, route.method, route.path, "", admin)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestAnalytics_ReturnsReport(t *testing.T) {
	s := newTestServer(t, &fakeChat{})

	rec := do(s, http.MethodGet, "/api/chatbot/analytics", "", admin)

	require.Equal(t, http.StatusOK, rec.Code)
	analytics := decode(t, rec)["controllerAnalytics"].(map[string]interface{})
	assert.Equal(t, 3.0, analytics["requests"])
}

func TestClearCache(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		chat := &fakeChat{}
		s := newTestServer(t, chat)

		rec := do(s, http.MethodPost, "/api/chatbot/clear-cache", "", admin)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, chat.cleared)
		body := decode(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "All caches cleared successfully.", body["message"])
	})

	t.Run("failure", func(t *testing.T) {
		chat := &fakeChat{clearErr: errors.New("redis down")}
		s := newTestServer(t, chat)

		rec := do(s, http.MethodPost, "/api/chatbot/clear-cache", "", admin)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Failed to clear all caches", body["error"])
	})
}

func TestSystemStatus(t *testing.T) {
	s := newTestServer(t, &fakeChat{})

	rec := do(s, http.MethodGet, "/api/chatbot/system-status", "", admin)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	status := body["status"].(map[string]interface{})
	assert.Equal(t, "active", status["services"].(map[string]interface{})["chatbotService"])
}

// ==========================
// Public Endpoint Tests
// ==========================

func TestHealth_IsPublic(t *testing.T) {
	s := newTestServer(t, &fakeChat{})

	rec := do(s, http.MethodGet, "/api/chatbot/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusHealthy, decode(t, rec)["status"])
}

func TestReadyAndMetrics(t *testing.T) {
	s := newTestServer(t, &fakeChat{})

	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/ready", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/metrics", "", nil).Code)
}

func TestUnknownMethod(t *testing.T) {
	s := newTestServer(t, &fakeChat{})

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/chatbot/enhanced"},
		{http.MethodPost, "/api/chatbot/health"},
		{http.MethodGet, "/api/chatbot/clear-cache"},
		{http.MethodPost, "/ready"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(s, tt.method, tt.path, "", admin)

			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "Method not allowed", body["error"])
		})
	}

	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/chatbot/unknown", "", nil).Code)
}

// ==========================
// Middleware Tests
// ==========================

func TestRequestID(t *testing.T) {
	s := newTestServer(t, &fakeChat{})

	rec := do(s, http.MethodGet, "/api/chatbot/health", "", nil)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))

	rec = do(s, http.MethodGet, "/api/chatbot/health", "", map[string]string{HeaderRequestID: "req-7"})
	assert.Equal(t, "req-7", rec.Header().Get(HeaderRequestID))
}

func TestCORSPreflight(t *testing.T) {
	s := New(Config{AllowedOrigins: []string{"https://chat.vlu.edu.vn"}}, &fakeChat{}, nil, logger.NewTestLogger(t))

	rec := do(s, http.MethodOptions, "/api/chatbot/enhanced", "", map[string]string{
		"Origin":                         "https://chat.vlu.edu.vn",
		"Access-Control-Request-Method":  http.MethodPost,
		"Access-Control-Request-Headers": "content-type,x-user-id",
	})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://chat.vlu.edu.vn", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestCORSPreflight_UnknownOrigin(t *testing.T) {
	s := New(Config{AllowedOrigins: []string{"https://chat.vlu.edu.vn"}}, &fakeChat{}, nil, logger.NewTestLogger(t))

	rec := do(s, http.MethodOptions, "/api/chatbot/enhanced", "", map[string]string{
		"Origin":                         "https://evil.example",
		"Access-Control-Request-Method":  http.MethodPost,
		"Access-Control-Request-Headers": "content-type",
	})

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{BasePath: "api/chat/"}.withDefaults()

	assert.Equal(t, "/api/chat", cfg.BasePath)
	assert.Equal(t, "admin", cfg.AdminRole)
	assert.Equal(t, ":8080", cfg.Address)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}
