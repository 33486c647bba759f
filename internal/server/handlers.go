package server

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "vanlang-chatbot/internal/common/errors"
	"vanlang-chatbot/internal/models"
)

const legacyMessage = "Legacy chatbot endpoint is not fully refactored. Please use the enhanced endpoint."

type enhancedRequest struct {
	Message  string `json:"message"`
	Language string `json:"language"`
}

// enhancedHandler forwards the chat to the orchestrator. A body that cannot
// be decoded is treated as an empty message so it is rejected and counted
// the same way as any other invalid input.
func (s *Server) enhancedHandler(w http.ResponseWriter, r *http.Request) {
	var body enhancedRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)).Decode(&body); err != nil {
		s.logger.Info("undecodable chat request", map[string]interface{}{
			"requestId": RequestID(r.Context()),
			"error":     err.Error(),
		})
		body.Message = ""
	}

	req := &models.ChatRequest{
		Message:  body.Message,
		Language: models.NormalizeLanguage(body.Language),
	}
	if id := IdentityFrom(r.Context()); id != nil {
		req.UserID = id.UserID
	}

	resp := s.chat.Handle(r.Context(), req)
	apperrors.WriteJSON(w, resp.Status, resp)
}

func (s *Server) legacyHandler(w http.ResponseWriter, r *http.Request) {
	s.errors.HandleHTTPError(w, r, apperrors.NewNotImplementedError(legacyMessage))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteJSON(w, http.StatusOK, s.chat.HealthCheck(r.Context()))
}

func (s *Server) analyticsHandler(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteJSON(w, http.StatusOK, s.chat.GetAnalytics(r.Context()))
}

func (s *Server) clearCacheHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.chat.ClearCache(r.Context()); err != nil {
		s.errors.HandleHTTPError(w, r, apperrors.NewInternalError("Failed to clear all caches", err))
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "All caches cleared successfully.",
	})
}

func (s *Server) systemStatusHandler(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  s.chat.GetSystemStatus(r.Context()),
	})
}

func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{
		"success": false,
		"error":   "Method not allowed",
	})
}
