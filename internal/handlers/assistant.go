package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/fitmind/assistant/internal/engine"
	"github.com/fitmind/assistant/internal/request"
	"github.com/fitmind/assistant/internal/validation"
)

const (
	// MaxMessageLength is the maximum length for an incoming message
	MaxMessageLength = 4000
)

// AssistantHandler handles conversational requests
type AssistantHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(eng *engine.Engine, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{engine: eng, logger: logger}
}

// RegisterRoutes registers assistant routes on the given router.
// The router should already have the /assistant prefix.
func (h *AssistantHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/answer", h.Answer).Methods("POST")
	r.HandleFunc("/history", h.History).Methods("GET")
}

// AnswerRequest represents an incoming conversational turn
type AnswerRequest struct {
	Message  string `json:"message" validate:"required,min=1,max=4000"`
	Language string `json:"language,omitempty" validate:"language_code"`
}

// Answer runs one conversational turn for the authenticated user
func (h *AssistantHandler) Answer(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}

	req.Message = validation.SanitizeText(req.Message)
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %v", err))
		return
	}

	language := req.Language
	if language == "" {
		language = user.Language
	}

	result, err := h.engine.Answer(r.Context(), user.ID, req.Message, language)
	if err != nil {
		if errors.Is(err, engine.ErrEmptyMessage) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Message must not be empty")
			return
		}
		h.logger.Error("answer_failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to process message")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// History returns the user's recent messages, newest first
func (h *AssistantHandler) History(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	messages, err := h.engine.History(r.Context(), user.ID, limit)
	if err != nil {
		h.logger.Error("history_failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"messages": messages,
		"count":    len(messages),
	})
}
