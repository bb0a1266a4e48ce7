package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/systemage/systemagego/internal/middleware"
	"github.com/systemage/systemagego/internal/models"
)

// ChatRequest is one user message to the report assistant.
type ChatRequest struct {
	Message string `json:"message"`
}

// chatHistory returns the conversation attached to a report.
func (r *Router) chatHistory(w http.ResponseWriter, req *http.Request) {
	report, ok := r.loadOwnedReport(w, req, false)
	if !ok {
		return
	}
	userID := middleware.UserIDFromContext(req.Context())

	conv, err := r.store.GetOrCreateConversation(req.Context(), userID, report.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load conversation")
		return
	}
	messages, err := r.store.ListMessages(req.Context(), conv.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load messages")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"conversationId": conv.ID,
		"messages":       messages,
	})
}

// chatMessage answers one question about a report. The report's extracted
// data is injected into the model context; the conversation history is
// persisted on both sides of the exchange.
func (r *Router) chatMessage(w http.ResponseWriter, req *http.Request) {
	if r.ai == nil {
		respondError(w, http.StatusServiceUnavailable, "Chat is not configured")
		return
	}

	report, ok := r.loadOwnedReport(w, req, true)
	if !ok {
		return
	}
	if report.ExtractionStatus != string(models.ExtractionCompleted) {
		respondError(w, http.StatusConflict, "Report extraction has not completed yet")
		return
	}

	var chatReq ChatRequest
	if err := json.NewDecoder(req.Body).Decode(&chatReq); err != nil || chatReq.Message == "" {
		respondError(w, http.StatusBadRequest, "Message is required")
		return
	}

	userID := middleware.UserIDFromContext(req.Context())
	conv, err := r.store.GetOrCreateConversation(req.Context(), userID, report.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load conversation")
		return
	}
	history, err := r.store.ListMessages(req.Context(), conv.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load messages")
		return
	}

	answer, err := r.ai.Chat(req.Context(), reportJSON(report), history, chatReq.Message)
	if err != nil {
		respondError(w, http.StatusBadGateway, "Assistant is unavailable, try again later")
		return
	}

	userMsg := &models.ChatMessage{ConversationID: conv.ID, Role: "user", Content: chatReq.Message}
	if err := r.store.AppendMessage(req.Context(), userMsg); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save message")
		return
	}
	assistantMsg := &models.ChatMessage{ConversationID: conv.ID, Role: "assistant", Content: answer}
	if err := r.store.AppendMessage(req.Context(), assistantMsg); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save message")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"conversationId": conv.ID,
		"answer":         answer,
	})
}
