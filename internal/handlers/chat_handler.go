package handlers

import (
	"encoding/json"
	"net/http"

	"guardianai/internal/service"
)

// ChatHandler serves the AI chat endpoints. Each authenticated user
// gets one in-process chat session.
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// PostMessage handles POST /api/chat/messages
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		Content     string `json:"content"`
		Mood        string `json:"mood"`
		AssistantID string `json:"assistantId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", "", err)
		return
	}
	if req.Content == "" {
		respondWithError(w, http.StatusBadRequest, "content is required", "", nil)
		return
	}

	reply, err := h.chat.Post(r.Context(), user.ID, user.Role, req.Content, req.Mood, req.AssistantID)
	if err != nil {
		respondServiceError(w, "Failed to post message", err)
		return
	}

	respondJSON(w, http.StatusOK, reply)
}

// History handles GET /api/chat/messages
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	respondJSON(w, http.StatusOK, h.chat.History(user.ID))
}
