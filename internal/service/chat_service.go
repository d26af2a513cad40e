package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"guardianai/internal/models"
)

// Responder produces AI replies for chat messages. The actual
// generator lives outside this service and is fully opaque here.
type Responder interface {
	Respond(ctx context.Context, role models.Role, content string) (string, error)
}

// CannedResponder is the placeholder responder used when no AI
// backend is configured
type CannedResponder struct{}

func (CannedResponder) Respond(ctx context.Context, role models.Role, content string) (string, error) {
	return "I'm here to help keep your family safe. An AI companion has not been configured yet.", nil
}

// ChatService keeps per-session message history and routes user
// messages through the responder. Sessions are append-only and live
// only as long as the process.
type ChatService struct {
	responder Responder
	mu        sync.Mutex
	sessions  map[string][]models.Message
}

// NewChatService creates a new chat service
func NewChatService(responder Responder) *ChatService {
	if responder == nil {
		responder = CannedResponder{}
	}
	return &ChatService{
		responder: responder,
		sessions:  make(map[string][]models.Message),
	}
}

// Post appends a user message to the session, obtains the AI reply and
// appends it as well. Returns the reply message.
func (s *ChatService) Post(ctx context.Context, sessionID string, role models.Role, content, mood, assistantID string) (*models.Message, error) {
	if content == "" {
		return nil, fmt.Errorf("message content is required")
	}

	userMessage := models.Message{
		ID:          uuid.New().String(),
		Content:     content,
		Sender:      models.SenderUser,
		Timestamp:   time.Now(),
		Mood:        mood,
		AssistantID: assistantID,
	}

	reply, err := s.responder.Respond(ctx, role, content)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reply: %w", err)
	}

	aiMessage := models.Message{
		ID:          uuid.New().String(),
		Content:     reply,
		Sender:      models.SenderAI,
		Timestamp:   time.Now(),
		AssistantID: assistantID,
	}

	s.mu.Lock()
	s.sessions[sessionID] = append(s.sessions[sessionID], userMessage, aiMessage)
	s.mu.Unlock()

	return &aiMessage, nil
}

// History returns a copy of the session's messages in order
func (s *ChatService) History(sessionID string) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := s.sessions[sessionID]
	copied := make([]models.Message, len(messages))
	copy(copied, messages)
	return copied
}
