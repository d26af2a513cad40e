package models

import "time"

// MessageSender tags who produced a chat message
type MessageSender string

const (
	SenderUser MessageSender = "user"
	SenderAI   MessageSender = "ai"
)

// Message is one entry in a chat session. Sessions are append-only and
// live only as long as the process.
type Message struct {
	ID          string        `json:"id"`
	Content     string        `json:"content"`
	Sender      MessageSender `json:"sender"`
	Timestamp   time.Time     `json:"timestamp"`
	Mood        string        `json:"mood,omitempty"`
	AssistantID string        `json:"assistantId,omitempty"`
}
