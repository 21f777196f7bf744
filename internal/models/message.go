package models

import (
	"time"
)

// Message types. "system" entries are produced by the server itself.
const (
	MessageTypeMessage = "message"
	MessageTypeNote    = "note"
	MessageTypeSystem  = "system"
)

// Message represents one communication unit attached to a ticket.
// Ordering by created_at within a ticket is the only consistency
// guarantee consumers rely on.
type Message struct {
	ID             string     `json:"id" db:"id"`
	TicketID       string     `json:"ticket_id" db:"ticket_id"`
	SenderID       string     `json:"sender_id" db:"sender_id"`
	Content        string     `json:"content" db:"content"`
	MessageType    string     `json:"message_type" db:"message_type"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
	IsAIGenerated  bool       `json:"is_ai_generated" db:"is_ai_generated"`
	SentimentScore *float64   `json:"sentiment_score,omitempty" db:"sentiment_score"`

	// Joined fields.
	Sender      *User        `json:"sender,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// ValidateMessageType checks a message type string against the known set.
func ValidateMessageType(t string) bool {
	switch t {
	case MessageTypeMessage, MessageTypeNote, MessageTypeSystem:
		return true
	}
	return false
}

// Attachment represents file metadata attached to a message. Rows are
// created alongside the message and never mutated.
type Attachment struct {
	ID        string    `json:"id" db:"id"`
	MessageID string    `json:"message_id" db:"message_id"`
	Filename  string    `json:"filename" db:"filename"`
	FileSize  int64     `json:"file_size" db:"file_size"`
	FileType  string    `json:"file_type" db:"file_type"`
	FileURL   string    `json:"file_url" db:"file_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SendMessageRequest is the payload for POST /tickets/:id/messages.
type SendMessageRequest struct {
	Content     string       `json:"content" binding:"required"`
	MessageType string       `json:"message_type,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// TypingEvent is the ephemeral typing-indicator broadcast payload. It is
// never persisted and carries no delivery guarantee.
type TypingEvent struct {
	UserID   string `json:"user_id"`
	TicketID string `json:"ticket_id"`
	IsTyping bool   `json:"is_typing"`
}
