package realtime

import (
	"time"

	"github.com/supportdesk-io/supportdesk-ce/internal/models"
)

type EventType string

const (
	EventMessageInserted EventType = "message_inserted"
	EventMessageUpdated  EventType = "message_updated"
	EventTicketUpdated   EventType = "ticket_updated"
	EventTyping          EventType = "typing"
)

// Event is the typed frame fanned out to every subscriber of a ticket
// channel. Exactly one payload field is set, matching Type.
type Event struct {
	Type      EventType           `json:"type"`
	TicketID  string              `json:"ticket_id"`
	Message   *models.Message     `json:"message,omitempty"`
	Ticket    *models.Ticket      `json:"ticket,omitempty"`
	Typing    *models.TypingEvent `json:"typing,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}
