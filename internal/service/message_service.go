package service

import (
	"context"
	"fmt"

	"github.com/microcosm-cc/bluemonday"

	"github.com/supportdesk-io/supportdesk-ce/internal/models"
)

// MessageStore is the repository surface the message service needs.
type MessageStore interface {
	ListByTicket(ctx context.Context, ticketID string) ([]models.Message, error)
	Send(ctx context.Context, msg *models.Message, senderIsAgent bool) error
}

// MessagePublisher is the realtime fan-out surface for message changes.
type MessagePublisher interface {
	PublishMessageInserted(ticketID string, msg *models.Message)
}

type MessageService struct {
	messages  MessageStore
	tickets   TicketStore
	publisher MessagePublisher
	sanitizer *bluemonday.Policy
}

func NewMessageService(messages MessageStore, tickets TicketStore, publisher MessagePublisher) *MessageService {
	return &MessageService{
		messages:  messages,
		tickets:   tickets,
		publisher: publisher,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// ListByTicket returns the conversation oldest first, after the scoping
// check on the parent ticket.
func (s *MessageService) ListByTicket(ctx context.Context, viewer *models.User, ticketID string) ([]models.Message, error) {
	if err := s.checkAccess(ctx, viewer, ticketID); err != nil {
		return nil, err
	}
	return s.messages.ListByTicket(ctx, ticketID)
}

// Send appends a message to the ticket. The insert, the ticket's updated_at
// bump and the conditional first-response stamp commit atomically; the
// realtime event goes out only after the commit.
func (s *MessageService) Send(ctx context.Context, viewer *models.User, ticketID string, req *models.SendMessageRequest) (*models.Message, error) {
	if err := s.checkAccess(ctx, viewer, ticketID); err != nil {
		return nil, err
	}

	messageType := req.MessageType
	if messageType == "" {
		messageType = models.MessageTypeMessage
	}
	if !models.ValidateMessageType(messageType) {
		return nil, fmt.Errorf("invalid message type: %s", req.MessageType)
	}

	msg := &models.Message{
		TicketID:    ticketID,
		SenderID:    viewer.ID,
		Content:     s.sanitizer.Sanitize(req.Content),
		MessageType: messageType,
		Attachments: req.Attachments,
	}

	// Only a real agent reply counts as the first response.
	if err := s.messages.Send(ctx, msg, viewer.IsAgent()); err != nil {
		return nil, err
	}

	msg.Sender = viewer
	if s.publisher != nil {
		s.publisher.PublishMessageInserted(ticketID, msg)
	}
	return msg, nil
}

func (s *MessageService) checkAccess(ctx context.Context, viewer *models.User, ticketID string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if !ticket.CanBeViewedBy(viewer.ID, viewer.Role) {
		return ErrForbidden
	}
	return nil
}
