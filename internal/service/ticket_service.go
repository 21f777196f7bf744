package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/supportdesk-io/supportdesk-ce/internal/ai"
	"github.com/supportdesk-io/supportdesk-ce/internal/models"
)

var (
	// ErrForbidden is returned when role scoping denies access to a ticket.
	ErrForbidden = errors.New("access denied")
	ErrNotAnAgent = errors.New("assignee is not an agent")
)

// TicketStore is the repository surface the ticket service needs.
type TicketStore interface {
	List(ctx context.Context, viewerID, role string, filters models.TicketFilters, sort models.TicketSort, page models.Pagination) (*models.TicketListResponse, error)
	GetByID(ctx context.Context, id string) (*models.Ticket, error)
	Create(ctx context.Context, ticket *models.Ticket) error
	Update(ctx context.Context, id string, req *models.TicketUpdateRequest) (*models.Ticket, error)
	Assign(ctx context.Context, id, agentID string) (*models.Ticket, error)
	Delete(ctx context.Context, id string) error
}

// UserLookup resolves assignee profiles.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// TicketPublisher is the realtime fan-out surface for ticket changes.
type TicketPublisher interface {
	PublishTicketUpdated(ticket *models.Ticket)
}

// Classifier is the AI classification surface. It never fails; on trouble it
// yields its fallback.
type Classifier interface {
	ClassifyTicket(ctx context.Context, title, description string) ai.Classification
}

type TicketService struct {
	tickets    TicketStore
	users      UserLookup
	publisher  TicketPublisher
	classifier Classifier
}

func NewTicketService(tickets TicketStore, users UserLookup, publisher TicketPublisher, classifier Classifier) *TicketService {
	return &TicketService{tickets: tickets, users: users, publisher: publisher, classifier: classifier}
}

// List returns tickets the viewer may see, narrowed by their filters.
func (s *TicketService) List(ctx context.Context, viewer *models.User, filters models.TicketFilters, sort models.TicketSort, page models.Pagination) (*models.TicketListResponse, error) {
	return s.tickets.List(ctx, viewer.ID, viewer.Role, filters, sort, page)
}

// Get loads one ticket and enforces role scoping on it.
func (s *TicketService) Get(ctx context.Context, viewer *models.User, id string) (*models.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ticket.CanBeViewedBy(viewer.ID, viewer.Role) {
		return nil, ErrForbidden
	}
	return ticket, nil
}

// Create opens a ticket for the caller. Priority defaults to medium and
// status to open. Classification is best effort; its result lands in the
// ticket metadata and never blocks creation.
func (s *TicketService) Create(ctx context.Context, viewer *models.User, req *models.TicketCreateRequest) (*models.Ticket, error) {
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidatePriority(priority) {
		return nil, fmt.Errorf("invalid priority: %s", req.Priority)
	}

	ticket := &models.Ticket{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    priority,
		Status:      models.StatusOpen,
		CustomerID:  viewer.ID,
		Tags:        req.Tags,
	}

	if s.classifier != nil {
		c := s.classifier.ClassifyTicket(ctx, req.Title, req.Description)
		ticket.Metadata = models.JSONMap{
			"classification": map[string]any{
				"priority":                c.Priority,
				"category":                c.Category,
				"estimatedResolutionTime": c.EstimatedResolutionTime,
			},
		}
		ticket.EstimatedResolution = &c.EstimatedResolutionTime
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Update applies a partial patch after the scoping check.
func (s *TicketService) Update(ctx context.Context, viewer *models.User, id string, req *models.TicketUpdateRequest) (*models.Ticket, error) {
	if req.IsEmpty() {
		return s.Get(ctx, viewer, id)
	}
	if req.Status != nil && !models.ValidateStatus(*req.Status) {
		return nil, fmt.Errorf("invalid status: %s", *req.Status)
	}
	if req.Priority != nil && !models.ValidatePriority(*req.Priority) {
		return nil, fmt.Errorf("invalid priority: %s", *req.Priority)
	}

	if _, err := s.Get(ctx, viewer, id); err != nil {
		return nil, err
	}

	ticket, err := s.tickets.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if s.publisher != nil {
		s.publisher.PublishTicketUpdated(ticket)
	}
	return ticket, nil
}

// Assign hands the ticket to an agent and moves it to in_progress.
func (s *TicketService) Assign(ctx context.Context, viewer *models.User, id, agentID string) (*models.Ticket, error) {
	if _, err := s.Get(ctx, viewer, id); err != nil {
		return nil, err
	}

	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if !agent.IsAgent() && !agent.IsAdmin() {
		return nil, ErrNotAnAgent
	}

	ticket, err := s.tickets.Assign(ctx, id, agentID)
	if err != nil {
		return nil, err
	}
	if s.publisher != nil {
		s.publisher.PublishTicketUpdated(ticket)
	}
	return ticket, nil
}

// Delete removes a ticket. Role gating happens at the route; scoping still
// applies here.
func (s *TicketService) Delete(ctx context.Context, viewer *models.User, id string) error {
	if _, err := s.Get(ctx, viewer, id); err != nil {
		return err
	}
	return s.tickets.Delete(ctx, id)
}
