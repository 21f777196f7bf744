package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportdesk-io/supportdesk-ce/internal/ai"
	"github.com/supportdesk-io/supportdesk-ce/internal/models"
	"github.com/supportdesk-io/supportdesk-ce/internal/repository"
)

type fakeTicketStore struct {
	tickets map[string]*models.Ticket
	created *models.Ticket
}

func newFakeTicketStore(tickets ...*models.Ticket) *fakeTicketStore {
	s := &fakeTicketStore{tickets: make(map[string]*models.Ticket)}
	for _, t := range tickets {
		s.tickets[t.ID] = t
	}
	return s
}

func (s *fakeTicketStore) List(_ context.Context, viewerID, role string, _ models.TicketFilters, _ models.TicketSort, _ models.Pagination) (*models.TicketListResponse, error) {
	resp := &models.TicketListResponse{Tickets: []models.Ticket{}}
	for _, t := range s.tickets {
		if t.CanBeViewedBy(viewerID, role) {
			resp.Tickets = append(resp.Tickets, *t)
		}
	}
	resp.Total = len(resp.Tickets)
	return resp, nil
}

func (s *fakeTicketStore) GetByID(_ context.Context, id string) (*models.Ticket, error) {
	t, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	return t, nil
}

func (s *fakeTicketStore) Create(_ context.Context, ticket *models.Ticket) error {
	ticket.ID = "t-created"
	ticket.TicketNumber = "TKT-20250901-00001"
	s.tickets[ticket.ID] = ticket
	s.created = ticket
	return nil
}

func (s *fakeTicketStore) Update(_ context.Context, id string, req *models.TicketUpdateRequest) (*models.Ticket, error) {
	t, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.Title != nil {
		t.Title = *req.Title
	}
	return t, nil
}

func (s *fakeTicketStore) Assign(_ context.Context, id, agentID string) (*models.Ticket, error) {
	t, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	t.AgentID = &agentID
	t.Status = models.StatusInProgress
	return t, nil
}

func (s *fakeTicketStore) Delete(_ context.Context, id string) error {
	if _, ok := s.tickets[id]; !ok {
		return repository.ErrTicketNotFound
	}
	delete(s.tickets, id)
	return nil
}

type fakeUserLookup struct {
	users map[string]*models.User
}

func (f *fakeUserLookup) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	return u, nil
}

type fakePublisher struct {
	ticketEvents  []*models.Ticket
	messageEvents []*models.Message
}

func (f *fakePublisher) PublishTicketUpdated(t *models.Ticket) { f.ticketEvents = append(f.ticketEvents, t) }
func (f *fakePublisher) PublishMessageInserted(_ string, m *models.Message) {
	f.messageEvents = append(f.messageEvents, m)
}

type fakeClassifier struct {
	result ai.Classification
	calls  int
}

func (f *fakeClassifier) ClassifyTicket(context.Context, string, string) ai.Classification {
	f.calls++
	return f.result
}

func agentPtr(id string) *string { return &id }

func sampleUsers() (customer, agent, admin *models.User) {
	customer = &models.User{ID: "cust-1", Role: models.RoleCustomer}
	agent = &models.User{ID: "agent-1", Role: models.RoleAgent}
	admin = &models.User{ID: "admin-1", Role: models.RoleAdmin}
	return
}

func TestTicketServiceGet(t *testing.T) {
	ctx := context.Background()
	customer, agent, admin := sampleUsers()

	own := &models.Ticket{ID: "t-own", CustomerID: "cust-1"}
	foreignAssigned := &models.Ticket{ID: "t-foreign", CustomerID: "cust-2", AgentID: agentPtr("agent-2")}
	unassigned := &models.Ticket{ID: "t-pool", CustomerID: "cust-2"}

	store := newFakeTicketStore(own, foreignAssigned, unassigned)
	svc := NewTicketService(store, &fakeUserLookup{}, nil, nil)

	t.Run("customer reads own ticket", func(t *testing.T) {
		got, err := svc.Get(ctx, customer, "t-own")
		require.NoError(t, err)
		assert.Equal(t, "t-own", got.ID)
	})

	t.Run("customer blocked from foreign ticket", func(t *testing.T) {
		_, err := svc.Get(ctx, customer, "t-pool")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("agent reads the unassigned pool but not another agent's ticket", func(t *testing.T) {
		_, err := svc.Get(ctx, agent, "t-pool")
		require.NoError(t, err)

		_, err = svc.Get(ctx, agent, "t-foreign")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin reads everything", func(t *testing.T) {
		_, err := svc.Get(ctx, admin, "t-foreign")
		assert.NoError(t, err)
	})

	t.Run("missing ticket", func(t *testing.T) {
		_, err := svc.Get(ctx, admin, "ghost")
		assert.ErrorIs(t, err, repository.ErrTicketNotFound)
	})
}

func TestTicketServiceCreate(t *testing.T) {
	ctx := context.Background()
	customer, _, _ := sampleUsers()

	t.Run("applies defaults and stores classification", func(t *testing.T) {
		store := newFakeTicketStore()
		classifier := &fakeClassifier{result: ai.Classification{
			Priority: "high", Category: "technical", EstimatedResolutionTime: "4-8 hours",
		}}
		svc := NewTicketService(store, &fakeUserLookup{}, nil, classifier)

		got, err := svc.Create(ctx, customer, &models.TicketCreateRequest{
			Title:       "Cannot log in",
			Description: "Password reset loops forever",
			Category:    "account",
		})
		require.NoError(t, err)
		assert.Equal(t, models.PriorityMedium, got.Priority)
		assert.Equal(t, models.StatusOpen, got.Status)
		assert.Equal(t, "cust-1", got.CustomerID)
		assert.Equal(t, "TKT-20250901-00001", got.TicketNumber)
		assert.Equal(t, 1, classifier.calls)
		require.NotNil(t, got.EstimatedResolution)
		assert.Equal(t, "4-8 hours", *got.EstimatedResolution)
		require.Contains(t, got.Metadata, "classification")
	})

	t.Run("explicit priority wins over the default", func(t *testing.T) {
		store := newFakeTicketStore()
		svc := NewTicketService(store, &fakeUserLookup{}, nil, nil)

		got, err := svc.Create(ctx, customer, &models.TicketCreateRequest{
			Title: "x", Description: "y", Category: "general", Priority: models.PriorityUrgent,
		})
		require.NoError(t, err)
		assert.Equal(t, models.PriorityUrgent, got.Priority)
	})

	t.Run("invalid priority rejected", func(t *testing.T) {
		svc := NewTicketService(newFakeTicketStore(), &fakeUserLookup{}, nil, nil)
		_, err := svc.Create(ctx, customer, &models.TicketCreateRequest{
			Title: "x", Description: "y", Category: "general", Priority: "extreme",
		})
		assert.Error(t, err)
	})
}

func TestTicketServiceUpdate(t *testing.T) {
	ctx := context.Background()
	customer, _, admin := sampleUsers()

	t.Run("publishes the updated ticket", func(t *testing.T) {
		store := newFakeTicketStore(&models.Ticket{ID: "t-1", CustomerID: "cust-1"})
		pub := &fakePublisher{}
		svc := NewTicketService(store, &fakeUserLookup{}, pub, nil)

		status := models.StatusResolved
		got, err := svc.Update(ctx, admin, "t-1", &models.TicketUpdateRequest{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, models.StatusResolved, got.Status)
		require.Len(t, pub.ticketEvents, 1)
	})

	t.Run("scoping applies before the write", func(t *testing.T) {
		store := newFakeTicketStore(&models.Ticket{ID: "t-1", CustomerID: "cust-2"})
		svc := NewTicketService(store, &fakeUserLookup{}, nil, nil)

		status := models.StatusClosed
		_, err := svc.Update(ctx, customer, "t-1", &models.TicketUpdateRequest{Status: &status})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		store := newFakeTicketStore(&models.Ticket{ID: "t-1", CustomerID: "cust-1"})
		svc := NewTicketService(store, &fakeUserLookup{}, nil, nil)

		status := "done"
		_, err := svc.Update(ctx, admin, "t-1", &models.TicketUpdateRequest{Status: &status})
		assert.Error(t, err)
	})

	t.Run("empty patch is a read", func(t *testing.T) {
		store := newFakeTicketStore(&models.Ticket{ID: "t-1", CustomerID: "cust-1"})
		pub := &fakePublisher{}
		svc := NewTicketService(store, &fakeUserLookup{}, pub, nil)

		_, err := svc.Update(ctx, admin, "t-1", &models.TicketUpdateRequest{})
		require.NoError(t, err)
		assert.Empty(t, pub.ticketEvents)
	})
}

func TestTicketServiceAssign(t *testing.T) {
	ctx := context.Background()
	_, agent, admin := sampleUsers()

	users := &fakeUserLookup{users: map[string]*models.User{
		"agent-1": agent,
		"cust-9":  {ID: "cust-9", Role: models.RoleCustomer},
	}}

	t.Run("assigns and forces in_progress", func(t *testing.T) {
		store := newFakeTicketStore(&models.Ticket{ID: "t-1", CustomerID: "cust-1", Status: models.StatusOpen})
		pub := &fakePublisher{}
		svc := NewTicketService(store, users, pub, nil)

		got, err := svc.Assign(ctx, admin, "t-1", "agent-1")
		require.NoError(t, err)
		require.NotNil(t, got.AgentID)
		assert.Equal(t, "agent-1", *got.AgentID)
		assert.Equal(t, models.StatusInProgress, got.Status)
		assert.Len(t, pub.ticketEvents, 1)
	})

	t.Run("rejects assigning to a customer", func(t *testing.T) {
		store := newFakeTicketStore(&models.Ticket{ID: "t-1", CustomerID: "cust-1"})
		svc := NewTicketService(store, users, nil, nil)

		_, err := svc.Assign(ctx, admin, "t-1", "cust-9")
		assert.ErrorIs(t, err, ErrNotAnAgent)
	})
}
