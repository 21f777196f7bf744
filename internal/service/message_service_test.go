package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportdesk-io/supportdesk-ce/internal/models"
)

type fakeMessageStore struct {
	sent          []*models.Message
	lastSenderAgt bool
	listed        []models.Message
}

func (f *fakeMessageStore) ListByTicket(context.Context, string) ([]models.Message, error) {
	return f.listed, nil
}

func (f *fakeMessageStore) Send(_ context.Context, msg *models.Message, senderIsAgent bool) error {
	msg.ID = "m-created"
	f.sent = append(f.sent, msg)
	f.lastSenderAgt = senderIsAgent
	return nil
}

func TestMessageServiceSend(t *testing.T) {
	ctx := context.Background()
	customer, agent, admin := sampleUsers()
	ticket := &models.Ticket{ID: "t-1", CustomerID: "cust-1", AgentID: agentPtr("agent-1")}

	t.Run("sanitizes content and defaults the type", func(t *testing.T) {
		store := &fakeMessageStore{}
		pub := &fakePublisher{}
		svc := NewMessageService(store, newFakeTicketStore(ticket), pub)

		got, err := svc.Send(ctx, customer, "t-1", &models.SendMessageRequest{
			Content: `Hello <script>alert("x")</script><b>there</b>`,
		})
		require.NoError(t, err)
		assert.Equal(t, "Hello <b>there</b>", got.Content)
		assert.Equal(t, models.MessageTypeMessage, got.MessageType)
		assert.Equal(t, customer, got.Sender)
		require.Len(t, pub.messageEvents, 1)
		assert.Equal(t, got, pub.messageEvents[0])
	})

	t.Run("agent reply stamps the first response", func(t *testing.T) {
		store := &fakeMessageStore{}
		svc := NewMessageService(store, newFakeTicketStore(ticket), nil)

		_, err := svc.Send(ctx, agent, "t-1", &models.SendMessageRequest{Content: "On it"})
		require.NoError(t, err)
		assert.True(t, store.lastSenderAgt)
	})

	t.Run("admin reply does not count as first response", func(t *testing.T) {
		store := &fakeMessageStore{}
		svc := NewMessageService(store, newFakeTicketStore(ticket), nil)

		_, err := svc.Send(ctx, admin, "t-1", &models.SendMessageRequest{Content: "Escalating"})
		require.NoError(t, err)
		assert.False(t, store.lastSenderAgt)
	})

	t.Run("viewer without access is rejected before the write", func(t *testing.T) {
		store := &fakeMessageStore{}
		foreign := &models.Ticket{ID: "t-2", CustomerID: "cust-2", AgentID: agentPtr("agent-2")}
		svc := NewMessageService(store, newFakeTicketStore(foreign), nil)

		_, err := svc.Send(ctx, customer, "t-2", &models.SendMessageRequest{Content: "hi"})
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Empty(t, store.sent)
	})

	t.Run("invalid message type rejected", func(t *testing.T) {
		svc := NewMessageService(&fakeMessageStore{}, newFakeTicketStore(ticket), nil)
		_, err := svc.Send(ctx, customer, "t-1", &models.SendMessageRequest{
			Content: "hi", MessageType: "broadcast",
		})
		assert.Error(t, err)
	})
}

func TestMessageServiceListByTicket(t *testing.T) {
	ctx := context.Background()
	customer, _, _ := sampleUsers()
	ticket := &models.Ticket{ID: "t-1", CustomerID: "cust-1"}

	store := &fakeMessageStore{listed: []models.Message{{ID: "m-1"}, {ID: "m-2"}}}
	svc := NewMessageService(store, newFakeTicketStore(ticket), nil)

	got, err := svc.ListByTicket(ctx, customer, "t-1")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = svc.ListByTicket(ctx, &models.User{ID: "cust-2", Role: models.RoleCustomer}, "t-1")
	assert.ErrorIs(t, err, ErrForbidden)
}
