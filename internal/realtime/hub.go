package realtime

import (
	"log"
	"sync"
	"time"

	"github.com/supportdesk-io/supportdesk-ce/internal/models"
)

// DefaultTypingTTL is how long a typing indicator survives without a
// refresh. A dropped stopped-typing frame expires instead of sticking.
const DefaultTypingTTL = 5 * time.Second

// Hub manages all active subscriptions. Clients subscribe to one ticket
// channel; events for that ticket fan out to every subscriber.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	done       chan struct{}

	mu       sync.RWMutex
	byTicket map[string]map[*Client]struct{}

	typingMu  sync.Mutex
	typing    map[string]map[string]time.Time
	typingTTL time.Duration
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 64),
		done:       make(chan struct{}),
		byTicket:   make(map[string]map[*Client]struct{}),
		typing:     make(map[string]map[string]time.Time),
		typingTTL:  DefaultTypingTTL,
	}
}

// Run processes registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	sweep := time.NewTicker(time.Second)
	defer sweep.Stop()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			subs, ok := h.byTicket[client.ticketID]
			if !ok {
				subs = make(map[*Client]struct{})
				h.byTicket[client.ticketID] = subs
			}
			subs[client] = struct{}{}
			h.mu.Unlock()
			log.Printf("realtime: client subscribed ticket=%s user=%s", client.ticketID, client.userID)

		case client := <-h.unregister:
			h.dropClient(client)

		case event := <-h.broadcast:
			h.fanOut(event)

		case <-sweep.C:
			h.expireTyping()

		case <-h.done:
			return
		}
	}
}

// Stop terminates the Run loop.
func (h *Hub) Stop() { close(h.done) }

func (h *Hub) dropClient(client *Client) {
	h.mu.Lock()
	if subs, ok := h.byTicket[client.ticketID]; ok {
		if _, present := subs[client]; present {
			delete(subs, client)
			close(client.send)
			if len(subs) == 0 {
				delete(h.byTicket, client.ticketID)
			}
		}
	}
	h.mu.Unlock()
}

// fanOut delivers the event to every subscriber of its ticket. Clients that
// cannot keep up are evicted rather than blocking the hub.
func (h *Hub) fanOut(event Event) {
	h.mu.Lock()
	subs := h.byTicket[event.TicketID]
	var slow []*Client
	for client := range subs {
		select {
		case client.send <- event:
		default:
			slow = append(slow, client)
		}
	}
	for _, client := range slow {
		delete(subs, client)
		close(client.send)
		log.Printf("realtime: evicted slow client ticket=%s user=%s", client.ticketID, client.userID)
	}
	if len(subs) == 0 {
		delete(h.byTicket, event.TicketID)
	}
	h.mu.Unlock()
}

// PublishMessageInserted notifies a ticket channel about a new message.
func (h *Hub) PublishMessageInserted(ticketID string, msg *models.Message) {
	h.publish(Event{Type: EventMessageInserted, TicketID: ticketID, Message: msg, Timestamp: time.Now()})
}

// PublishMessageUpdated notifies a ticket channel about an edited message.
func (h *Hub) PublishMessageUpdated(ticketID string, msg *models.Message) {
	h.publish(Event{Type: EventMessageUpdated, TicketID: ticketID, Message: msg, Timestamp: time.Now()})
}

// PublishTicketUpdated notifies a ticket channel that the ticket row changed.
func (h *Hub) PublishTicketUpdated(ticket *models.Ticket) {
	h.publish(Event{Type: EventTicketUpdated, TicketID: ticket.ID, Ticket: ticket, Timestamp: time.Now()})
}

// SetTyping records and broadcasts a typing indicator. Indicators are
// ephemeral: nothing is persisted and delivery is best effort.
func (h *Hub) SetTyping(ticketID, userID string, isTyping bool) {
	h.typingMu.Lock()
	users, ok := h.typing[ticketID]
	if isTyping {
		if !ok {
			users = make(map[string]time.Time)
			h.typing[ticketID] = users
		}
		users[userID] = time.Now().Add(h.typingTTL)
	} else if ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(h.typing, ticketID)
		}
	}
	h.typingMu.Unlock()

	h.publish(Event{
		Type:      EventTyping,
		TicketID:  ticketID,
		Typing:    &models.TypingEvent{UserID: userID, TicketID: ticketID, IsTyping: isTyping},
		Timestamp: time.Now(),
	})
}

// TypingUsers returns who is currently typing on a ticket.
func (h *Hub) TypingUsers(ticketID string) []string {
	h.typingMu.Lock()
	defer h.typingMu.Unlock()

	now := time.Now()
	var users []string
	for userID, deadline := range h.typing[ticketID] {
		if deadline.After(now) {
			users = append(users, userID)
		}
	}
	return users
}

// expireTyping drops stale indicators and broadcasts the synthetic
// stopped-typing events.
func (h *Hub) expireTyping() {
	now := time.Now()

	type expired struct{ ticketID, userID string }
	var gone []expired

	h.typingMu.Lock()
	for ticketID, users := range h.typing {
		for userID, deadline := range users {
			if !deadline.After(now) {
				delete(users, userID)
				gone = append(gone, expired{ticketID, userID})
			}
		}
		if len(users) == 0 {
			delete(h.typing, ticketID)
		}
	}
	h.typingMu.Unlock()

	// Called from the Run loop, so fan out directly instead of re-queueing
	// on the broadcast channel.
	for _, e := range gone {
		h.fanOut(Event{
			Type:      EventTyping,
			TicketID:  e.ticketID,
			Typing:    &models.TypingEvent{UserID: e.userID, TicketID: e.ticketID, IsTyping: false},
			Timestamp: now,
		})
	}
}

func (h *Hub) publish(event Event) {
	select {
	case h.broadcast <- event:
	case <-h.done:
	}
}
