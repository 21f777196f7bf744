package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/supportdesk-io/supportdesk-ce/internal/realtime"
	"github.com/supportdesk-io/supportdesk-ce/internal/service"
)

// WSHandler upgrades ticket subscriptions to websockets. Auth happens in
// the middleware chain; the token rides the query string because browsers
// cannot set headers on websocket dials.
type WSHandler struct {
	hub           *realtime.Hub
	ticketService *service.TicketService
	upgrader      websocket.Upgrader
}

func NewWSHandler(hub *realtime.Hub, ticketService *service.TicketService, allowedOrigins []string) *WSHandler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	return &WSHandler{
		hub:           hub,
		ticketService: ticketService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(origins) == 0 {
					return true
				}
				_, ok := origins[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

// Subscribe attaches the caller to a ticket's event stream. The same role
// scoping as the REST read applies before the upgrade.
func (h *WSHandler) Subscribe(c *gin.Context) {
	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}
	ticketID := c.Param("id")

	if _, err := h.ticketService.Get(c.Request.Context(), viewer, ticketID); err != nil {
		sendServiceError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the failure response.
		return
	}

	client := realtime.NewClient(h.hub, conn, ticketID, viewer.ID)
	client.Start()
}
