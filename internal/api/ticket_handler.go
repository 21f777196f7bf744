package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/supportdesk-io/supportdesk-ce/internal/models"
	"github.com/supportdesk-io/supportdesk-ce/internal/service"
)

// TicketHandler handles ticket-related HTTP requests
type TicketHandler struct {
	ticketService *service.TicketService
}

func NewTicketHandler(ticketService *service.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

// ListTickets returns the viewer's ticket slice, filtered and paginated.
// Customers see their own tickets, agents their own plus the unassigned
// pool, admins everything.
func (h *TicketHandler) ListTickets(c *gin.Context) {
	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}

	var filters models.TicketFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid filters", Details: err.Error()})
		return
	}
	var sort models.TicketSort
	if err := c.ShouldBindQuery(&sort); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid sort", Details: err.Error()})
		return
	}
	var page models.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid pagination", Details: err.Error()})
		return
	}

	resp, err := h.ticketService.List(c.Request.Context(), viewer, filters, sort, page)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetTicket returns one ticket after the scoping check.
func (h *TicketHandler) GetTicket(c *gin.Context) {
	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}

	ticket, err := h.ticketService.Get(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		sendServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// CreateTicket opens a new ticket for the caller.
func (h *TicketHandler) CreateTicket(c *gin.Context) {
	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}

	var req models.TicketCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	ticket, err := h.ticketService.Create(c.Request.Context(), viewer, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to create ticket", Details: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

// UpdateTicket applies a partial patch to a ticket.
func (h *TicketHandler) UpdateTicket(c *gin.Context) {
	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}

	var req models.TicketUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	ticket, err := h.ticketService.Update(c.Request.Context(), viewer, c.Param("id"), &req)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// AssignTicket hands a ticket to an agent and moves it to in_progress.
func (h *TicketHandler) AssignTicket(c *gin.Context) {
	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}

	var req models.AssignTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	ticket, err := h.ticketService.Assign(c.Request.Context(), viewer, c.Param("id"), req.AgentID)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// DeleteTicket removes a ticket. The route restricts this to admins.
func (h *TicketHandler) DeleteTicket(c *gin.Context) {
	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}

	if err := h.ticketService.Delete(c.Request.Context(), viewer, c.Param("id")); err != nil {
		sendServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Ticket deleted"})
}
