package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/supportdesk-io/supportdesk-ce/internal/models"
	"github.com/supportdesk-io/supportdesk-ce/internal/service"
)

// MessageHandler handles the per-ticket conversation endpoints.
type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// ListMessages returns the ticket's conversation oldest first.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}

	messages, err := h.messageService.ListByTicket(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		sendServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// SendMessage appends a message with optional attachments to the ticket.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	msg, err := h.messageService.Send(c.Request.Context(), viewer, c.Param("id"), &req)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
