package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/supportdesk-io/supportdesk-ce/internal/ai"
)

// AIHandler exposes the four assist operations. The service behind it never
// fails, so every route answers 200 with either the model's output or the
// fixed fallback.
type AIHandler struct {
	aiService *ai.Service
}

func NewAIHandler(aiService *ai.Service) *AIHandler {
	return &AIHandler{aiService: aiService}
}

type classifyRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// Classify suggests a priority, category and resolution estimate for a new
// ticket.
func (h *AIHandler) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.aiService.ClassifyTicket(c.Request.Context(), req.Title, req.Description))
}

type sentimentRequest struct {
	Text string `json:"text" binding:"required"`
}

// Sentiment scores the emotional tone of a message.
func (h *AIHandler) Sentiment(c *gin.Context) {
	var req sentimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.aiService.AnalyzeSentiment(c.Request.Context(), req.Text))
}

type suggestDepartmentRequest struct {
	Category    string `json:"category" binding:"required"`
	Priority    string `json:"priority" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// SuggestDepartment routes a ticket to the team best placed to handle it.
func (h *AIHandler) SuggestDepartment(c *gin.Context) {
	var req suggestDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.aiService.SuggestDepartment(c.Request.Context(), req.Category, req.Priority, req.Description))
}

type generateResponseRequest struct {
	Conversation []ai.ConversationTurn `json:"conversation" binding:"required"`
	Ticket       ai.TicketContext      `json:"ticket"`
}

// GenerateResponse drafts a reply for the agent to edit before sending.
func (h *AIHandler) GenerateResponse(c *gin.Context) {
	var req generateResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	response := h.aiService.GenerateResponse(c.Request.Context(), req.Conversation, req.Ticket)
	c.JSON(http.StatusOK, gin.H{"response": response})
}
