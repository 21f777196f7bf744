package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/supportdesk-io/supportdesk-ce/internal/models"
	"github.com/supportdesk-io/supportdesk-ce/internal/repository"
	"github.com/supportdesk-io/supportdesk-ce/internal/service"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// viewerFrom rebuilds the caller from the claims the auth middleware stored.
// Role scoping only needs the ID and role, so no database round trip here.
func viewerFrom(c *gin.Context) (*models.User, bool) {
	userID, ok := c.Get("user_id")
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return nil, false
	}
	role, _ := c.Get("user_role")
	email := c.GetString("user_email")
	return &models.User{
		ID:    userID.(string),
		Role:  role.(string),
		Email: email,
	}, true
}

// sendServiceError maps the service error taxonomy onto HTTP statuses.
func sendServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Access denied"})
	case errors.Is(err, repository.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Ticket not found"})
	case errors.Is(err, repository.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Message not found"})
	case errors.Is(err, service.ErrNotAnAgent):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Assignee must be an agent"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Details: err.Error()})
	}
}
