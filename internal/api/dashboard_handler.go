package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/supportdesk-io/supportdesk-ce/internal/models"
	"github.com/supportdesk-io/supportdesk-ce/internal/repository"
	"github.com/supportdesk-io/supportdesk-ce/internal/service"
)

// DashboardHandler serves the role-shaped statistics endpoints.
type DashboardHandler struct {
	dashboardService *service.DashboardService
	userRepo         *repository.UserRepository
}

func NewDashboardHandler(dashboardService *service.DashboardService, userRepo *repository.UserRepository) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, userRepo: userRepo}
}

// Stats returns the dashboard for the caller's role. Agents get the
// system-wide aggregate plus their own slice; everyone else gets the plain
// overview scoped to what they can see.
func (h *DashboardHandler) Stats(c *gin.Context) {
	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}

	if viewer.Role == models.RoleAgent {
		stats, err := h.dashboardService.AgentOverview(c.Request.Context(), viewer)
		if err != nil {
			sendServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
		return
	}

	stats, err := h.dashboardService.Overview(c.Request.Context(), viewer)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Agents lists all agents with their assignment counts, for the admin
// team view and the assign dropdown.
func (h *DashboardHandler) Agents(c *gin.Context) {
	agents, err := h.userRepo.ListAgentsWithStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list agents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

// Users lists accounts, optionally narrowed to one role. Admin only.
func (h *DashboardHandler) Users(c *gin.Context) {
	role := c.Query("role")
	if role != "" && !models.ValidateRole(role) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid role filter"})
		return
	}

	users, err := h.userRepo.List(c.Request.Context(), role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// Customers lists customer accounts for the agent-facing directory.
func (h *DashboardHandler) Customers(c *gin.Context) {
	customers, err := h.userRepo.List(c.Request.Context(), models.RoleCustomer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list customers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}
