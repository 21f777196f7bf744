package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/supportdesk-io/supportdesk-ce/internal/models"
)

// StatsRepository computes dashboard aggregates. Every call recomputes from
// the live tables; nothing is cached here.
type StatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// scopeWhere builds a visibility predicate for aggregate queries over the
// tickets table aliased t.
func scopeWhere(viewerID, role string) (string, []interface{}) {
	switch role {
	case models.RoleAdmin, models.RoleAgent:
		// Agents see the system-wide aggregate on their dashboard.
		return "", nil
	default:
		return " WHERE t.customer_id = $1", []interface{}{viewerID}
	}
}

// StatusCounts returns total/open/in_progress/resolved for the viewer's
// scope.
func (r *StatsRepository) StatusCounts(ctx context.Context, viewerID, role string) (total, open, inProgress, resolved int, err error) {
	where, args := scopeWhere(viewerID, role)
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE t.status = 'open'),
		       COUNT(*) FILTER (WHERE t.status = 'in_progress'),
		       COUNT(*) FILTER (WHERE t.status = 'resolved')
		FROM tickets t` + where
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&total, &open, &inProgress, &resolved)
	if err != nil {
		err = fmt.Errorf("failed to count tickets by status: %w", err)
	}
	return
}

// PriorityCounts returns the per-priority breakdown for the viewer's scope.
func (r *StatsRepository) PriorityCounts(ctx context.Context, viewerID, role string) (models.PriorityBreakdown, error) {
	var b models.PriorityBreakdown
	where, args := scopeWhere(viewerID, role)
	query := `
		SELECT COUNT(*) FILTER (WHERE t.priority = 'urgent'),
		       COUNT(*) FILTER (WHERE t.priority = 'high'),
		       COUNT(*) FILTER (WHERE t.priority = 'medium'),
		       COUNT(*) FILTER (WHERE t.priority = 'low')
		FROM tickets t` + where
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&b.Urgent, &b.High, &b.Medium, &b.Low)
	if err != nil {
		return b, fmt.Errorf("failed to count tickets by priority: %w", err)
	}
	return b, nil
}

// CategoryCounts returns the per-category breakdown, largest first.
func (r *StatsRepository) CategoryCounts(ctx context.Context, viewerID, role string) ([]models.CategoryCount, error) {
	where, args := scopeWhere(viewerID, role)
	query := `
		SELECT t.category, COUNT(*)
		FROM tickets t` + where + `
		GROUP BY t.category
		ORDER BY COUNT(*) DESC, t.category ASC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count tickets by category: %w", err)
	}
	defer rows.Close()

	counts := []models.CategoryCount{}
	for rows.Next() {
		var c models.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// RecentActivity returns the latest messages on tickets the viewer may see,
// newest first.
func (r *StatsRepository) RecentActivity(ctx context.Context, viewerID, role string, limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	var conds []string
	args := []interface{}{}
	idx := 1
	switch role {
	case models.RoleAdmin:
	case models.RoleAgent:
		conds = append(conds, fmt.Sprintf("(t.agent_id = $%d OR t.agent_id IS NULL)", idx))
		args = append(args, viewerID)
		idx++
	default:
		conds = append(conds, fmt.Sprintf("t.customer_id = $%d", idx))
		args = append(args, viewerID)
		idx++
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT m.id, m.message_type, m.content, m.created_at, t.ticket_id,
		       u.id, u.email, u.full_name, u.role, u.avatar_url, u.is_online
		FROM messages m
		JOIN tickets t ON t.id = m.ticket_id
		JOIN users u ON u.id = m.sender_id`+where+`
		ORDER BY m.created_at DESC
		LIMIT $%d`, idx)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent activity: %w", err)
	}
	defer rows.Close()

	entries := []models.ActivityEntry{}
	for rows.Next() {
		var e models.ActivityEntry
		var content, ticketNumber string
		var u models.User
		if err := rows.Scan(&e.ID, &e.Type, &content, &e.Timestamp, &ticketNumber,
			&u.ID, &u.Email, &u.FullName, &u.Role, &u.AvatarURL, &u.IsOnline); err != nil {
			return nil, err
		}
		e.Description = fmt.Sprintf("%s on %s: %s", u.FullName, ticketNumber, truncate(content, 120))
		e.User = &u
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AgentCounts returns the agent-specific slice of the dashboard.
func (r *StatsRepository) AgentCounts(ctx context.Context, agentID string) (assigned, resolved int, byStatus models.AgentStatusBreakdown, err error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE t.status NOT IN ('resolved', 'closed')),
		       COUNT(*) FILTER (WHERE t.status = 'resolved'),
		       COUNT(*) FILTER (WHERE t.status = 'open'),
		       COUNT(*) FILTER (WHERE t.status = 'in_progress'),
		       COUNT(*) FILTER (WHERE t.status = 'waiting_for_customer')
		FROM tickets t
		WHERE t.agent_id = $1`
	err = r.db.QueryRowContext(ctx, query, agentID).Scan(
		&assigned, &resolved, &byStatus.Open, &byStatus.InProgress, &byStatus.WaitingForCustomer)
	byStatus.Resolved = resolved
	if err != nil {
		err = fmt.Errorf("failed to count agent tickets: %w", err)
	}
	return
}

// AgentResponseHours computes the agent's average first-response time in
// hours, 0 when no assigned ticket has one.
func (r *StatsRepository) AgentResponseHours(ctx context.Context, agentID string) (float64, error) {
	query := `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (t.first_response_at - t.created_at)) / 3600), 0)
		FROM tickets t
		WHERE t.agent_id = $1 AND t.first_response_at IS NOT NULL`
	var hours float64
	if err := r.db.QueryRowContext(ctx, query, agentID).Scan(&hours); err != nil {
		return 0, fmt.Errorf("failed to compute response time: %w", err)
	}
	return hours, nil
}

// SystemResponseHours computes the average first-response time across all
// tickets that have one.
func (r *StatsRepository) SystemResponseHours(ctx context.Context) (float64, error) {
	query := `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (t.first_response_at - t.created_at)) / 3600), 0)
		FROM tickets t
		WHERE t.first_response_at IS NOT NULL`
	var hours float64
	if err := r.db.QueryRowContext(ctx, query).Scan(&hours); err != nil {
		return 0, fmt.Errorf("failed to compute response time: %w", err)
	}
	return hours, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
