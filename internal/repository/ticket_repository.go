package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/supportdesk-io/supportdesk-ce/internal/models"
	"github.com/supportdesk-io/supportdesk-ce/internal/ticketnumber"
)

// ErrTicketNotFound is returned when the ticket id matches no row the
// caller may see.
var ErrTicketNotFound = errors.New("ticket not found")

// TicketRepository handles database operations for tickets.
type TicketRepository struct {
	db        *sql.DB
	generator ticketnumber.Generator
	store     ticketnumber.CounterStore
}

func NewTicketRepository(db *sql.DB, gen ticketnumber.Generator, store ticketnumber.CounterStore) *TicketRepository {
	return &TicketRepository{db: db, generator: gen, store: store}
}

// sortFields whitelists user-supplied sort columns.
var sortFields = map[string]string{
	"created_at": "t.created_at",
	"updated_at": "t.updated_at",
	"priority":   "t.priority",
	"status":     "t.status",
	"title":      "t.title",
}

const ticketSelect = `
	SELECT t.id, t.ticket_id, t.title, t.description, t.status, t.priority,
	       t.category, t.customer_id, t.agent_id, t.organization_id,
	       t.created_at, t.updated_at, t.resolved_at, t.first_response_at,
	       t.tags, t.metadata, t.estimated_resolution,
	       c.id, c.email, c.full_name, c.role, c.avatar_url, c.is_online,
	       a.id, a.email, a.full_name, a.role, a.avatar_url, a.is_online,
	       (SELECT COUNT(*) FROM messages m WHERE m.ticket_id = t.id) AS message_count
	FROM tickets t
	JOIN users c ON c.id = t.customer_id
	LEFT JOIN users a ON a.id = t.agent_id`

func scanTicket(row interface{ Scan(...interface{}) error }, extra ...interface{}) (*models.Ticket, error) {
	var t models.Ticket
	var customer models.User
	var agentID, agentEmail, agentName, agentRole, agentAvatar sql.NullString
	var agentOnline sql.NullBool

	dest := []interface{}{
		&t.ID, &t.TicketNumber, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.Category, &t.CustomerID, &t.AgentID, &t.OrganizationID,
		&t.CreatedAt, &t.UpdatedAt, &t.ResolvedAt, &t.FirstResponseAt,
		&t.Tags, &t.Metadata, &t.EstimatedResolution,
		&customer.ID, &customer.Email, &customer.FullName, &customer.Role,
		&customer.AvatarURL, &customer.IsOnline,
		&agentID, &agentEmail, &agentName, &agentRole, &agentAvatar, &agentOnline,
		&t.MessageCount,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	t.Customer = &customer
	if agentID.Valid {
		agent := models.User{
			ID:       agentID.String,
			Email:    agentEmail.String,
			FullName: agentName.String,
			Role:     agentRole.String,
			IsOnline: agentOnline.Bool,
		}
		if agentAvatar.Valid {
			agent.AvatarURL = &agentAvatar.String
		}
		t.Agent = &agent
	}
	return &t, nil
}

// scopeCondition returns the role-based visibility predicate. It runs before
// user filters and cannot be widened by them.
func scopeCondition(viewerID, role string, args *[]interface{}, idx *int) string {
	switch role {
	case models.RoleAdmin:
		return ""
	case models.RoleAgent:
		cond := fmt.Sprintf("(t.agent_id = $%d OR t.agent_id IS NULL)", *idx)
		*args = append(*args, viewerID)
		*idx++
		return cond
	default:
		cond := fmt.Sprintf("t.customer_id = $%d", *idx)
		*args = append(*args, viewerID)
		*idx++
		return cond
	}
}

// List returns tickets visible to the viewer, narrowed by filters, with the
// total count ignoring pagination.
func (r *TicketRepository) List(ctx context.Context, viewerID, role string, filters models.TicketFilters, sort models.TicketSort, page models.Pagination) (*models.TicketListResponse, error) {
	var conds []string
	var args []interface{}
	idx := 1

	if c := scopeCondition(viewerID, role, &args, &idx); c != "" {
		conds = append(conds, c)
	}

	addIn := func(col string, values []string) {
		if len(values) == 0 {
			return
		}
		conds = append(conds, fmt.Sprintf("%s = ANY($%d)", col, idx))
		args = append(args, pq.Array(values))
		idx++
	}
	addIn("t.status", filters.Status)
	addIn("t.priority", filters.Priority)
	addIn("t.category", filters.Category)

	if filters.AgentID != "" {
		conds = append(conds, fmt.Sprintf("t.agent_id = $%d", idx))
		args = append(args, filters.AgentID)
		idx++
	}
	if filters.CustomerID != "" {
		conds = append(conds, fmt.Sprintf("t.customer_id = $%d", idx))
		args = append(args, filters.CustomerID)
		idx++
	}
	if filters.Search != "" {
		conds = append(conds, fmt.Sprintf(
			"(t.title ILIKE $%d OR t.description ILIKE $%d OR t.ticket_id ILIKE $%d)", idx, idx, idx))
		args = append(args, "%"+filters.Search+"%")
		idx++
	}
	if filters.DateFrom != nil {
		conds = append(conds, fmt.Sprintf("t.created_at >= $%d", idx))
		args = append(args, *filters.DateFrom)
		idx++
	}
	if filters.DateTo != nil {
		conds = append(conds, fmt.Sprintf("t.created_at <= $%d", idx))
		args = append(args, *filters.DateTo)
		idx++
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	// Total ignores pagination but honors scope and filters.
	var total int
	countQuery := "SELECT COUNT(*) FROM tickets t" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count tickets: %w", err)
	}

	col, ok := sortFields[sort.Field]
	if !ok {
		col = "t.created_at"
	}
	dir := "DESC"
	if strings.EqualFold(sort.Direction, "asc") {
		dir = "ASC"
	}
	query := ticketSelect + where + fmt.Sprintf(" ORDER BY %s %s", col, dir)

	if page.Limit > 0 {
		offset := 0
		if page.Page > 1 {
			offset = (page.Page - 1) * page.Limit
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1)
		args = append(args, page.Limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	tickets := []models.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &models.TicketListResponse{
		Tickets: tickets,
		Total:   total,
		Page:    page.Page,
		Limit:   page.Limit,
	}, nil
}

// GetByID loads one ticket with its customer, agent and message count.
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	t, err := scanTicket(r.db.QueryRowContext(ctx, ticketSelect+" WHERE t.id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	return t, err
}

// Create inserts the ticket with a generated number. Random generator
// collisions on the unique ticket_id column are retried.
func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	if r.generator == nil || r.store == nil {
		return fmt.Errorf("ticket number generator not initialized")
	}

	const randomRetries = 5
	try := 0
	for {
		try++
		n, err := r.generator.Next(ctx, r.store)
		if err != nil {
			return fmt.Errorf("ticket number generation failed: %w", err)
		}
		ticket.TicketNumber = n

		err = r.insertTicket(ctx, ticket)
		if err == nil {
			return nil
		}
		if r.generator.Name() == "Random" && isUniqueViolation(err) && try < randomRetries {
			continue
		}
		return err
	}
}

func (r *TicketRepository) insertTicket(ctx context.Context, ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets (ticket_id, title, description, status, priority,
		                     category, customer_id, agent_id, organization_id,
		                     tags, metadata, estimated_resolution)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		ticket.TicketNumber, ticket.Title, ticket.Description, ticket.Status,
		ticket.Priority, ticket.Category, ticket.CustomerID, ticket.AgentID,
		ticket.OrganizationID, ticket.Tags, ticket.Metadata, ticket.EstimatedResolution,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

// Update applies a partial patch. Setting status to resolved stamps
// resolved_at once; leaving resolved clears it.
func (r *TicketRepository) Update(ctx context.Context, id string, req *models.TicketUpdateRequest) (*models.Ticket, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{}
	idx := 1

	add := func(col string, v interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, v)
		idx++
	}

	if req.Title != nil {
		add("title", *req.Title)
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	if req.Status != nil {
		add("status", *req.Status)
		switch *req.Status {
		case models.StatusResolved:
			sets = append(sets, "resolved_at = COALESCE(resolved_at, NOW())")
		case models.StatusOpen, models.StatusInProgress, models.StatusWaitingForCustomer:
			sets = append(sets, "resolved_at = NULL")
		}
	}
	if req.Priority != nil {
		add("priority", *req.Priority)
	}
	if req.Category != nil {
		add("category", *req.Category)
	}
	if req.AgentID != nil {
		if *req.AgentID == "" {
			sets = append(sets, "agent_id = NULL")
		} else {
			add("agent_id", *req.AgentID)
		}
	}
	if req.Tags != nil {
		add("tags", pq.Array(*req.Tags))
	}

	query := fmt.Sprintf("UPDATE tickets SET %s WHERE id = $%d", strings.Join(sets, ", "), idx)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrTicketNotFound
	}

	return r.GetByID(ctx, id)
}

// Assign sets the agent and forces in_progress. first_response_at is only
// stamped when still unset so a re-assignment keeps the original value.
func (r *TicketRepository) Assign(ctx context.Context, id, agentID string) (*models.Ticket, error) {
	query := `
		UPDATE tickets
		SET agent_id = $1,
		    status = $2,
		    first_response_at = COALESCE(first_response_at, NOW()),
		    updated_at = NOW()
		WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, agentID, models.StatusInProgress, id)
	if err != nil {
		return nil, fmt.Errorf("failed to assign ticket: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrTicketNotFound
	}

	return r.GetByID(ctx, id)
}

// Delete removes the ticket; messages and attachments cascade.
func (r *TicketRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTicketNotFound
	}
	return nil
}

// AutoCloseResolved closes tickets that have sat in resolved past the cutoff
// and returns how many rows changed.
func (r *TicketRepository) AutoCloseResolved(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		UPDATE tickets
		SET status = 'closed', updated_at = NOW()
		WHERE status = 'resolved' AND resolved_at < NOW() - make_interval(secs => $1)`
	res, err := r.db.ExecContext(ctx, query, olderThan.Seconds())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
