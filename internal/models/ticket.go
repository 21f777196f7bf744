package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Ticket statuses. Writes are not validated against a transition table;
// any status may be set by an update call.
const (
	StatusOpen               = "open"
	StatusInProgress         = "in_progress"
	StatusWaitingForCustomer = "waiting_for_customer"
	StatusResolved           = "resolved"
	StatusClosed             = "closed"
)

// Ticket priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Ticket represents a support request row in the tickets table.
// TicketNumber is the human-readable identifier shown to users,
// distinct from the internal uuid.
type Ticket struct {
	ID                  string         `json:"id" db:"id"`
	TicketNumber        string         `json:"ticket_id" db:"ticket_id"`
	Title               string         `json:"title" db:"title"`
	Description         string         `json:"description" db:"description"`
	Status              string         `json:"status" db:"status"`
	Priority            string         `json:"priority" db:"priority"`
	Category            string         `json:"category" db:"category"`
	CustomerID          string         `json:"customer_id" db:"customer_id"`
	AgentID             *string        `json:"agent_id,omitempty" db:"agent_id"`
	OrganizationID      *string        `json:"organization_id,omitempty" db:"organization_id"`
	CreatedAt           time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at" db:"updated_at"`
	ResolvedAt          *time.Time     `json:"resolved_at,omitempty" db:"resolved_at"`
	FirstResponseAt     *time.Time     `json:"first_response_at,omitempty" db:"first_response_at"`
	Tags                pq.StringArray `json:"tags,omitempty" db:"tags"`
	Metadata            JSONMap        `json:"metadata,omitempty" db:"metadata"`
	EstimatedResolution *string        `json:"estimated_resolution,omitempty" db:"estimated_resolution"`

	// Joined fields, populated by list/get queries.
	Customer     *User `json:"customer,omitempty"`
	Agent        *User `json:"agent,omitempty"`
	MessageCount int   `json:"message_count"`
}

// IsAssigned reports whether an agent is set on the ticket.
func (t *Ticket) IsAssigned() bool { return t.AgentID != nil && *t.AgentID != "" }

// CanBeViewedBy implements role scoping: a customer sees own tickets, an
// agent sees own assignments plus the unassigned pool, an admin sees all.
func (t *Ticket) CanBeViewedBy(userID, role string) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleAgent:
		return !t.IsAssigned() || *t.AgentID == userID
	case RoleCustomer:
		return t.CustomerID == userID
	}
	return false
}

// ValidateStatus checks a status string against the known set.
func ValidateStatus(status string) bool {
	switch status {
	case StatusOpen, StatusInProgress, StatusWaitingForCustomer, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// ValidatePriority checks a priority string against the known set.
func ValidatePriority(priority string) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// TicketCreateRequest is the payload for POST /tickets.
type TicketCreateRequest struct {
	Title       string   `json:"title" binding:"required,min=1,max=255"`
	Description string   `json:"description" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Priority    string   `json:"priority,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// TicketUpdateRequest is a partial patch of one ticket. No field-level
// role validation happens here; scoping is the service's responsibility.
type TicketUpdateRequest struct {
	Title       *string   `json:"title,omitempty" binding:"omitempty,min=1,max=255"`
	Description *string   `json:"description,omitempty"`
	Status      *string   `json:"status,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	Category    *string   `json:"category,omitempty"`
	AgentID     *string   `json:"agent_id,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// IsEmpty reports whether the patch carries no fields.
func (r *TicketUpdateRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.Status == nil &&
		r.Priority == nil && r.Category == nil && r.AgentID == nil && r.Tags == nil
}

// TicketFilters narrows a ticket listing. Role scoping is applied before
// these and cannot be widened by them.
type TicketFilters struct {
	Status     []string   `form:"status"`
	Priority   []string   `form:"priority"`
	Category   []string   `form:"category"`
	AgentID    string     `form:"agent_id"`
	CustomerID string     `form:"customer_id"`
	Search     string     `form:"search"`
	DateFrom   *time.Time `form:"date_from" time_format:"2006-01-02T15:04:05Z07:00"`
	DateTo     *time.Time `form:"date_to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// TicketSort orders a ticket listing. Zero value means created_at desc.
type TicketSort struct {
	Field     string `form:"sort_by"`
	Direction string `form:"sort_order"`
}

// Pagination bounds a ticket listing. Zero value means no paging.
type Pagination struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// TicketListResponse is a paginated ticket set with the total ignoring
// pagination.
type TicketListResponse struct {
	Tickets []Ticket `json:"tickets"`
	Total   int      `json:"total"`
	Page    int      `json:"page,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// AssignTicketRequest is the payload for POST /tickets/:id/assign.
type AssignTicketRequest struct {
	AgentID string `json:"agent_id" binding:"required"`
}

// JSONMap maps a jsonb column to a Go map.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", src)
	}
	return json.Unmarshal(b, m)
}
