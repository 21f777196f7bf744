package models

import "time"

// PriorityBreakdown counts tickets per priority.
type PriorityBreakdown struct {
	Urgent int `json:"urgent"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// CategoryCount is one slice of the by-category breakdown.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// ActivityEntry is one line of the recent-activity feed, derived from the
// latest messages on tickets the viewer may see.
type ActivityEntry struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	User        *User     `json:"user,omitempty"`
}

// DashboardStats is the role-shaped statistics object recomputed on every
// fetch. Customers get counts over their own tickets; admins get the
// system-wide aggregate.
type DashboardStats struct {
	TotalTickets         int               `json:"total_tickets"`
	OpenTickets          int               `json:"open_tickets"`
	InProgressTickets    int               `json:"in_progress_tickets"`
	ResolvedTickets      int               `json:"resolved_tickets"`
	AverageResponseTime  float64           `json:"average_response_time"`
	CustomerSatisfaction float64           `json:"customer_satisfaction"`
	TicketsByPriority    PriorityBreakdown `json:"tickets_by_priority"`
	TicketsByCategory    []CategoryCount   `json:"tickets_by_category"`
	RecentActivity       []ActivityEntry   `json:"recent_activity"`
}

// AgentStatusBreakdown counts an agent's own tickets per status.
type AgentStatusBreakdown struct {
	Open               int `json:"open"`
	InProgress         int `json:"in_progress"`
	WaitingForCustomer int `json:"waiting_for_customer"`
	Resolved           int `json:"resolved"`
}

// AgentStats is the agent dashboard shape: the system-wide aggregate plus
// an agent-specific slice.
type AgentStats struct {
	DashboardStats
	AssignedTickets       int                  `json:"assigned_tickets"`
	MyResolvedTickets     int                  `json:"my_resolved_tickets"`
	MyAverageResponseTime float64              `json:"my_average_response_time"`
	MyTicketsByStatus     AgentStatusBreakdown `json:"my_tickets_by_status"`
}
