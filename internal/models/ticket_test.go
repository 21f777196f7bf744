package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanBeViewedBy_RoleScoping(t *testing.T) {
	agentID := "agent-1"
	assigned := &Ticket{CustomerID: "cust-1", AgentID: &agentID}
	unassigned := &Ticket{CustomerID: "cust-1"}

	t.Run("admin sees everything", func(t *testing.T) {
		assert.True(t, assigned.CanBeViewedBy("someone-else", RoleAdmin))
		assert.True(t, unassigned.CanBeViewedBy("someone-else", RoleAdmin))
	})

	t.Run("agent sees own assignments and the unassigned pool", func(t *testing.T) {
		assert.True(t, assigned.CanBeViewedBy("agent-1", RoleAgent))
		assert.False(t, assigned.CanBeViewedBy("agent-2", RoleAgent))
		assert.True(t, unassigned.CanBeViewedBy("agent-2", RoleAgent))
	})

	t.Run("customer sees only own tickets", func(t *testing.T) {
		assert.True(t, assigned.CanBeViewedBy("cust-1", RoleCustomer))
		assert.False(t, assigned.CanBeViewedBy("cust-2", RoleCustomer))
	})

	t.Run("unknown role sees nothing", func(t *testing.T) {
		assert.False(t, assigned.CanBeViewedBy("cust-1", "superuser"))
	})
}

func TestValidateStatus(t *testing.T) {
	for _, s := range []string{StatusOpen, StatusInProgress, StatusWaitingForCustomer, StatusResolved, StatusClosed} {
		assert.True(t, ValidateStatus(s), s)
	}
	assert.False(t, ValidateStatus("pending"))
	assert.False(t, ValidateStatus(""))
}

func TestValidatePriority(t *testing.T) {
	for _, p := range []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent} {
		assert.True(t, ValidatePriority(p), p)
	}
	assert.False(t, ValidatePriority("normal"))
}

func TestTicketUpdateRequestIsEmpty(t *testing.T) {
	var r TicketUpdateRequest
	assert.True(t, r.IsEmpty())

	title := "New title"
	r.Title = &title
	assert.False(t, r.IsEmpty())
}

func TestJSONMapRoundTrip(t *testing.T) {
	m := JSONMap{"source": "web", "attempts": float64(2)}

	v, err := m.Value()
	assert.NoError(t, err)

	var got JSONMap
	assert.NoError(t, got.Scan(v))
	assert.Equal(t, m, got)
}

func TestJSONMapScanNil(t *testing.T) {
	m := JSONMap{"stale": true}
	assert.NoError(t, m.Scan(nil))
	assert.Nil(t, m)
}
