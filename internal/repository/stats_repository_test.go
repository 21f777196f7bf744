package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportdesk-io/supportdesk-ce/internal/models"
)

func TestStatusCounts(t *testing.T) {
	ctx := context.Background()

	t.Run("customer scope filters by owner", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewStatsRepository(db)

		mock.ExpectQuery(`FROM tickets t WHERE t\.customer_id = \$1`).
			WithArgs("cust-1").
			WillReturnRows(sqlmock.NewRows([]string{"total", "open", "in_progress", "resolved"}).
				AddRow(8, 3, 2, 2))

		total, open, inProgress, resolved, err := repo.StatusCounts(ctx, "cust-1", models.RoleCustomer)
		require.NoError(t, err)
		assert.Equal(t, 8, total)
		assert.Equal(t, 3, open)
		assert.Equal(t, 2, inProgress)
		assert.Equal(t, 2, resolved)
	})

	t.Run("agent sees the system-wide aggregate", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewStatsRepository(db)

		mock.ExpectQuery(`FROM tickets t$`).
			WillReturnRows(sqlmock.NewRows([]string{"total", "open", "in_progress", "resolved"}).
				AddRow(100, 40, 30, 20))

		total, _, _, _, err := repo.StatusCounts(ctx, "agent-1", models.RoleAgent)
		require.NoError(t, err)
		assert.Equal(t, 100, total)
	})
}

func TestPriorityAndCategoryCounts(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewStatsRepository(db)

	mock.ExpectQuery(`t\.priority = 'urgent'`).
		WillReturnRows(sqlmock.NewRows([]string{"urgent", "high", "medium", "low"}).
			AddRow(1, 2, 5, 3))

	b, err := repo.PriorityCounts(ctx, "admin-1", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityBreakdown{Urgent: 1, High: 2, Medium: 5, Low: 3}, b)

	mock.ExpectQuery(`GROUP BY t\.category`).
		WillReturnRows(sqlmock.NewRows([]string{"category", "count"}).
			AddRow("billing", 6).
			AddRow("general", 4))

	cats, err := repo.CategoryCounts(ctx, "admin-1", models.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "billing", cats[0].Category)
	assert.Equal(t, 6, cats[0].Count)
}

func TestRecentActivity(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewStatsRepository(db)
	now := time.Now()

	cols := []string{"id", "message_type", "content", "created_at", "ticket_id",
		"u_id", "u_email", "u_full_name", "u_role", "u_avatar_url", "u_is_online"}
	mock.ExpectQuery(`WHERE t\.customer_id = \$1.*ORDER BY m\.created_at DESC`).
		WithArgs("cust-1", 10).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("m-1", "message", "Any update on this?", now, "TKT-20250901-00003",
				"cust-1", "c@example.com", "Customer One", "customer", nil, true))

	entries, err := repo.RecentActivity(ctx, "cust-1", models.RoleCustomer, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Description, "Customer One on TKT-20250901-00003")
	require.NotNil(t, entries[0].User)
}

func TestAgentStats(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewStatsRepository(db)

	mock.ExpectQuery(`WHERE t\.agent_id = \$1`).
		WithArgs("agent-1").
		WillReturnRows(sqlmock.NewRows([]string{"assigned", "resolved", "open", "in_progress", "waiting"}).
			AddRow(5, 9, 1, 3, 1))

	assigned, resolved, byStatus, err := repo.AgentCounts(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, 5, assigned)
	assert.Equal(t, 9, resolved)
	assert.Equal(t, 3, byStatus.InProgress)
	assert.Equal(t, 9, byStatus.Resolved)

	mock.ExpectQuery(`first_response_at - t\.created_at`).
		WithArgs("agent-1").
		WillReturnRows(sqlmock.NewRows([]string{"hours"}).AddRow(2.5))

	hours, err := repo.AgentResponseHours(ctx, "agent-1")
	require.NoError(t, err)
	assert.InDelta(t, 2.5, hours, 0.001)
}
