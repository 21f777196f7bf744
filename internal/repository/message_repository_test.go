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

func messageColumns() []string {
	return []string{
		"id", "ticket_id", "sender_id", "content", "message_type",
		"created_at", "updated_at", "is_ai_generated", "sentiment_score",
		"s_id", "s_email", "s_full_name", "s_role", "s_avatar_url", "s_is_online",
	}
}

func TestListByTicket(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMessageRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(messageColumns()).
		AddRow("m-1", "t-1", "cust-1", "Hello", "message",
			now.Add(-2*time.Minute), now.Add(-2*time.Minute), false, nil,
			"cust-1", "cust@example.com", "Customer One", "customer", nil, true).
		AddRow("m-2", "t-1", "agent-1", "Hi, looking into it", "message",
			now, now, false, nil,
			"agent-1", "agent@example.com", "Agent Smith", "agent", nil, true)
	mock.ExpectQuery(`WHERE m\.ticket_id = \$1 ORDER BY m\.created_at ASC`).
		WithArgs("t-1").
		WillReturnRows(rows)

	attRows := sqlmock.NewRows([]string{"id", "message_id", "filename", "file_size", "file_type", "file_url", "created_at"}).
		AddRow("a-1", "m-2", "log.txt", int64(512), "text/plain", "https://files.example.com/log.txt", now)
	mock.ExpectQuery(`FROM attachments a`).
		WithArgs("t-1").
		WillReturnRows(attRows)

	messages, err := repo.ListByTicket(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "Hello", messages[0].Content)
	require.NotNil(t, messages[0].Sender)
	assert.Equal(t, "Customer One", messages[0].Sender.FullName)
	assert.Empty(t, messages[0].Attachments)
	require.Len(t, messages[1].Attachments, 1)
	assert.Equal(t, "log.txt", messages[1].Attachments[0].Filename)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("agent send stamps first response in one transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewMessageRepository(db)
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO messages`).
			WithArgs("t-1", "agent-1", "On it", "message", false, nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow("m-new", now, now))
		mock.ExpectExec(`first_response_at = COALESCE\(first_response_at, NOW\(\)\)`).
			WithArgs("t-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		msg := &models.Message{
			TicketID:    "t-1",
			SenderID:    "agent-1",
			Content:     "On it",
			MessageType: models.MessageTypeMessage,
		}
		require.NoError(t, repo.Send(ctx, msg, true))
		assert.Equal(t, "m-new", msg.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("customer send only touches updated_at", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewMessageRepository(db)
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO messages`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow("m-new", now, now))
		mock.ExpectExec(`UPDATE tickets SET updated_at = NOW\(\) WHERE id = \$1`).
			WithArgs("t-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		msg := &models.Message{TicketID: "t-1", SenderID: "cust-1", Content: "Still broken", MessageType: "message"}
		require.NoError(t, repo.Send(ctx, msg, false))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("attachments ride the same transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewMessageRepository(db)
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO messages`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow("m-new", now, now))
		mock.ExpectQuery(`INSERT INTO attachments`).
			WithArgs("m-new", "shot.png", int64(2048), "image/png", "https://files.example.com/shot.png").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("a-new", now))
		mock.ExpectExec(`UPDATE tickets SET updated_at`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		msg := &models.Message{
			TicketID:    "t-1",
			SenderID:    "cust-1",
			Content:     "See screenshot",
			MessageType: "message",
			Attachments: []models.Attachment{
				{Filename: "shot.png", FileSize: 2048, FileType: "image/png", FileURL: "https://files.example.com/shot.png"},
			},
		}
		require.NoError(t, repo.Send(ctx, msg, false))
		assert.Equal(t, "a-new", msg.Attachments[0].ID)
		assert.Equal(t, "m-new", msg.Attachments[0].MessageID)
	})

	t.Run("failed ticket touch rolls everything back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewMessageRepository(db)
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO messages`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow("m-new", now, now))
		mock.ExpectExec(`UPDATE tickets SET updated_at`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		msg := &models.Message{TicketID: "ghost", SenderID: "cust-1", Content: "x", MessageType: "message"}
		err = repo.Send(ctx, msg, false)
		assert.ErrorIs(t, err, ErrTicketNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
