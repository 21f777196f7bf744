package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/supportdesk-io/supportdesk-ce/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository handles database operations for ticket messages.
type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageSelect = `
	SELECT m.id, m.ticket_id, m.sender_id, m.content, m.message_type,
	       m.created_at, m.updated_at, m.is_ai_generated, m.sentiment_score,
	       s.id, s.email, s.full_name, s.role, s.avatar_url, s.is_online
	FROM messages m
	JOIN users s ON s.id = m.sender_id`

func scanMessage(row interface{ Scan(...interface{}) error }) (*models.Message, error) {
	var m models.Message
	var sender models.User
	err := row.Scan(
		&m.ID, &m.TicketID, &m.SenderID, &m.Content, &m.MessageType,
		&m.CreatedAt, &m.UpdatedAt, &m.IsAIGenerated, &m.SentimentScore,
		&sender.ID, &sender.Email, &sender.FullName, &sender.Role,
		&sender.AvatarURL, &sender.IsOnline,
	)
	if err != nil {
		return nil, err
	}
	m.Sender = &sender
	return &m, nil
}

// ListByTicket returns a ticket's messages oldest first with sender profiles
// and attachments.
func (r *MessageRepository) ListByTicket(ctx context.Context, ticketID string) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, messageSelect+` WHERE m.ticket_id = $1 ORDER BY m.created_at ASC`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	index := map[string]int{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		index[m.ID] = len(messages)
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return messages, nil
	}

	if err := r.attachTo(ctx, ticketID, messages, index); err != nil {
		return nil, err
	}
	return messages, nil
}

// attachTo loads all attachments for a ticket in one query and fans them out
// onto their messages.
func (r *MessageRepository) attachTo(ctx context.Context, ticketID string, messages []models.Message, index map[string]int) error {
	query := `
		SELECT a.id, a.message_id, a.filename, a.file_size, a.file_type, a.file_url, a.created_at
		FROM attachments a
		JOIN messages m ON m.id = a.message_id
		WHERE m.ticket_id = $1
		ORDER BY a.created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, ticketID)
	if err != nil {
		return fmt.Errorf("failed to load attachments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.MessageID, &a.Filename, &a.FileSize, &a.FileType, &a.FileURL, &a.CreatedAt); err != nil {
			return err
		}
		if i, ok := index[a.MessageID]; ok {
			messages[i].Attachments = append(messages[i].Attachments, a)
		}
	}
	return rows.Err()
}

// GetByID loads one message with its sender and attachments.
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	m, err := scanMessage(r.db.QueryRowContext(ctx, messageSelect+` WHERE m.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, message_id, filename, file_size, file_type, file_url, created_at
		FROM attachments WHERE message_id = $1 ORDER BY created_at ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.MessageID, &a.Filename, &a.FileSize, &a.FileType, &a.FileURL, &a.CreatedAt); err != nil {
			return nil, err
		}
		m.Attachments = append(m.Attachments, a)
	}
	return m, rows.Err()
}

// Send writes the message, its attachments, the ticket's updated_at bump and
// the conditional first-response stamp as one transaction. senderIsAgent
// gates the first_response_at write.
func (r *MessageRepository) Send(ctx context.Context, msg *models.Message, senderIsAgent bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := `
		INSERT INTO messages (ticket_id, sender_id, content, message_type,
		                      is_ai_generated, sentiment_score)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRowContext(ctx, insert,
		msg.TicketID, msg.SenderID, msg.Content, msg.MessageType,
		msg.IsAIGenerated, msg.SentimentScore,
	).Scan(&msg.ID, &msg.CreatedAt, &msg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	for i := range msg.Attachments {
		a := &msg.Attachments[i]
		a.MessageID = msg.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO attachments (message_id, filename, file_size, file_type, file_url)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`,
			a.MessageID, a.Filename, a.FileSize, a.FileType, a.FileURL,
		).Scan(&a.ID, &a.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert attachment: %w", err)
		}
	}

	touch := `UPDATE tickets SET updated_at = NOW() WHERE id = $1`
	if senderIsAgent {
		touch = `UPDATE tickets SET updated_at = NOW(),
		         first_response_at = COALESCE(first_response_at, NOW()) WHERE id = $1`
	}
	res, err := tx.ExecContext(ctx, touch, msg.TicketID)
	if err != nil {
		return fmt.Errorf("failed to touch ticket: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTicketNotFound
	}

	return tx.Commit()
}
