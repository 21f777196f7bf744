package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/supportdesk-io/supportdesk-ce/internal/models"
)

// UserRepository handles database operations for user profiles.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, full_name, role, avatar_url, created_at, updated_at,
       last_seen, is_online, department, phone, timezone`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Email, &u.FullName, &u.Role, &u.AvatarURL,
		&u.CreatedAt, &u.UpdatedAt, &u.LastSeen, &u.IsOnline,
		&u.Department, &u.Phone, &u.Timezone,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns the user and their password hash. A missing row comes
// back as sql.ErrNoRows.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, string, error) {
	query := `SELECT ` + userColumns + `, password_hash FROM users WHERE email = $1`
	var u models.User
	var hash string
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.FullName, &u.Role, &u.AvatarURL,
		&u.CreatedAt, &u.UpdatedAt, &u.LastSeen, &u.IsOnline,
		&u.Department, &u.Phone, &u.Timezone, &hash,
	)
	if err != nil {
		return nil, "", err
	}
	return &u, hash, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	return u, err
}

func (r *UserRepository) Create(ctx context.Context, user *models.User, passwordHash string) error {
	query := `
		INSERT INTO users (id, email, full_name, role, password_hash,
		                   created_at, updated_at, last_seen, is_online)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.FullName, user.Role, passwordHash,
		user.CreatedAt, user.UpdatedAt, user.LastSeen, user.IsOnline,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdateProfile applies only the fields present in the patch and returns the
// fresh row.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, req *models.UpdateProfileRequest) (*models.User, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{}
	idx := 1

	add := func(col string, v interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, v)
		idx++
	}

	if req.FullName != nil {
		add("full_name", *req.FullName)
	}
	if req.Phone != nil {
		add("phone", *req.Phone)
	}
	if req.Department != nil {
		add("department", *req.Department)
	}
	if req.Timezone != nil {
		add("timezone", *req.Timezone)
	}
	if req.AvatarURL != nil {
		add("avatar_url", *req.AvatarURL)
	}

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING `+userColumns,
		strings.Join(sets, ", "), idx)
	args = append(args, id)

	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	return u, err
}

// SetPresence flips the online flag and stamps last_seen on transitions.
func (r *UserRepository) SetPresence(ctx context.Context, id string, online bool) error {
	query := `UPDATE users SET is_online = $1, last_seen = NOW(), updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, online, id)
	return err
}

// TouchLastSeen refreshes last_seen without changing the online flag.
func (r *UserRepository) TouchLastSeen(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_seen = NOW() WHERE id = $1`, id)
	return err
}

// List returns users, optionally narrowed to one role, ordered by name.
func (r *UserRepository) List(ctx context.Context, role string) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []interface{}{}
	if role != "" {
		query += ` WHERE role = $1`
		args = append(args, role)
	}
	query += ` ORDER BY full_name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// ListAgentsWithStats returns agents decorated with assignment counters for
// the admin view.
func (r *UserRepository) ListAgentsWithStats(ctx context.Context) ([]models.UserWithStats, error) {
	query := `
		SELECT ` + prefixColumns("u", userColumns) + `,
		       COUNT(t.id) FILTER (WHERE t.status NOT IN ('resolved', 'closed')) AS assigned_tickets,
		       COUNT(t.id) FILTER (WHERE t.status = 'resolved') AS resolved_tickets
		FROM users u
		LEFT JOIN tickets t ON t.agent_id = u.id
		WHERE u.role = 'agent'
		GROUP BY u.id
		ORDER BY u.full_name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []models.UserWithStats
	for rows.Next() {
		var a models.UserWithStats
		err := rows.Scan(
			&a.ID, &a.Email, &a.FullName, &a.Role, &a.AvatarURL,
			&a.CreatedAt, &a.UpdatedAt, &a.LastSeen, &a.IsOnline,
			&a.Department, &a.Phone, &a.Timezone,
			&a.AssignedTickets, &a.ResolvedTickets,
		)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// MarkStaleOffline flips is_online off for users idle past the cutoff and
// returns how many rows changed.
func (r *UserRepository) MarkStaleOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_online = false WHERE is_online = true AND (last_seen IS NULL OR last_seen < $1)`,
		cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// prefixColumns qualifies a comma-separated column list with a table alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
