package ticketnumber

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DBStore keeps one row per counter_uid and increments it atomically with
// an upsert:
//
//	INSERT ... ON CONFLICT(counter_uid) DO UPDATE
//	    SET counter = ticket_number_counter.counter + EXCLUDED.counter
//	    RETURNING counter
//
// dateScoped adds a daily YYYYMMDD suffix to the UID for date-based
// generators, which resets the visible sequence each day.
type DBStore struct {
	db     *sql.DB
	prefix string
	clock  func() time.Time
}

func NewDBStore(db *sql.DB, prefix string) *DBStore {
	return &DBStore{db: db, prefix: prefix, clock: time.Now}
}

// Add implements CounterStore.
func (s *DBStore) Add(ctx context.Context, dateScoped bool, offset int64) (int64, error) {
	if offset < 1 {
		return 0, errors.New("bad offset")
	}
	uid := s.prefix
	if dateScoped {
		now := s.clock().UTC()
		uid = fmt.Sprintf("%s_%04d%02d%02d", s.prefix, now.Year(), int(now.Month()), now.Day())
	}
	q := `INSERT INTO ticket_number_counter (counter, counter_uid, create_time)
          VALUES ($2, $1, NOW())
          ON CONFLICT (counter_uid) DO UPDATE SET counter = ticket_number_counter.counter + EXCLUDED.counter
          RETURNING counter`
	var c int64
	if err := s.db.QueryRowContext(ctx, q, uid, offset).Scan(&c); err != nil {
		return 0, err
	}
	return c, nil
}
