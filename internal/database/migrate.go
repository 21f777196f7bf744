package database

import (
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the embedded schema. Statements are idempotent
// (CREATE IF NOT EXISTS) so repeated runs are safe. Hosted deployments
// that manage the schema externally skip this entirely.
func Migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
