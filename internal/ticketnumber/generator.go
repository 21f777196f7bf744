package ticketnumber

import "context"

// Generator defines the contract for human-readable ticket number
// generators. Numbers must be unique and clearly distinguishable from the
// internal row id.
type Generator interface {
	Name() string
	Next(ctx context.Context, store CounterStore) (string, error)
	IsDateBased() bool
}

// CounterStore abstraction over the ticket_number_counter table.
type CounterStore interface {
	// Add advances the counter by offset (>=1) and returns the new value.
	// dateScoped selects a per-day counter row.
	Add(ctx context.Context, dateScoped bool, offset int64) (int64, error)
}

// Config needed by generators.
type Config struct {
	Prefix         string
	MinCounterSize int
}

// Clock allows deterministic testing.
type Clock interface{ Now() TimeParts }

// TimeParts minimal date parts.
type TimeParts struct {
	Year  int
	Month int
	Day   int
}
