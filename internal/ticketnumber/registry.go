package ticketnumber

import (
	"errors"
	"strings"
	"time"
)

// Resolve maps a configured generator name to a concrete Generator.
// Valid names (case-insensitive): Date, Random.
func Resolve(name string, cfg Config, clk Clock) (Generator, error) {
	if clk == nil {
		clk = realClock{}
	}
	if cfg.MinCounterSize <= 0 {
		cfg.MinCounterSize = 5
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "date":
		return NewDate(cfg, clk), nil
	case "random":
		return NewRandom(cfg, time.Now().UnixNano()), nil
	default:
		return nil, errors.New("unknown ticket number generator: " + name)
	}
}

type realClock struct{}

func (realClock) Now() TimeParts {
	t := time.Now().UTC()
	return TimeParts{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}
