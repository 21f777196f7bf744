package ticketnumber

import (
	"context"
	"fmt"
)

// Date produces PREFIX-YYYYMMDD-NNNNN numbers with a per-day counter.
type Date struct {
	cfg   Config
	clock Clock
}

func NewDate(cfg Config, clk Clock) *Date { return &Date{cfg: cfg, clock: clk} }
func (g *Date) Name() string              { return "Date" }
func (g *Date) IsDateBased() bool         { return true }

func (g *Date) Next(ctx context.Context, store CounterStore) (string, error) {
	tp := g.clock.Now()
	counter, err := store.Add(ctx, true, 1)
	if err != nil {
		return "", err
	}
	min := g.cfg.MinCounterSize
	if min <= 0 {
		min = 5
	}
	return fmt.Sprintf("%s-%04d%02d%02d-%0*d", g.cfg.Prefix, tp.Year, tp.Month, tp.Day, min, counter), nil
}
