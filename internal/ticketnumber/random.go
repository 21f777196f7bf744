package ticketnumber

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand"
)

// Random produces PREFIX-NNNNNNNN numbers from a seeded source. Collisions
// on the unique ticket_id column are resolved by caller retry.
type Random struct {
	cfg Config
	src *mrand.Rand
}

func NewRandom(cfg Config, seed int64) *Random {
	if seed == 0 {
		var b [8]byte
		_, _ = rand.Read(b[:])
		seed = int64(binary.LittleEndian.Uint64(b[:]))
	}
	return &Random{cfg: cfg, src: mrand.New(mrand.NewSource(seed))}
}

func (g *Random) Name() string      { return "Random" }
func (g *Random) IsDateBased() bool { return false }

func (g *Random) Next(ctx context.Context, store CounterStore) (string, error) {
	// Advance the global counter so operators can still read issuance volume
	// from the counter table even with random numbers.
	_, _ = store.Add(ctx, false, 1)
	n := g.src.Int63() % 100000000
	return fmt.Sprintf("%s-%08d", g.cfg.Prefix, n), nil
}
