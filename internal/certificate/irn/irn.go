// Package irn generates issuance reference numbers.
//
// Format: {YY}{MM}-{6 uppercase alphanumeric}-{6 digits}, ASCII only. The
// trailing block comes from the low-order digits of a millisecond timestamp,
// which makes identifiers roughly time-sortable within a month. The format
// alone claims no uniqueness: callers must check storage and regenerate on
// collision, and treat a unique-constraint violation on insert the same way.
package irn

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const randomAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generator produces reference numbers. The zero value is not usable; use New.
type Generator struct {
	now func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock sets the time source for testability.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// New constructs a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a fresh candidate reference number. Pure function of the
// current time plus randomness; no storage access.
func (g *Generator) Generate() string {
	now := g.now().UTC()
	stamp := now.Format("0601")
	millis := now.UnixMilli() % 1_000_000
	return fmt.Sprintf("%s-%s-%06d", stamp, randomBlock(6), millis)
}

func randomBlock(n int) string {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(randomAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken;
			// nothing sensible can continue past that.
			panic(fmt.Sprintf("irn: read random: %v", err))
		}
		buf[i] = randomAlphabet[idx.Int64()]
	}
	return string(buf)
}
