// Package daily derives a deterministic "number of the day" so every player
// of a daily round guesses the same target.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/robalobadob/findit/internal/game"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Target returns the target for date using HMAC(salt, YYYY-MM-DD) reduced
// into [game.MinTarget, game.MaxTarget].
func Target(date time.Time, salt string) int {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// take first 8 bytes to uint64 for the modulus
	n := binary.BigEndian.Uint64(sum[:8])
	span := uint64(game.MaxTarget - game.MinTarget + 1)
	return game.MinTarget + int(n%span)
}

// Generator implements game.Generator with the target of the current day.
type Generator struct {
	Salt string
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewGenerator returns a Generator for salt using the wall clock.
func NewGenerator(salt string) *Generator {
	return &Generator{Salt: salt, Now: time.Now}
}

func (g *Generator) Generate() int {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	return Target(now(), g.Salt)
}

// Repeats is always true: a reset within the same day would redraw the
// target that was just revealed.
func (g *Generator) Repeats() bool { return true }
