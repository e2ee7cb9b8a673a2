// internal/game/engine.go
//
// Core game engine for a single findit round.
// Responsibilities:
//   - Create rounds with a target drawn from a Generator.
//   - Validate and apply guesses (length, digits only, round still open).
//   - Score guesses with the two-pass positional / displaced algorithm.
//   - Derive round state (playing → won/lost) from the history.
//
// Rejected guesses return an error and leave the round untouched; callers
// that only care about accepted guesses may ignore it.
package game

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// New starts a round with a target from gen. A nil gen uses RandomGenerator.
func New(gen Generator) *Round {
	if gen == nil {
		gen = RandomGenerator{}
	}
	r := &Round{id: uuid.NewString(), gen: gen}
	r.Reset()
	return r
}

// ID returns the round's identifier; it survives Reset.
func (r *Round) ID() string { return r.id }

// StartedAt is when the current target was drawn.
func (r *Round) StartedAt() time.Time { return r.startedAt }

// SubmitGuess validates, scores and records raw.
// Returns the state after the guess. ErrRoundOver and ErrInvalidGuess
// report rejected submissions; nothing is recorded for them.
//
// State transitions:
//   - Correct == Digits → won.
//   - Else if the number of guesses reaches MaxAttempts → lost.
func (r *Round) SubmitGuess(raw string) (RoundState, error) {
	if st := r.State(); st.Finished() {
		return st, ErrRoundOver
	}
	if !IsValidGuess(raw) {
		return r.State(), fmt.Errorf("%w: %q", ErrInvalidGuess, raw)
	}

	g := Guess(raw)
	s := Evaluate(r.target, g)
	entry := HistoryEntry{Guess: g, Score: s, Display: s.Display()}
	r.history = append([]HistoryEntry{entry}, r.history...)
	return r.State(), nil
}

// Reset draws a new target and clears the history. Valid in any state.
func (r *Round) Reset() {
	r.target = r.gen.Generate()
	r.history = nil
	r.startedAt = time.Now().UTC()
}

// ResetWith switches the round to gen, then resets. A nil gen keeps the
// current generator.
func (r *Round) ResetWith(gen Generator) {
	if gen != nil {
		r.gen = gen
	}
	r.Reset()
}

// Generator returns the source of the round's targets.
func (r *Round) Generator() Generator { return r.gen }

// State derives the round state from the most recent score and history length.
func (r *Round) State() RoundState {
	if len(r.history) == 0 {
		return InProgress
	}
	if r.history[0].Score.Solved() {
		return Won
	}
	if len(r.history) >= MaxAttempts {
		return Lost
	}
	return InProgress
}

// History returns a copy of the accepted guesses, newest first.
func (r *Round) History() []HistoryEntry {
	out := make([]HistoryEntry, len(r.history))
	copy(out, r.history)
	return out
}

// Attempts is the number of accepted guesses.
func (r *Round) Attempts() int { return len(r.history) }

// Remaining is the number of guesses left, zero once the round is over.
func (r *Round) Remaining() int {
	if r.State().Finished() {
		return 0
	}
	return MaxAttempts - len(r.history)
}

// Target reveals the target only once the round has ended.
func (r *Round) Target() (int, bool) {
	if !r.State().Finished() {
		return 0, false
	}
	return r.target, true
}

// IsValidGuess reports whether raw is exactly Digits ASCII digits.
func IsValidGuess(raw string) bool {
	if len(raw) != Digits {
		return false
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return false
		}
	}
	return true
}

// Evaluate scores guess against target. guess must already be valid.
//
// Pass 1:
//   - Exact positional matches count as Correct; both indices are consumed.
//
// Pass 2:
//   - For each unconsumed guess index i, the first unconsumed target index
//     j != i (ascending) holding the same digit counts as Misplaced; both
//     are consumed and scanning moves to the next i.
//
// No target or guess position takes part in more than one match.
func Evaluate(target int, guess Guess) Score {
	t := targetDigits(target)
	var s Score
	var usedT, usedG [Digits]bool

	for i := 0; i < Digits; i++ {
		if guess[i] == t[i] {
			s.Correct++
			usedT[i], usedG[i] = true, true
		}
	}

	for i := 0; i < Digits; i++ {
		if usedG[i] {
			continue
		}
		for j := 0; j < Digits; j++ {
			if usedT[j] || j == i {
				continue
			}
			if guess[i] == t[j] {
				s.Misplaced++
				usedT[j], usedG[i] = true, true
				break
			}
		}
	}
	return s
}

// Display renders the score for the history list: "+3" when solved,
// otherwise "+c", "-m" or "+c -m", and "0" when nothing matched.
func (s Score) Display() string {
	if s.Solved() {
		return "+" + strconv.Itoa(Digits)
	}
	parts := make([]string, 0, 2)
	if s.Correct > 0 {
		parts = append(parts, "+"+strconv.Itoa(s.Correct))
	}
	if s.Misplaced > 0 {
		parts = append(parts, "-"+strconv.Itoa(s.Misplaced))
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, " ")
}

// targetDigits formats target as exactly Digits characters, zero padded.
func targetDigits(target int) string {
	return fmt.Sprintf("%0*d", Digits, target)
}
