// internal/game/types.go
//
// Core type definitions for the findit game engine.
// Defines:
//   - Score: result of comparing a guess against the target.
//   - HistoryEntry: one accepted guess and its rendered score.
//   - RoundState: playing / won / lost.
//   - Round: state for a single in-progress or finished round.

package game

import (
	"errors"
	"time"
)

const (
	// Digits is the number of digits in a target and in a guess.
	Digits = 3

	// MinTarget and MaxTarget bound the generated target (inclusive).
	MinTarget = 100
	MaxTarget = 999

	// MaxAttempts is the number of guesses allowed per round.
	MaxAttempts = 7
)

var (
	ErrInvalidGuess = errors.New("invalid guess")
	ErrRoundOver    = errors.New("round finished")
)

// RoundState is derived from the round's history; it is never stored.
type RoundState string

const (
	InProgress RoundState = "playing"
	Won        RoundState = "won"
	Lost       RoundState = "lost"
)

// Finished reports whether s is a terminal state.
func (s RoundState) Finished() bool { return s == Won || s == Lost }

// Guess is a validated string of Digits ASCII digits. Leading zeros are allowed.
type Guess string

// Score counts digits in the right place (Correct) and digits present at
// another, unclaimed position (Misplaced). Correct+Misplaced <= Digits.
type Score struct {
	Correct   int `json:"correct"`
	Misplaced int `json:"misplaced"`
}

// Solved reports whether every digit is in place.
func (s Score) Solved() bool { return s.Correct == Digits }

// HistoryEntry is an accepted guess with its score and display string.
type HistoryEntry struct {
	Guess   Guess  `json:"guess"`
	Score   Score  `json:"score"`
	Display string `json:"display"`
}

// Round holds the target and guess history of one playthrough.
// A Round is owned by a single caller; it does no locking of its own.
type Round struct {
	id        string
	target    int
	history   []HistoryEntry // newest first
	gen       Generator
	startedAt time.Time
}
