// Package console is a line-oriented terminal front end for a round: it reads
// guesses, prints the history newest first and announces the result.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/findit/internal/game"
)

// fallback replaces a repeating generator (the daily number) once its
// target has been revealed.
var fallback game.Generator = game.RandomGenerator{}

// Run plays rounds until the player quits, declines a rematch, or in is
// exhausted. Commands: "reset" starts over, "quit" exits.
func Run(ctx context.Context, in io.Reader, out io.Writer, gen game.Generator) error {
	sc := bufio.NewScanner(in)
	r := game.New(gen)
	p := &printer{w: out}

	p.printf("Find the Number\n")
	p.printf("Enter a %d-digit number (%d tries). Commands: reset, quit\n", game.Digits, game.MaxAttempts)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.printf("Guess %d/%d: ", r.Attempts()+1, game.MaxAttempts)
		line, ok := next(sc)
		if !ok {
			p.printf("\n")
			return errors.Join(sc.Err(), p.err)
		}

		switch strings.ToLower(line) {
		case "quit", "q", "exit":
			return p.err
		case "reset":
			r.ResetWith(game.NextGenerator(r.Generator(), fallback))
			p.printf("New number drawn.\n")
			continue
		}

		st, err := r.SubmitGuess(line)
		if err != nil {
			p.printf("Enter exactly %d digits.\n", game.Digits)
			continue
		}
		p.history(r.History())

		if !st.Finished() {
			continue
		}
		target, _ := r.Target()
		if st == game.Won {
			p.printf("Congratulations! You found the number in %d %s!\n", r.Attempts(), tries(r.Attempts()))
		} else {
			p.printf("Game Over. The number was %d\n", target)
		}
		log.Debug().Str("roundId", r.ID()).Str("state", string(st)).Int("attempts", r.Attempts()).Msg("console round finished")

		p.printf("Play again? [y/N]: ")
		answer, ok := next(sc)
		if !ok || !strings.EqualFold(answer, "y") {
			return errors.Join(sc.Err(), p.err)
		}
		r.ResetWith(game.NextGenerator(r.Generator(), fallback))
	}
}

func tries(n int) string {
	if n == 1 {
		return "try"
	}
	return "tries"
}

func next(sc *bufio.Scanner) (string, bool) {
	if !sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sc.Text()), true
}

// printer remembers the first write error so the loop stays readable.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) history(h []game.HistoryEntry) {
	for _, e := range h {
		p.printf("  %s  %s\n", e.Guess, e.Display)
	}
}
