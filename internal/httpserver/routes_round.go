// internal/httpserver/routes_round.go
//
// HTTP routes for playing a round.
// Exposes four endpoints under /round:
//   - POST /round/new   → start a round ("random" or "daily"), returns a round token
//   - GET  /round       → current view of the caller's round
//   - POST /round/guess → submit a guess
//   - POST /round/reset → draw a new target and clear the history
//
// Every route except /round/new needs the round token, sent as a bearer
// token or the findit_round cookie. The target is only included in a view
// once the round is won or lost.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/findit/internal/game"
	"github.com/robalobadob/findit/internal/store"
)

const roundCookieName = "findit_round"

// mountRounds registers all /round routes.
func (s *Server) mountRounds(r chi.Router) {
	r.Route("/round", func(r chi.Router) {
		r.Post("/new", s.handleNewRound)
		r.Group(func(r chi.Router) {
			r.Use(s.requireRound)
			r.Get("/", s.handleGetRound)
			r.Post("/guess", s.handleGuess)
			r.Post("/reset", s.handleReset)
		})
	})
}

// ------------------------------- views -------------------------------------

type historyView struct {
	Guess     string `json:"guess"`
	Display   string `json:"display"`
	Correct   int    `json:"correct"`
	Misplaced int    `json:"misplaced"`
}

type roundView struct {
	RoundID     string          `json:"roundId"`
	State       game.RoundState `json:"state"` // "playing" | "won" | "lost"
	Attempts    int             `json:"attempts"`
	Remaining   int             `json:"remaining"`
	MaxAttempts int             `json:"maxAttempts"`
	History     []historyView   `json:"history"` // newest first
	Target      *int            `json:"target,omitempty"`
}

// viewOf snapshots a round; call it while holding store access.
func viewOf(r *game.Round) roundView {
	v := roundView{
		RoundID:     r.ID(),
		State:       r.State(),
		Attempts:    r.Attempts(),
		Remaining:   r.Remaining(),
		MaxAttempts: game.MaxAttempts,
		History:     []historyView{},
	}
	for _, h := range r.History() {
		v.History = append(v.History, historyView{
			Guess:     string(h.Guess),
			Display:   h.Display,
			Correct:   h.Score.Correct,
			Misplaced: h.Score.Misplaced,
		})
	}
	if t, ok := r.Target(); ok {
		v.Target = &t
	}
	return v
}

// ------------------------------ handlers -----------------------------------

// newRoundReq/Res payloads for POST /round/new.
type newRoundReq struct {
	Mode   string `json:"mode"`   // "random" (default) | "daily"
	Answer string `json:"answer"` // optional fixed answer, needs ALLOW_FIXED_ANSWER
}
type newRoundRes struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Round     roundView `json:"round"`
}

// handleNewRound creates a round, stores it, and hands out its token
// (in the body and as a cookie).
func (s *Server) handleNewRound(w http.ResponseWriter, r *http.Request) {
	var req newRoundReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}

	gen, status, code := s.generatorFor(req)
	if gen == nil {
		http.Error(w, `{"error":"`+code+`"}`, status)
		return
	}

	g := game.New(gen)
	if err := s.store.Save(r.Context(), g); err != nil {
		log.Error().Err(err).Msg("save round")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	tok, exp, err := s.tokens.Issue(g.ID())
	if err != nil {
		log.Error().Err(err).Str("roundId", g.ID()).Msg("issue round token")
		_ = s.store.Delete(r.Context(), g.ID())
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	s.setRoundCookie(w, tok, exp)

	log.Info().Str("roundId", g.ID()).Str("mode", modeOf(req)).Msg("round started")
	_ = json.NewEncoder(w).Encode(newRoundRes{Token: tok, ExpiresAt: exp, Round: viewOf(g)})
}

// generatorFor picks the target source for a new round. A nil generator
// comes with the HTTP status and error code to report.
func (s *Server) generatorFor(req newRoundReq) (game.Generator, int, string) {
	if req.Answer != "" {
		if !s.cfg.AllowFixedAnswer {
			return nil, http.StatusForbidden, "fixed_answer_disabled"
		}
		n, err := strconv.Atoi(req.Answer)
		if err != nil || !game.IsValidGuess(req.Answer) || n < game.MinTarget || n > game.MaxTarget {
			return nil, http.StatusBadRequest, "invalid_answer"
		}
		return game.NewFixedGenerator(n), 0, ""
	}
	switch modeOf(req) {
	case "random":
		return s.random, 0, ""
	case "daily":
		return s.daily, 0, ""
	}
	return nil, http.StatusBadRequest, "invalid_mode"
}

func modeOf(req newRoundReq) string {
	m := strings.ToLower(strings.TrimSpace(req.Mode))
	if m == "" {
		return "random"
	}
	return m
}

// handleGetRound returns the caller's round.
func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	var v roundView
	err := s.store.View(r.Context(), roundID(r), func(g *game.Round) error {
		v = viewOf(g)
		return nil
	})
	if err != nil {
		s.storeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// guessReq/Res payloads for POST /round/guess.
type guessReq struct {
	Guess string `json:"guess"`
}
type guessRes struct {
	Accepted bool      `json:"accepted"`
	Reason   string    `json:"reason,omitempty"` // "invalid_guess" | "round_over"
	Round    roundView `json:"round"`
}

// handleGuess applies a guess. Rejections are reported in the body with
// accepted=false; the round is left untouched.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}

	var res guessRes
	err := s.store.Update(r.Context(), roundID(r), func(g *game.Round) error {
		st, err := g.SubmitGuess(req.Guess)
		switch {
		case errors.Is(err, game.ErrInvalidGuess):
			res.Reason = "invalid_guess"
		case errors.Is(err, game.ErrRoundOver):
			res.Reason = "round_over"
		case err != nil:
			return err
		default:
			res.Accepted = true
			if st.Finished() {
				log.Info().Str("roundId", g.ID()).Str("state", string(st)).Int("attempts", g.Attempts()).Msg("round finished")
			}
		}
		res.Round = viewOf(g)
		return nil
	})
	if err != nil {
		s.storeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(res)
}

// handleReset draws a new target for the caller's round. A daily round
// continues as a random one; its target is fixed for the whole day.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var v roundView
	err := s.store.Update(r.Context(), roundID(r), func(g *game.Round) error {
		g.ResetWith(game.NextGenerator(g.Generator(), s.random))
		v = viewOf(g)
		return nil
	})
	if err != nil {
		s.storeError(w, err)
		return
	}
	log.Debug().Str("roundId", v.RoundID).Msg("round reset")
	_ = json.NewEncoder(w).Encode(v)
}

// storeError maps store failures onto HTTP responses.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	log.Error().Err(err).Msg("round store")
	http.Error(w, `{"error":"store_failed"}`, http.StatusInternalServerError)
}

// ---------------------------- round tokens ---------------------------------

// ctxRoundKey is the context key type for the authenticated round ID.
type ctxRoundKey struct{}

// requireRound enforces a valid round token and injects its round ID.
func (s *Server) requireRound(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearerOrCookie(r)
		if tok == "" {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		id, err := s.tokens.Parse(tok)
		if err != nil {
			http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxRoundKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// roundID returns the round ID placed by requireRound.
func roundID(r *http.Request) string {
	id, _ := r.Context().Value(ctxRoundKey{}).(string)
	return id
}

// setRoundCookie writes the round token cookie.
func (s *Server) setRoundCookie(w http.ResponseWriter, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if s.cfg.CookieSecure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     roundCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or round cookie.
func bearerOrCookie(r *http.Request) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(roundCookieName); err == nil {
		return c.Value
	}
	return ""
}
