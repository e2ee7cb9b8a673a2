package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/findit/internal/config"
	"github.com/robalobadob/findit/internal/daily"
	"github.com/robalobadob/findit/internal/game"
	"github.com/robalobadob/findit/internal/session"
	"github.com/robalobadob/findit/internal/store"
)

func testConfig() config.Config {
	return config.Config{
		Port:             5175,
		LogLevel:         "info",
		LogFormat:        "json",
		ClientOrigin:     "http://localhost:5173",
		RoundSecret:      "test-secret",
		RoundTokenTTL:    time.Hour,
		DailySalt:        "test-salt",
		AllowFixedAnswer: true,
		RequestTimeout:   5 * time.Second,
	}
}

func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()
	tokens, err := session.NewIssuer(cfg.RoundSecret, cfg.RoundTokenTTL)
	require.NoError(t, err)
	return New(store.NewMemoryStore(), tokens, cfg)
}

func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func newRound(t *testing.T, s *Server, body any) newRoundRes {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/round/new", "", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res newRoundRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func guess(t *testing.T, s *Server, token, g string) guessRes {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/round/guess", token, guessReq{Guess: g})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res guessRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestNewRoundSetsCookieAndHidesTarget(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, http.MethodPost, "/round/new", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res newRoundRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, game.InProgress, res.Round.State)
	assert.Equal(t, game.MaxAttempts, res.Round.Remaining)
	assert.Nil(t, res.Round.Target)
	assert.NotContains(t, rec.Body.String(), `"target"`)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, roundCookieName, cookies[0].Name)
	assert.Equal(t, res.Token, cookies[0].Value)
}

func TestPlayToWin(t *testing.T) {
	s := newTestServer(t, testConfig())
	nr := newRound(t, s, newRoundReq{Answer: "456"})

	res := guess(t, s, nr.Token, "654")
	assert.True(t, res.Accepted)
	require.Len(t, res.Round.History, 1)
	assert.Equal(t, "-3", res.Round.History[0].Display)
	assert.Equal(t, game.InProgress, res.Round.State)

	res = guess(t, s, nr.Token, "456")
	assert.True(t, res.Accepted)
	assert.Equal(t, game.Won, res.Round.State)
	assert.Equal(t, "456", res.Round.History[0].Guess)
	assert.Equal(t, "+3", res.Round.History[0].Display)
	require.NotNil(t, res.Round.Target)
	assert.Equal(t, 456, *res.Round.Target)

	res = guess(t, s, nr.Token, "111")
	assert.False(t, res.Accepted)
	assert.Equal(t, "round_over", res.Reason)
	assert.Len(t, res.Round.History, 2)
}

func TestPlayToLose(t *testing.T) {
	s := newTestServer(t, testConfig())
	nr := newRound(t, s, newRoundReq{Answer: "123"})
	var res guessRes
	for i := 0; i < game.MaxAttempts; i++ {
		res = guess(t, s, nr.Token, "999")
		require.True(t, res.Accepted)
	}
	assert.Equal(t, game.Lost, res.Round.State)
	require.NotNil(t, res.Round.Target)
	assert.Equal(t, 123, *res.Round.Target)
}

func TestInvalidGuessIsReportedNotRecorded(t *testing.T) {
	s := newTestServer(t, testConfig())
	nr := newRound(t, s, newRoundReq{Answer: "123"})

	for _, g := range []string{"12", "1234", "abc", ""} {
		res := guess(t, s, nr.Token, g)
		assert.False(t, res.Accepted, g)
		assert.Equal(t, "invalid_guess", res.Reason)
		assert.Empty(t, res.Round.History)
	}
}

func TestBadJSON(t *testing.T) {
	s := newTestServer(t, testConfig())
	nr := newRound(t, s, nil)
	req := httptest.NewRequest(http.MethodPost, "/round/guess", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+nr.Token)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetClearsHistory(t *testing.T) {
	s := newTestServer(t, testConfig())
	nr := newRound(t, s, newRoundReq{Answer: "123"})
	guess(t, s, nr.Token, "123")

	rec := do(t, s, http.MethodPost, "/round/reset", nr.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var v roundView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, nr.Round.RoundID, v.RoundID)
	assert.Equal(t, game.InProgress, v.State)
	assert.Empty(t, v.History)
	assert.Nil(t, v.Target)
}

func TestGetRoundWithCookie(t *testing.T) {
	s := newTestServer(t, testConfig())
	nr := newRound(t, s, nil)

	req := httptest.NewRequest(http.MethodGet, "/round", nil)
	req.AddCookie(&http.Cookie{Name: roundCookieName, Value: nr.Token})
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var v roundView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, nr.Round.RoundID, v.RoundID)
}

func TestRoundRoutesNeedToken(t *testing.T) {
	s := newTestServer(t, testConfig())
	assert.Equal(t, http.StatusUnauthorized, do(t, s, http.MethodGet, "/round", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, s, http.MethodPost, "/round/guess", "garbage", guessReq{Guess: "123"}).Code)
}

func TestTokenForUnknownRound(t *testing.T) {
	cfg := testConfig()
	s := newTestServer(t, cfg)
	tokens, err := session.NewIssuer(cfg.RoundSecret, cfg.RoundTokenTTL)
	require.NoError(t, err)
	tok, _, err := tokens.Issue("missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/round", tok, nil).Code)
}

func TestFixedAnswerGate(t *testing.T) {
	cfg := testConfig()
	cfg.AllowFixedAnswer = false
	s := newTestServer(t, cfg)
	assert.Equal(t, http.StatusForbidden, do(t, s, http.MethodPost, "/round/new", "", newRoundReq{Answer: "123"}).Code)

	s = newTestServer(t, testConfig())
	for _, a := range []string{"012", "1000", "12x"} {
		assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/round/new", "", newRoundReq{Answer: a}).Code, a)
	}
}

func TestInvalidMode(t *testing.T) {
	s := newTestServer(t, testConfig())
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/round/new", "", newRoundReq{Mode: "hard"}).Code)
}

// withFixedDay pins the server's daily generator to a single date.
func withFixedDay(s *Server, day time.Time) int {
	s.daily = &daily.Generator{Salt: s.cfg.DailySalt, Now: func() time.Time { return day }}
	return daily.Target(day, s.cfg.DailySalt)
}

func TestDailyMode(t *testing.T) {
	s := newTestServer(t, testConfig())
	want := withFixedDay(s, time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	nr := newRound(t, s, newRoundReq{Mode: "daily"})

	res := guess(t, s, nr.Token, strconv.Itoa(want))
	assert.True(t, res.Accepted)
	assert.Equal(t, game.Won, res.Round.State)
}

func TestDailyResetDoesNotReplayRevealedTarget(t *testing.T) {
	s := newTestServer(t, testConfig())
	revealed := withFixedDay(s, time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	next := game.MinTarget
	if next == revealed {
		next = game.MaxTarget
	}
	s.random = game.NewFixedGenerator(next)

	nr := newRound(t, s, newRoundReq{Mode: "daily"})
	var res guessRes
	for i := 0; i < game.MaxAttempts; i++ {
		res = guess(t, s, nr.Token, "000")
	}
	require.Equal(t, game.Lost, res.Round.State)
	require.NotNil(t, res.Round.Target)
	assert.Equal(t, revealed, *res.Round.Target)

	rec := do(t, s, http.MethodPost, "/round/reset", nr.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	res = guess(t, s, nr.Token, strconv.Itoa(revealed))
	assert.True(t, res.Accepted)
	assert.Equal(t, game.InProgress, res.Round.State)

	res = guess(t, s, nr.Token, strconv.Itoa(next))
	assert.Equal(t, game.Won, res.Round.State)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, http.MethodOptions, "/round/new", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNotFoundIsJSON(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"not_found"`)
}

func TestNotFoundEscapesPath(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, http.MethodGet, `/a%22b%5Cc`, "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.True(t, json.Valid(rec.Body.Bytes()), rec.Body.String())

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body["error"])
	assert.Equal(t, `/a"b\c`, body["path"])
}
