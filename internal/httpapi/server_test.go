package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/habitloop/backend/internal/catalog"
	"github.com/habitloop/backend/internal/progression"
	"github.com/habitloop/backend/internal/service"
	"github.com/habitloop/backend/internal/store"
)

var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	engine, err := progression.NewEngine(catalog.Default())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	engine.SetClock(func() time.Time { return testNow })
	svc := service.New(engine, store.NewFileStore(t.TempDir()))
	return NewServer(svc, nil).Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: invalid JSON response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)
	rec, body := doJSON(t, h, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestInitAndGetProgression(t *testing.T) {
	h := newTestHandler(t)

	rec, body := doJSON(t, h, http.MethodPost, "/api/users/alice/init", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("init status = %d: %v", rec.Code, body)
	}
	if body["level"] != float64(1) || body["totalPoints"] != float64(0) {
		t.Errorf("init body = %v", body)
	}

	rec, body = doJSON(t, h, http.MethodGet, "/api/users/alice/progression", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if body["userId"] != "alice" {
		t.Errorf("get body = %v", body)
	}
}

func TestCompletionFlow(t *testing.T) {
	h := newTestHandler(t)

	rec, body := doJSON(t, h, http.MethodPost, "/api/users/alice/completions",
		`{"basePoints": 10, "context": {"difficulty": 3, "energyMatch": true}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %v", rec.Code, body)
	}

	award := body["award"].(map[string]any)
	if award["totalAwarded"] != float64(18) {
		t.Errorf("totalAwarded = %v, want 18", award["totalAwarded"])
	}
	state := body["state"].(map[string]any)
	if state["totalPoints"] != float64(18) {
		t.Errorf("totalPoints = %v", state["totalPoints"])
	}
	if body["leveledUp"] != false {
		t.Errorf("leveledUp = %v", body["leveledUp"])
	}

	// The energy condition formed a claimable pool.
	rec, body = doJSON(t, h, http.MethodPost, "/api/users/alice/pools/energyMatch/claim", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("claim status = %d: %v", rec.Code, body)
	}
	if body["pointsAwarded"] != float64(4) { // floor(floor(10*0.30) * 1.5)
		t.Errorf("pointsAwarded = %v, want 4", body["pointsAwarded"])
	}
}

func TestCompletionRejectsNegativeBase(t *testing.T) {
	h := newTestHandler(t)
	rec, _ := doJSON(t, h, http.MethodPost, "/api/users/alice/completions", `{"basePoints": -5}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCompletionRejectsBadBody(t *testing.T) {
	h := newTestHandler(t)
	rec, _ := doJSON(t, h, http.MethodPost, "/api/users/alice/completions", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestClaimUnknownCategory(t *testing.T) {
	h := newTestHandler(t)
	rec, body := doJSON(t, h, http.MethodPost, "/api/users/alice/pools/jackpot/claim", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d: %v, want 400", rec.Code, body)
	}
}

func TestEvaluateAchievements(t *testing.T) {
	h := newTestHandler(t)

	rec, body := doJSON(t, h, http.MethodPost, "/api/users/alice/achievements/evaluate",
		`{"stats": {"totalCompletions": 1}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %v", rec.Code, body)
	}
	newly := body["newlyUnlocked"].([]any)
	if len(newly) != 1 {
		t.Fatalf("newlyUnlocked = %v", newly)
	}
	if newly[0].(map[string]any)["id"] != "first_steps" {
		t.Errorf("unlocked = %v", newly[0])
	}

	// Second evaluation with the same stats unlocks nothing.
	_, body = doJSON(t, h, http.MethodPost, "/api/users/alice/achievements/evaluate",
		`{"stats": {"totalCompletions": 1}}`)
	if len(body["newlyUnlocked"].([]any)) != 0 {
		t.Errorf("re-evaluation = %v", body["newlyUnlocked"])
	}
}

func TestStreakMultiplierEndpoint(t *testing.T) {
	h := newTestHandler(t)

	rec, body := doJSON(t, h, http.MethodPut, "/api/users/alice/streak-multiplier", `{"multiplier": 1.5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %v", rec.Code, body)
	}
	if body["streakMultiplier"] != float64(1.5) {
		t.Errorf("streakMultiplier = %v", body["streakMultiplier"])
	}
}

func TestResetEndpoint(t *testing.T) {
	h := newTestHandler(t)

	doJSON(t, h, http.MethodPost, "/api/users/alice/completions", `{"basePoints": 500}`)
	rec, body := doJSON(t, h, http.MethodPost, "/api/users/alice/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %v", rec.Code, body)
	}
	if body["totalPoints"] != float64(0) || body["level"] != float64(1) {
		t.Errorf("reset body = %v", body)
	}
}

func TestGainsEndpoint(t *testing.T) {
	h := newTestHandler(t)

	doJSON(t, h, http.MethodPost, "/api/users/alice/completions", `{"basePoints": 10}`)
	doJSON(t, h, http.MethodPost, "/api/users/alice/completions", `{"basePoints": 20}`)

	rec, body := doJSON(t, h, http.MethodGet, "/api/users/alice/gains?limit=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	gains := body["gains"].([]any)
	if len(gains) != 1 {
		t.Fatalf("gains = %v", gains)
	}
	if gains[0].(map[string]any)["amount"] != float64(20) {
		t.Errorf("newest gain = %v", gains[0])
	}
}

func TestCatalogueEndpoint(t *testing.T) {
	h := newTestHandler(t)
	rec, body := doJSON(t, h, http.MethodGet, "/api/catalogue", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(body["achievements"].([]any)) != 17 {
		t.Errorf("achievements = %d", len(body["achievements"].([]any)))
	}
}

func TestLeaderboardUnsupportedOnFileStore(t *testing.T) {
	h := newTestHandler(t)
	rec, _ := doJSON(t, h, http.MethodGet, "/api/leaderboard", "")
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501", rec.Code)
	}
}
