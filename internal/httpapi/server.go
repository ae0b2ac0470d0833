// Package httpapi exposes the progression engine over HTTP. Routes are a
// thin adapter: decode, call the service, map typed engine errors onto
// status codes. All rule logic stays in the engine.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/habitloop/backend/internal/progression"
	"github.com/habitloop/backend/internal/service"
	"github.com/habitloop/backend/internal/store"
)

// Server is the progression HTTP API.
type Server struct {
	svc         *service.Service
	wsHandler   http.HandlerFunc
	metrics     *Metrics
	clientCount func() int
}

// NewServer creates a Server over the given service. wsHandler may be nil
// when no event feed is mounted.
func NewServer(svc *service.Service, wsHandler http.HandlerFunc) *Server {
	return &Server{svc: svc, wsHandler: wsHandler}
}

// EnableMetrics mounts the /metrics endpoint and starts counting events.
func (s *Server) EnableMetrics(m *Metrics) { s.metrics = m }

// SetClientCounter lets the health endpoint report live ws connections.
func (s *Server) SetClientCounter(fn func() int) { s.clientCount = fn }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Get("/api/catalogue", s.handleCatalogue)
	r.Get("/api/leaderboard", s.handleLeaderboard)

	r.Route("/api/users/{userID}", func(r chi.Router) {
		r.Post("/init", s.handleInit)
		r.Get("/progression", s.handleGetProgression)
		r.Post("/completions", s.handleCompletion)
		r.Post("/pools/{category}/claim", s.handleClaimPool)
		r.Post("/achievements/evaluate", s.handleEvaluate)
		r.Put("/streak-multiplier", s.handleStreakMultiplier)
		r.Post("/reset", s.handleReset)
		r.Get("/gains", s.handleGains)
	})

	if s.wsHandler != nil {
		r.Get("/ws", s.wsHandler)
	}

	return r
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Initialize(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleGetProgression(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Get(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type completionRequest struct {
	BasePoints int                      `json:"basePoints"`
	Context    progression.AwardContext `json:"context"`
}

type completionResponse struct {
	State     *progression.State        `json:"state"`
	Award     progression.AwardResult `json:"award"`
	LeveledUp bool                    `json:"leveledUp"`
}

func (s *Server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	state, award, leveledUp, err := s.svc.RecordCompletion(chi.URLParam(r, "userID"), req.BasePoints, req.Context)
	if err != nil {
		writeError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordAward(award.TotalAwarded)
	}
	writeJSON(w, http.StatusOK, completionResponse{
		State:     state,
		Award:     award,
		LeveledUp: leveledUp,
	})
}

type claimResponse struct {
	State         *progression.State `json:"state"`
	PointsAwarded int              `json:"pointsAwarded"`
}

func (s *Server) handleClaimPool(w http.ResponseWriter, r *http.Request) {
	category := progression.PoolCategory(chi.URLParam(r, "category"))
	state, points, err := s.svc.ClaimPool(chi.URLParam(r, "userID"), category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, claimResponse{State: state, PointsAwarded: points})
}

type evaluateRequest struct {
	Stats progression.Statistics `json:"stats"`
}

type evaluateResponse struct {
	State         *progression.State                    `json:"state"`
	NewlyUnlocked []progression.AchievementDefinition `json:"newlyUnlocked"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	state, newly, err := s.svc.EvaluateAchievements(chi.URLParam(r, "userID"), req.Stats)
	if err != nil {
		writeError(w, err)
		return
	}
	if newly == nil {
		newly = []progression.AchievementDefinition{}
	}
	writeJSON(w, http.StatusOK, evaluateResponse{State: state, NewlyUnlocked: newly})
}

type streakMultiplierRequest struct {
	Multiplier float64 `json:"multiplier"`
}

func (s *Server) handleStreakMultiplier(w http.ResponseWriter, r *http.Request) {
	var req streakMultiplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	state, err := s.svc.SetStreakMultiplier(chi.URLParam(r, "userID"), req.Multiplier)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Reset(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleGains(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	gains, err := s.svc.RecentGains(chi.URLParam(r, "userID"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if gains == nil {
		gains = []progression.GainRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"gains": gains})
}

func (s *Server) handleCatalogue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"achievements": s.svc.Catalogue()})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.svc.Leaderboard(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []store.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}

// writeError maps typed engine/store errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, progression.ErrInvalidAward),
		errors.Is(err, progression.ErrUnknownCategory):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, progression.ErrNotInitialized):
		// Client should initialize and retry.
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, store.ErrUnsupported):
		writeJSON(w, http.StatusNotImplemented, errorBody(err.Error()))
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
	}
}
