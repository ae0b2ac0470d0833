// Package service coordinates the progression engine, persistence, and event
// fan-out. The engine itself is not safe for concurrent mutation of one
// user's state, so every public operation here takes a per-user lock,
// loads (or lazily initializes) the snapshot, applies the engine, saves, and
// dispatches callbacks outside the lock.
package service

import (
	"errors"
	"fmt"
	"sync"

	"github.com/habitloop/backend/internal/progression"
	"github.com/habitloop/backend/internal/store"
)

// Event is one progression happening pushed to subscribers (the ws feed).
type Event struct {
	Type        string                             `json:"type"`
	UserID      string                             `json:"userId"`
	Level       int                                `json:"level,omitempty"`
	Points      int                                `json:"points,omitempty"`
	Achievement *progression.AchievementDefinition `json:"achievement,omitempty"`
	Pool        *progression.BonusPool             `json:"pool,omitempty"`
}

// Event types emitted by the service.
const (
	EventLevelUp             = "level_up"
	EventAchievementUnlocked = "achievement_unlocked"
	EventPoolCreated         = "pool_created"
	EventPoolClaimed         = "pool_claimed"
)

// EventCallback receives progression events. It is invoked outside any lock
// and must not call back into the Service for the same user synchronously.
type EventCallback func(Event)

// Service owns per-user serialized access to progression state.
type Service struct {
	engine *progression.Engine
	store  store.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	onEvent EventCallback
}

// New creates a Service over the given engine and store.
func New(engine *progression.Engine, st store.Store) *Service {
	return &Service{
		engine: engine,
		store:  st,
		locks:  make(map[string]*sync.Mutex),
	}
}

// OnEvent registers the event callback. Must be called before serving.
func (s *Service) OnEvent(cb EventCallback) {
	s.onEvent = cb
}

// userLock returns the mutex serializing access to userID's state.
func (s *Service) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// loadOrInit returns the user's state, creating and persisting a fresh one
// when none exists. Every public operation goes through this single guard
// rather than scattering initialize-if-missing checks across call sites.
// Caller holds the user lock.
func (s *Service) loadOrInit(userID string) (*progression.State, error) {
	state, err := s.store.Load(userID)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	state = s.engine.InitializeProgression(userID)
	if err := s.store.Save(state); err != nil {
		return nil, fmt.Errorf("saving initial state: %w", err)
	}
	return state, nil
}

// Initialize creates progression state for userID. Re-initializing an
// existing user is a no-op that returns the current snapshot, so concurrent
// callers racing to initialize are harmless.
func (s *Service) Initialize(userID string) (*progression.State, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()
	return s.loadOrInit(userID)
}

// Get returns the user's current snapshot with expired pools purged.
func (s *Service) Get(userID string) (*progression.State, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	state, err := s.loadOrInit(userID)
	if err != nil {
		return nil, err
	}
	state.ActivePools(s.engine.Now())
	return state.Clone(), nil
}

// RecordCompletion runs a completion event through the engine and persists
// the result. Returns the new snapshot, the award breakdown, and whether a
// level boundary was crossed.
func (s *Service) RecordCompletion(userID string, basePoints int, ctx progression.AwardContext) (*progression.State, progression.AwardResult, bool, error) {
	l := s.userLock(userID)
	l.Lock()

	state, err := s.loadOrInit(userID)
	if err != nil {
		l.Unlock()
		return nil, progression.AwardResult{}, false, err
	}
	result, leveledUp, err := s.engine.RecordCompletionAward(state, basePoints, ctx)
	if err != nil {
		l.Unlock()
		return nil, progression.AwardResult{}, false, err
	}
	if err := s.store.Save(state); err != nil {
		l.Unlock()
		return nil, progression.AwardResult{}, false, err
	}
	snapshot := state.Clone()
	l.Unlock()

	for i := range result.NewBonusPools {
		pool := result.NewBonusPools[i]
		s.emit(Event{Type: EventPoolCreated, UserID: userID, Pool: &pool})
	}
	if leveledUp {
		s.emit(Event{Type: EventLevelUp, UserID: userID, Level: snapshot.Level})
	}
	return snapshot, result, leveledUp, nil
}

// ClaimPool converts a live bonus pool into points.
func (s *Service) ClaimPool(userID string, category progression.PoolCategory) (*progression.State, int, error) {
	l := s.userLock(userID)
	l.Lock()

	state, err := s.loadOrInit(userID)
	if err != nil {
		l.Unlock()
		return nil, 0, err
	}
	points, leveledUp, err := s.engine.ClaimBonusPool(state, category)
	if err != nil {
		l.Unlock()
		return nil, 0, err
	}
	if err := s.store.Save(state); err != nil {
		l.Unlock()
		return nil, 0, err
	}
	snapshot := state.Clone()
	l.Unlock()

	if points > 0 {
		s.emit(Event{Type: EventPoolClaimed, UserID: userID, Points: points})
	}
	if leveledUp {
		s.emit(Event{Type: EventLevelUp, UserID: userID, Level: snapshot.Level})
	}
	return snapshot, points, nil
}

// EvaluateAchievements checks the catalogue against the supplied statistics
// and unlocks whatever newly qualifies, awarding each achievement's points.
func (s *Service) EvaluateAchievements(userID string, stats progression.Statistics) (*progression.State, []progression.AchievementDefinition, error) {
	l := s.userLock(userID)
	l.Lock()

	state, err := s.loadOrInit(userID)
	if err != nil {
		l.Unlock()
		return nil, nil, err
	}
	newly, leveledUp, err := s.engine.EvaluateAchievements(state, stats)
	if err != nil {
		l.Unlock()
		return nil, nil, err
	}
	if err := s.store.Save(state); err != nil {
		l.Unlock()
		return nil, nil, err
	}
	snapshot := state.Clone()
	l.Unlock()

	for i := range newly {
		def := newly[i]
		s.emit(Event{Type: EventAchievementUnlocked, UserID: userID, Achievement: &def, Points: def.PointReward})
	}
	if leveledUp {
		s.emit(Event{Type: EventLevelUp, UserID: userID, Level: snapshot.Level})
	}
	return snapshot, newly, nil
}

// SetStreakMultiplier stores the multiplier computed by the streak
// collaborator.
func (s *Service) SetStreakMultiplier(userID string, multiplier float64) (*progression.State, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	state, err := s.loadOrInit(userID)
	if err != nil {
		return nil, err
	}
	state.SetStreakMultiplier(multiplier, s.engine.Now())
	if err := s.store.Save(state); err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

// Reset wipes the user's progression back to a fresh state. This is the
// explicit, user-requested wipe; nothing else ever clears progression.
func (s *Service) Reset(userID string) (*progression.State, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	state, err := s.loadOrInit(userID)
	if err != nil {
		return nil, err
	}
	if err := s.engine.ResetProgression(state); err != nil {
		return nil, err
	}
	if err := s.store.Save(state); err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

// RecentGains returns the user's recent gain history. When the store keeps a
// full history table (SQLite) that is consulted; otherwise the snapshot's
// bounded record list is returned.
func (s *Service) RecentGains(userID string, limit int) ([]progression.GainRecord, error) {
	if h, ok := s.store.(interface {
		GainHistory(string, int) ([]progression.GainRecord, error)
	}); ok {
		return h.GainHistory(userID, limit)
	}

	state, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	gains := state.RecentGains
	if limit > 0 && len(gains) > limit {
		gains = gains[:limit]
	}
	return gains, nil
}

// Leaderboard returns the top-N users by total points, or
// store.ErrUnsupported on backends without ranking.
func (s *Service) Leaderboard(limit int) ([]store.LeaderboardEntry, error) {
	return s.store.Leaderboard(limit)
}

// Catalogue exposes the engine's validated achievement definitions.
func (s *Service) Catalogue() []progression.AchievementDefinition {
	return s.engine.Catalogue()
}

func (s *Service) emit(ev Event) {
	if s.onEvent == nil {
		return
	}
	s.onEvent(ev)
}
