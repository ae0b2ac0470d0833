// Package progression implements the scoring and progression engine: point
// awards with condition multipliers, quadratic leveling, time-limited bonus
// pools, and data-driven achievement unlocks. All operations are synchronous
// and free of I/O; inputs (context, statistics, catalogue) arrive fully
// resolved and time is passed in explicitly or taken from the engine clock.
package progression

import (
	"fmt"
	"time"
)

// Engine evaluates progression operations against per-user State values. It
// holds the validated achievement catalogue and a clock; it keeps no per-user
// data itself, so one Engine serves any number of users.
type Engine struct {
	catalogue []AchievementDefinition
	now       func() time.Time
}

// NewEngine creates an engine with the given achievement catalogue. The
// catalogue is validated up front: a definition with no requirements, an
// unknown statistic, or a duplicate ID fails here rather than silently never
// unlocking.
func NewEngine(catalogue []AchievementDefinition) (*Engine, error) {
	seen := make(map[string]bool, len(catalogue))
	for _, def := range catalogue {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if seen[def.ID] {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrMalformedDefinition, def.ID)
		}
		seen[def.ID] = true
	}
	return &Engine{catalogue: catalogue, now: time.Now}, nil
}

// SetClock replaces the engine's time source. Tests use this to pin expiries.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Now reads the engine clock, so layers above share the engine's time source.
func (e *Engine) Now() time.Time {
	return e.now()
}

// Catalogue returns the validated achievement definitions in catalogue order.
func (e *Engine) Catalogue() []AchievementDefinition {
	out := make([]AchievementDefinition, len(e.catalogue))
	copy(out, e.catalogue)
	return out
}

// InitializeProgression returns a fresh Active state for userID. Callers that
// already hold an Active state for the user must not replace it; the service
// layer treats re-initialization as a no-op.
func (e *Engine) InitializeProgression(userID string) *State {
	return NewState(userID, e.now())
}

// RecordCompletionAward runs a completion (or support) event through the
// award calculator and applies the result to state: points added, level
// recomputed, proposed bonus pools merged in. When the context carries no
// streak multiplier, the one stored on the state applies. Returns the award
// breakdown and whether a level boundary was crossed.
func (e *Engine) RecordCompletionAward(state *State, basePoints int, ctx AwardContext) (AwardResult, bool, error) {
	if state == nil {
		return AwardResult{}, false, ErrNotInitialized
	}
	if ctx.StreakMultiplier == 0 {
		ctx.StreakMultiplier = state.StreakMultiplier
	}
	now := e.now()
	result, err := ComputeAward(basePoints, ctx, now)
	if err != nil {
		return AwardResult{}, false, err
	}
	leveledUp, err := state.ApplyAward(result.TotalAwarded, "habit_completion", result.Factors.Total, now)
	if err != nil {
		return AwardResult{}, false, err
	}
	state.MergePools(result.NewBonusPools, now)
	return result, leveledUp, nil
}

// ClaimBonusPool converts the named pool into points. Expired or absent
// pools award nothing; expired ones are purged by the read.
func (e *Engine) ClaimBonusPool(state *State, category PoolCategory) (int, bool, error) {
	if state == nil {
		return 0, false, ErrNotInitialized
	}
	return state.ClaimPool(category, e.now())
}

// EvaluateAchievements checks the catalogue against stats and unlocks every
// newly qualifying achievement in catalogue order, applying each point reward
// before moving to the next. Already-unlocked achievements are always
// skipped, so a second call with unchanged inputs unlocks nothing.
func (e *Engine) EvaluateAchievements(state *State, stats Statistics) ([]AchievementDefinition, bool, error) {
	if state == nil {
		return nil, false, ErrNotInitialized
	}
	newly := EvaluateAchievements(state.UnlockedIDs(), e.catalogue, stats)
	leveledUp := false
	for _, def := range newly {
		up, err := state.UnlockAchievement(def, e.now())
		if err != nil {
			return nil, false, err
		}
		leveledUp = leveledUp || up
	}
	return newly, leveledUp, nil
}

// ResetProgression wipes state back to a fresh Active state. Explicit only.
func (e *Engine) ResetProgression(state *State) error {
	if state == nil {
		return ErrNotInitialized
	}
	state.Reset(e.now())
	return nil
}
