package progression

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// maxRecentGains caps the display/audit history kept on the state.
const maxRecentGains = 10

// GainRecord is an immutable note of one point award, kept most-recent-first
// and pruned to maxRecentGains. It is display/audit data, never authoritative.
type GainRecord struct {
	ID         string    `json:"id"`
	Amount     int       `json:"amount"`
	Source     string    `json:"source"`
	Multiplier float64   `json:"multiplier,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// State is the per-user progression aggregate. It is owned exclusively by the
// engine; external callers dispatch events into it and read snapshots out.
// A State is not safe for concurrent mutation; callers serialize access per
// user (the service layer holds a per-user lock).
type State struct {
	UserID            string                     `json:"userId"`
	TotalPoints       int                        `json:"totalPoints"`
	Level             int                        `json:"level"`
	PointsToNextLevel int                        `json:"pointsToNextLevel"`
	StreakMultiplier  float64                    `json:"streakMultiplier"`
	BonusPools        map[PoolCategory]BonusPool `json:"bonusPools"`
	Unlocked          []UnlockedAchievement      `json:"unlockedAchievements"`
	RecentGains       []GainRecord               `json:"recentGains"`
	CreatedAt         time.Time                  `json:"createdAt"`
	UpdatedAt         time.Time                  `json:"updatedAt"`
}

// NewState creates a fresh Active state for userID: zero points, level 1,
// multiplier 1, nothing unlocked.
func NewState(userID string, now time.Time) *State {
	level, band := LevelForPoints(0)
	return &State{
		UserID:            userID,
		TotalPoints:       0,
		Level:             level,
		PointsToNextLevel: band,
		StreakMultiplier:  1,
		BonusPools:        make(map[PoolCategory]BonusPool),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// InitMaps ensures map fields are non-nil after deserialization.
func (s *State) InitMaps() {
	if s.BonusPools == nil {
		s.BonusPools = make(map[PoolCategory]BonusPool)
	}
}

// ApplyAward adds amount to the total, recomputes the level, and records a
// gain. It reports whether a level boundary was crossed. Negative amounts are
// rejected before any mutation. A multiplier of 0 or 1 is omitted from the
// record.
func (s *State) ApplyAward(amount int, source string, multiplier float64, now time.Time) (leveledUp bool, err error) {
	if amount < 0 {
		return false, fmt.Errorf("%w: %d from %q", ErrInvalidAward, amount, source)
	}
	previous := s.Level
	s.TotalPoints += amount
	s.Level, s.PointsToNextLevel = LevelForPoints(s.TotalPoints)
	s.pushGain(GainRecord{
		ID:         uuid.NewString(),
		Amount:     amount,
		Source:     source,
		Multiplier: gainMultiplier(multiplier),
		Timestamp:  now,
	})
	s.UpdatedAt = now
	return s.Level > previous, nil
}

// MergePools folds a set of pool deltas into the state, one live pool per
// category.
func (s *State) MergePools(deltas []BonusPool, now time.Time) {
	s.InitMaps()
	for _, d := range deltas {
		mergePool(s.BonusPools, d, now)
	}
	if len(deltas) > 0 {
		s.UpdatedAt = now
	}
}

// ClaimPool converts the named pool into points and removes it. A pool past
// its expiry pays nothing and is purged as a side effect of the read; an
// absent pool pays nothing. The award is applied through ApplyAward with a
// "<category>_bonus" source, so it shows up in the gain history and can cross
// a level boundary.
func (s *State) ClaimPool(category PoolCategory, now time.Time) (pointsAwarded int, leveledUp bool, err error) {
	if !category.IsValid() {
		return 0, false, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	s.InitMaps()
	pool, ok := s.BonusPools[category]
	if !ok {
		return 0, false, nil
	}
	delete(s.BonusPools, category)
	if pool.Expired(now) {
		s.UpdatedAt = now
		return 0, false, nil
	}
	pointsAwarded = int(math.Floor(float64(pool.AccumulatedPoints) * pool.Multiplier))
	leveledUp, err = s.ApplyAward(pointsAwarded, string(category)+"_bonus", pool.Multiplier, now)
	if err != nil {
		return 0, false, err
	}
	return pointsAwarded, leveledUp, nil
}

// ActivePools returns the live (non-expired) pools and purges expired ones
// from the state, in the fixed category order.
func (s *State) ActivePools(now time.Time) []BonusPool {
	s.InitMaps()
	order := []PoolCategory{PoolConsistency, PoolDifficulty, PoolTiming, PoolEnergyMatch, PoolPodSupport}
	var live []BonusPool
	for _, cat := range order {
		pool, ok := s.BonusPools[cat]
		if !ok {
			continue
		}
		if pool.Expired(now) {
			delete(s.BonusPools, cat)
			continue
		}
		live = append(live, pool)
	}
	return live
}

// UnlockAchievement records the unlock and applies its point reward. The
// caller has already established that the ID is not yet unlocked.
func (s *State) UnlockAchievement(def AchievementDefinition, now time.Time) (leveledUp bool, err error) {
	s.Unlocked = append(s.Unlocked, UnlockedAchievement{ID: def.ID, UnlockedAt: now})
	return s.ApplyAward(def.PointReward, "achievement_"+def.ID, 0, now)
}

// HasUnlocked reports whether the achievement ID has already been earned.
func (s *State) HasUnlocked(id string) bool {
	for _, u := range s.Unlocked {
		if u.ID == id {
			return true
		}
	}
	return false
}

// UnlockedIDs returns the earned achievement IDs as a set.
func (s *State) UnlockedIDs() map[string]bool {
	ids := make(map[string]bool, len(s.Unlocked))
	for _, u := range s.Unlocked {
		ids[u.ID] = true
	}
	return ids
}

// SetStreakMultiplier stores the multiplier computed by the streak
// collaborator. Values below 1 are treated as 1.
func (s *State) SetStreakMultiplier(m float64, now time.Time) {
	if m < 1 {
		m = 1
	}
	s.StreakMultiplier = m
	s.UpdatedAt = now
}

// Reset wipes the state back to a fresh Active state for the same user. This
// is a deliberate user-requested wipe and is only ever called explicitly.
func (s *State) Reset(now time.Time) {
	fresh := NewState(s.UserID, now)
	fresh.CreatedAt = s.CreatedAt
	*s = *fresh
}

// Clone returns a deep copy suitable for handing to other goroutines.
func (s *State) Clone() *State {
	cp := *s
	cp.BonusPools = make(map[PoolCategory]BonusPool, len(s.BonusPools))
	for k, v := range s.BonusPools {
		cp.BonusPools[k] = v
	}
	cp.Unlocked = make([]UnlockedAchievement, len(s.Unlocked))
	copy(cp.Unlocked, s.Unlocked)
	cp.RecentGains = make([]GainRecord, len(s.RecentGains))
	copy(cp.RecentGains, s.RecentGains)
	return &cp
}

func (s *State) pushGain(g GainRecord) {
	s.RecentGains = append([]GainRecord{g}, s.RecentGains...)
	if len(s.RecentGains) > maxRecentGains {
		s.RecentGains = s.RecentGains[:maxRecentGains]
	}
}

func gainMultiplier(m float64) float64 {
	if m > 1 {
		return m
	}
	return 0
}
