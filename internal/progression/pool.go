package progression

import (
	"math"
	"time"
)

// PoolCategory identifies one of the fixed bonus-pool kinds. At most one live
// pool per category exists on a state at any time.
type PoolCategory string

const (
	PoolConsistency PoolCategory = "consistency"
	PoolDifficulty  PoolCategory = "difficulty"
	PoolTiming      PoolCategory = "timing"
	PoolEnergyMatch PoolCategory = "energyMatch"
	PoolPodSupport  PoolCategory = "podSupport"
)

// IsValid reports whether c is one of the defined categories.
func (c PoolCategory) IsValid() bool {
	switch c {
	case PoolConsistency, PoolDifficulty, PoolTiming, PoolEnergyMatch, PoolPodSupport:
		return true
	}
	return false
}

// BonusPool is a time-limited accumulator of bonus points. Pools grow via
// merge, pay out floor(accumulated * multiplier) on claim, and become inert
// once ExpiresAt passes. Expiry is checked lazily at read time; there is no
// background sweep.
type BonusPool struct {
	Category          PoolCategory `json:"category"`
	AccumulatedPoints int          `json:"accumulatedPoints"`
	Multiplier        float64      `json:"multiplier"`
	ExpiresAt         time.Time    `json:"expiresAt"`
}

// Expired reports whether the pool is past its expiry at the given time.
func (p BonusPool) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Pool contribution rules: fraction of base points accumulated, payout
// multiplier, and expiry offset per category.
const (
	energyPoolFraction  = 0.30
	timingPoolFraction  = 0.20
	supportPoolFraction = 0.15

	energyPoolMultiplier  = 1.5
	timingPoolMultiplier  = 1.3
	supportPoolMultiplier = 1.2

	energyPoolTTL      = 24 * time.Hour
	timingPoolTTL      = 12 * time.Hour
	supportPoolTTL     = 6 * time.Hour
	consistencyPoolTTL = 48 * time.Hour
)

// ProposePools returns the pool contributions earned by the conditions in
// ctx. A contribution is proposed even when basePoints is 0 so that pools
// keep recording qualifying events; the accumulated amount is simply 0.
// The consistency pool only forms once the streak multiplier exceeds 1.
func ProposePools(basePoints int, ctx AwardContext, now time.Time) []BonusPool {
	ctx = ctx.normalized()
	var pools []BonusPool
	if ctx.EnergyMatch {
		pools = append(pools, BonusPool{
			Category:          PoolEnergyMatch,
			AccumulatedPoints: poolShare(basePoints, energyPoolFraction),
			Multiplier:        energyPoolMultiplier,
			ExpiresAt:         now.Add(energyPoolTTL),
		})
	}
	if ctx.TimingBonus {
		pools = append(pools, BonusPool{
			Category:          PoolTiming,
			AccumulatedPoints: poolShare(basePoints, timingPoolFraction),
			Multiplier:        timingPoolMultiplier,
			ExpiresAt:         now.Add(timingPoolTTL),
		})
	}
	if ctx.PodSupport {
		pools = append(pools, BonusPool{
			Category:          PoolPodSupport,
			AccumulatedPoints: poolShare(basePoints, supportPoolFraction),
			Multiplier:        supportPoolMultiplier,
			ExpiresAt:         now.Add(supportPoolTTL),
		})
	}
	if ctx.StreakMultiplier > 1 {
		pools = append(pools, BonusPool{
			Category:          PoolConsistency,
			AccumulatedPoints: poolShare(basePoints, ctx.StreakMultiplier-1),
			Multiplier:        ctx.StreakMultiplier,
			ExpiresAt:         now.Add(consistencyPoolTTL),
		})
	}
	return pools
}

func poolShare(basePoints int, fraction float64) int {
	return int(math.Floor(float64(basePoints) * fraction))
}

// mergePool folds delta into the state's pool map. An existing live pool of
// the same category accumulates points, keeps the larger multiplier, and has
// its expiry extended (never shortened). An expired pool is replaced outright.
func mergePool(pools map[PoolCategory]BonusPool, delta BonusPool, now time.Time) {
	existing, ok := pools[delta.Category]
	if !ok || existing.Expired(now) {
		pools[delta.Category] = delta
		return
	}
	existing.AccumulatedPoints += delta.AccumulatedPoints
	existing.Multiplier = math.Max(existing.Multiplier, delta.Multiplier)
	if delta.ExpiresAt.After(existing.ExpiresAt) {
		existing.ExpiresAt = delta.ExpiresAt
	}
	pools[delta.Category] = existing
}
