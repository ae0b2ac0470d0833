package progression

import (
	"fmt"
	"math"
	"time"
)

// Multipliers applied by ComputeAward. Difficulty contributes
// 1 + (difficulty-1)*difficultyStep on top of these.
const (
	difficultyStep    = 0.2
	energyMatchFactor = 1.3
	timingBonusFactor = 1.2
	podSupportFactor  = 1.15
	minDifficulty     = 1
	maxDifficulty     = 5
)

// AwardContext carries the modifier conditions for a single completion event.
// The zero value means: difficulty 1, no bonuses, streak multiplier 1.
type AwardContext struct {
	Difficulty       int     `json:"difficulty"`
	EnergyMatch      bool    `json:"energyMatch"`
	TimingBonus      bool    `json:"timingBonus"`
	StreakMultiplier float64 `json:"streakMultiplier"`
	PodSupport       bool    `json:"podSupport"`
}

// normalized returns a copy with defaults applied and difficulty clamped to
// the 1..5 range used by the habit wizard.
func (c AwardContext) normalized() AwardContext {
	if c.Difficulty < minDifficulty {
		c.Difficulty = minDifficulty
	}
	if c.Difficulty > maxDifficulty {
		c.Difficulty = maxDifficulty
	}
	if c.StreakMultiplier < 1 {
		c.StreakMultiplier = 1
	}
	return c
}

// FactorBreakdown records each multiplier that contributed to an award, for
// display and audit. Factors that did not apply are 1.
type FactorBreakdown struct {
	Difficulty  float64 `json:"difficulty"`
	EnergyMatch float64 `json:"energyMatch"`
	TimingBonus float64 `json:"timingBonus"`
	Streak      float64 `json:"streak"`
	PodSupport  float64 `json:"podSupport"`
	Total       float64 `json:"total"`
}

// AwardResult is the outcome of ComputeAward. NewBonusPools is a set of pool
// deltas for the caller to merge into the state; the calculator itself never
// mutates anything.
type AwardResult struct {
	TotalAwarded  int             `json:"totalAwarded"`
	Factors       FactorBreakdown `json:"factors"`
	NewBonusPools []BonusPool     `json:"newBonusPools,omitempty"`
}

// ComputeAward converts a base point value and a set of modifier conditions
// into the final awarded amount plus any bonus-pool contributions the
// conditions earn. Each factor is computed independently and composed by
// product, then the total is floored. Identical inputs always produce
// identical output; now is only used to stamp pool expiries.
func ComputeAward(basePoints int, ctx AwardContext, now time.Time) (AwardResult, error) {
	if basePoints < 0 {
		return AwardResult{}, fmt.Errorf("%w: base points %d", ErrInvalidAward, basePoints)
	}
	ctx = ctx.normalized()

	fb := FactorBreakdown{
		Difficulty:  1 + float64(ctx.Difficulty-1)*difficultyStep,
		EnergyMatch: 1,
		TimingBonus: 1,
		Streak:      ctx.StreakMultiplier,
		PodSupport:  1,
	}
	factor := fb.Difficulty
	if ctx.EnergyMatch {
		fb.EnergyMatch = energyMatchFactor
		factor *= energyMatchFactor
	}
	if ctx.TimingBonus {
		fb.TimingBonus = timingBonusFactor
		factor *= timingBonusFactor
	}
	factor *= ctx.StreakMultiplier
	if ctx.PodSupport {
		fb.PodSupport = podSupportFactor
		factor *= podSupportFactor
	}
	fb.Total = factor

	return AwardResult{
		TotalAwarded:  int(math.Floor(float64(basePoints) * factor)),
		Factors:       fb,
		NewBonusPools: ProposePools(basePoints, ctx, now),
	}, nil
}
