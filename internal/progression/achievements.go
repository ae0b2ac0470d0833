package progression

import (
	"fmt"
	"time"
)

// Rarity grades an achievement for display.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// IsValid reports whether r is one of the defined rarities.
func (r Rarity) IsValid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// Requirement is a single numeric threshold over one statistic. All
// requirements on a definition must hold simultaneously for it to unlock.
type Requirement struct {
	Statistic Statistic `json:"statistic" yaml:"statistic"`
	Threshold int       `json:"threshold" yaml:"threshold"`
}

// AchievementDefinition is one entry of the external catalogue, read-only to
// the engine. Adding an achievement is a catalogue-data change, not a code
// change.
type AchievementDefinition struct {
	ID           string        `json:"id" yaml:"id"`
	Title        string        `json:"title" yaml:"title"`
	Description  string        `json:"description" yaml:"description"`
	Rarity       Rarity        `json:"rarity" yaml:"rarity"`
	PointReward  int           `json:"pointReward" yaml:"point_reward"`
	Category     string        `json:"category" yaml:"category"`
	Requirements []Requirement `json:"requirements" yaml:"requirements"`
}

// Validate checks a definition the way the catalogue loader does: a non-empty
// ID, at least one requirement, every requirement against a known statistic,
// and a non-negative reward.
func (d AchievementDefinition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: empty id", ErrMalformedDefinition)
	}
	if len(d.Requirements) == 0 {
		return fmt.Errorf("%w: %q has no requirements", ErrMalformedDefinition, d.ID)
	}
	for _, req := range d.Requirements {
		if !req.Statistic.IsValid() {
			return fmt.Errorf("%w: %q references unknown statistic %q", ErrMalformedDefinition, d.ID, req.Statistic)
		}
	}
	if d.PointReward < 0 {
		return fmt.Errorf("%w: %q has negative point reward", ErrMalformedDefinition, d.ID)
	}
	if d.Rarity != "" && !d.Rarity.IsValid() {
		return fmt.Errorf("%w: %q has unknown rarity %q", ErrMalformedDefinition, d.ID, d.Rarity)
	}
	return nil
}

// met reports whether every requirement holds against stats.
func (d AchievementDefinition) met(stats Statistics) bool {
	for _, req := range d.Requirements {
		if stats.Get(req.Statistic) < req.Threshold {
			return false
		}
	}
	return true
}

// UnlockedAchievement records one earned achievement on the state.
type UnlockedAchievement struct {
	ID         string    `json:"id"`
	UnlockedAt time.Time `json:"unlockedAt"`
}

// EvaluateAchievements walks the catalogue in order and returns the
// definitions that newly qualify: every requirement satisfied and the ID not
// yet in unlockedIDs. Calling it again with unchanged inputs returns nothing,
// since qualifying IDs are expected to be added to unlockedIDs by the caller.
func EvaluateAchievements(unlockedIDs map[string]bool, catalogue []AchievementDefinition, stats Statistics) []AchievementDefinition {
	var newly []AchievementDefinition
	for _, def := range catalogue {
		if unlockedIDs[def.ID] {
			continue
		}
		if def.met(stats) {
			newly = append(newly, def)
		}
	}
	return newly
}
