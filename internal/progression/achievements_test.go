package progression

import (
	"errors"
	"testing"
)

func defsForTest() []AchievementDefinition {
	return []AchievementDefinition{
		{
			ID: "first_steps", Title: "First Steps", Rarity: RarityCommon, PointReward: 10,
			Requirements: []Requirement{{Statistic: StatTotalCompletions, Threshold: 1}},
		},
		{
			ID: "streak_master", Title: "Streak Master", Rarity: RarityRare, PointReward: 50,
			Requirements: []Requirement{{Statistic: StatStreakLength, Threshold: 7}},
		},
		{
			ID: "energy_adept", Title: "Energy Adept", Rarity: RarityEpic, PointReward: 75,
			Requirements: []Requirement{
				{Statistic: StatEnergyMatchedCompletions, Threshold: 10},
				{Statistic: StatLevel, Threshold: 3},
			},
		},
	}
}

func TestDefinitionValidate(t *testing.T) {
	tests := []struct {
		name string
		def  AchievementDefinition
		ok   bool
	}{
		{"valid", defsForTest()[0], true},
		{"empty id", AchievementDefinition{Requirements: []Requirement{{Statistic: StatLevel, Threshold: 1}}}, false},
		{"no requirements", AchievementDefinition{ID: "x"}, false},
		{"unknown statistic", AchievementDefinition{ID: "x", Requirements: []Requirement{{Statistic: "vibes", Threshold: 1}}}, false},
		{"negative reward", AchievementDefinition{ID: "x", PointReward: -5, Requirements: []Requirement{{Statistic: StatLevel, Threshold: 1}}}, false},
		{"unknown rarity", AchievementDefinition{ID: "x", Rarity: "mythic", Requirements: []Requirement{{Statistic: StatLevel, Threshold: 1}}}, false},
		{"rarity optional", AchievementDefinition{ID: "x", Requirements: []Requirement{{Statistic: StatLevel, Threshold: 1}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("Validate() = nil, want error")
				}
				if !errors.Is(err, ErrMalformedDefinition) {
					t.Errorf("err = %v, want ErrMalformedDefinition", err)
				}
			}
		})
	}
}

func TestEvaluateAchievements(t *testing.T) {
	defs := defsForTest()

	newly := EvaluateAchievements(nil, defs, Statistics{
		StatTotalCompletions: 5,
		StatStreakLength:     7,
	})
	if len(newly) != 2 {
		t.Fatalf("unlocked %d, want 2", len(newly))
	}
	// Catalogue order, not stats order.
	if newly[0].ID != "first_steps" || newly[1].ID != "streak_master" {
		t.Errorf("order = %q, %q", newly[0].ID, newly[1].ID)
	}
}

func TestEvaluateAchievementsAllRequirementsMustHold(t *testing.T) {
	defs := defsForTest()

	// Only one of energy_adept's two requirements is met.
	newly := EvaluateAchievements(nil, defs, Statistics{
		StatEnergyMatchedCompletions: 10,
		StatLevel:                    2,
	})
	for _, def := range newly {
		if def.ID == "energy_adept" {
			t.Fatal("energy_adept unlocked with only one requirement met")
		}
	}

	newly = EvaluateAchievements(nil, defs, Statistics{
		StatEnergyMatchedCompletions: 10,
		StatLevel:                    3,
	})
	found := false
	for _, def := range newly {
		found = found || def.ID == "energy_adept"
	}
	if !found {
		t.Fatal("energy_adept should unlock when both requirements hold")
	}
}

func TestEvaluateAchievementsSkipsUnlocked(t *testing.T) {
	defs := defsForTest()
	stats := Statistics{StatTotalCompletions: 1}

	newly := EvaluateAchievements(map[string]bool{"first_steps": true}, defs, stats)
	if len(newly) != 0 {
		t.Errorf("re-evaluation unlocked %v", newly)
	}
}

func TestEvaluateAchievementsExactThreshold(t *testing.T) {
	defs := defsForTest()

	if got := EvaluateAchievements(nil, defs, Statistics{StatStreakLength: 6}); len(got) != 0 {
		t.Errorf("below threshold unlocked %v", got)
	}
	if got := EvaluateAchievements(nil, defs, Statistics{StatStreakLength: 7}); len(got) != 1 {
		t.Errorf("at threshold unlocked %d, want 1", len(got))
	}
}
