package catalog

import "github.com/habitloop/backend/internal/progression"

// Display categories grouping achievements in the UI.
const (
	CategoryConsistency = "consistency"
	CategoryGrowth      = "growth"
	CategorySupport     = "support"
	CategoryResilience  = "resilience"
	CategoryDiscovery   = "discovery"
)

// Default returns the built-in achievement catalogue.
func Default() []progression.AchievementDefinition {
	return []progression.AchievementDefinition{

		// ── Consistency ────────────────────────────────────────────────────

		{
			ID: "first_steps", Title: "First Steps",
			Description: "Complete your first habit",
			Rarity:      progression.RarityCommon, Category: CategoryConsistency,
			PointReward: 50,
			Requirements: []progression.Requirement{
				{Statistic: progression.StatTotalCompletions, Threshold: 1},
			},
		},
		{
			ID: "streak_master", Title: "Streak Master",
			Description: "Maintain a 7-day streak",
			Rarity:      progression.RarityRare, Category: CategoryConsistency,
			PointReward: 200,
			Requirements: []progression.Requirement{
				{Statistic: progression.StatStreakLength, Threshold: 7},
			},
		},
		{
			ID: "month_warrior", Title: "Month Warrior",
			Description: "Maintain a 30-day streak",
			Rarity:      progression.RarityEpic, Category: CategoryConsistency,
			PointReward: 500,
			Requirements: []progression.Requirement{
				{Statistic: progression.StatStreakLength, Threshold: 30},
			},
		},
		{
			ID: "habit_legend", Title: "Habit Legend",
			Description: "Maintain a 100-day streak",
			Rarity:      progression.RarityLegendary, Category: CategoryConsistency,
			PointReward: 1000,
			Requirements: []progression.Requirement{
				{Statistic: progression.StatStreakLength, Threshold: 100},
			},
		},

		// ── Growth ─────────────────────────────────────────────────────────

		{
			ID: "habit_builder", Title: "Habit Builder",
			Description: "Create 5 different habits",
			Rarity:      progression.RarityCommon, Category: CategoryGrowth,
			PointReward: 100,
			Requirements: []progression.Requirement{
				{Statistic: progression.StatHabitsCreated, Threshold: 5},
			},
		},
		{
			ID: "habit_architect", Title: "Habit Architect",
			Description: "Create 20 different habits",
			Rarity:      progression.RarityRare, Category: CategoryGrowth,
			PointReward: 300,
			Requirements: []progression.Requirement{
				{Statistic: progression.StatHabitsCreated, Threshold: 20},
			},
		},
		{
			ID: "level_up", Title: "Level Up",
			Description: "Reach level 5",
			Rarity:      progression.RarityRare, Category: CategoryGrowth,
			PointReward: 250,
			Requirements: []progression.Requirement{
				{Statistic: progression.StatLevel, Threshold: 5},
			},
		},
		{
			ID: "point_master", Title: "Point Master",
			Description: "Reach level 10",
			Rarity:      progression.RarityEpic, Category: CategoryGrowth,
			PointReward: 500,
			Requirements: []progression.Requirement{
				{Statistic: progression.StatLevel, Threshold: 10},
			},
		},

		// ── Support ────────────────────────────────────────────────────────

		{
			ID: "encourager", Title: "Encourager",
			Description: "Send 10 cheers to your pod partner",
			Rarity:      progression.RarityRare, Category: CategorySupport,
			PointReward: 200,
			Requirements: []progression.Requirement{
				{Statistic: progression.StatPodSupportActionsSent, Threshold: 10},
			},
		},
		{
			ID: "pod_pillar", Title: "Pod Pillar",
			Description: "Send 50 cheers to your pod partner",
			Rarity:      progression.RarityEpic, Category: CategorySupport,
			PointReward: 400,
			Requirements: []progression.Requirement{
				{Statistic: progression.StatPodSupportActionsSent, Threshold: 50},
			},
		},

		// ── Resilience ─────────────────────────────────────────────────────

		{
			ID: "comeback_kid", Title: "Comeback Kid",
			Description: "Return after missing a day",
			Rarity:      progression.RarityCommon, Category: CategoryResilience,
			PointReward: 100,
			Requirements: []progression.Requirement{
				{Statistic: progression.StatConsecutiveDaysReturned, Threshold: 1},
			},
		},
		{
			ID: "bounce_back", Title: "Bounce Back",
			Description: "Return after missing 3 days",
			Rarity:      progression.RarityRare, Category: CategoryResilience,
			PointReward: 200,
			Requirements: []progression.Requirement{
				{Statistic: progression.StatConsecutiveDaysReturned, Threshold: 3},
			},
		},

		// ── Discovery ──────────────────────────────────────────────────────

		{
			ID: "explorer", Title: "Explorer",
			Description: "Try 3 different habit categories",
			Rarity:      progression.RarityCommon, Category: CategoryDiscovery,
			PointReward: 75,
			Requirements: []progression.Requirement{
				{Statistic: progression.StatCategoriesTried, Threshold: 3},
			},
		},
		{
			ID: "early_bird", Title: "Early Bird",
			Description: "Complete a habit before 8 AM",
			Rarity:      progression.RarityRare, Category: CategoryDiscovery,
			PointReward: 150,
			Requirements: []progression.Requirement{
				{Statistic: progression.StatEarlyMorningCompletions, Threshold: 1},
			},
		},
		{
			ID: "night_owl", Title: "Night Owl",
			Description: "Complete a habit after 10 PM",
			Rarity:      progression.RarityRare, Category: CategoryDiscovery,
			PointReward: 150,
			Requirements: []progression.Requirement{
				{Statistic: progression.StatLateNightCompletions, Threshold: 1},
			},
		},
		{
			ID: "energy_master", Title: "Energy Master",
			Description: "Complete 10 habits during your optimal energy times",
			Rarity:      progression.RarityEpic, Category: CategoryDiscovery,
			PointReward: 300,
			Requirements: []progression.Requirement{
				{Statistic: progression.StatEnergyMatchedCompletions, Threshold: 10},
			},
		},
		{
			ID: "adaptive_genius", Title: "Adaptive Genius",
			Description: "Use backup versions of habits 5 times",
			Rarity:      progression.RarityEpic, Category: CategoryDiscovery,
			PointReward: 250,
			Requirements: []progression.Requirement{
				{Statistic: progression.StatBackupVersionsUsed, Threshold: 5},
			},
		},
	}
}
