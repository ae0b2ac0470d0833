package progression

// Statistic names one rolling user metric that achievement requirements can
// threshold against. Values are computed by an external aggregator from the
// completion log; the engine only compares them.
type Statistic string

const (
	StatStreakLength             Statistic = "streakLength"
	StatTotalCompletions         Statistic = "totalCompletions"
	StatConsecutiveDaysReturned  Statistic = "consecutiveDaysReturned"
	StatEnergyMatchedCompletions Statistic = "energyMatchedCompletions"
	StatPodSupportActionsSent    Statistic = "podSupportActionsSent"
	StatHabitsCreated            Statistic = "habitsCreated"
	StatLevel                    Statistic = "level"
	StatCategoriesTried          Statistic = "categoriesTried"
	StatEarlyMorningCompletions  Statistic = "earlyMorningCompletions"
	StatLateNightCompletions     Statistic = "lateNightCompletions"
	StatBackupVersionsUsed       Statistic = "backupVersionsUsed"
)

// IsValid reports whether s is one of the defined statistics.
func (s Statistic) IsValid() bool {
	switch s {
	case StatStreakLength, StatTotalCompletions, StatConsecutiveDaysReturned,
		StatEnergyMatchedCompletions, StatPodSupportActionsSent,
		StatHabitsCreated, StatLevel, StatCategoriesTried,
		StatEarlyMorningCompletions, StatLateNightCompletions,
		StatBackupVersionsUsed:
		return true
	}
	return false
}

// Statistics is a snapshot of current metric values. Missing entries read
// as 0.
type Statistics map[Statistic]int

// Get returns the value for s, or 0 if absent.
func (st Statistics) Get(s Statistic) int {
	return st[s]
}
