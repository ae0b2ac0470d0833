package service

import (
	"sync"
	"testing"
	"time"

	"github.com/habitloop/backend/internal/progression"
	"github.com/habitloop/backend/internal/store"
)

var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func testDefs() []progression.AchievementDefinition {
	return []progression.AchievementDefinition{
		{
			ID: "first_steps", Title: "First Steps", PointReward: 10,
			Requirements: []progression.Requirement{{Statistic: progression.StatTotalCompletions, Threshold: 1}},
		},
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	engine, err := progression.NewEngine(testDefs())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	engine.SetClock(func() time.Time { return testNow })
	return New(engine, store.NewFileStore(t.TempDir()))
}

// eventRecorder collects emitted events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *eventRecorder) byType(typ string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func TestInitializeIdempotent(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.Initialize("user-1")
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if first.Level != 1 || first.TotalPoints != 0 {
		t.Errorf("fresh state = %+v", first)
	}

	// Earn some points, then re-initialize: the snapshot must survive.
	if _, _, _, err := svc.RecordCompletion("user-1", 50, progression.AwardContext{}); err != nil {
		t.Fatalf("RecordCompletion: %v", err)
	}
	again, err := svc.Initialize("user-1")
	if err != nil {
		t.Fatalf("re-Initialize: %v", err)
	}
	if again.TotalPoints != 50 {
		t.Errorf("re-initialize wiped progression: %d points", again.TotalPoints)
	}
}

func TestLazyInitOnFirstOperation(t *testing.T) {
	svc := newTestService(t)

	// No explicit Initialize call.
	state, result, _, err := svc.RecordCompletion("new-user", 10, progression.AwardContext{})
	if err != nil {
		t.Fatalf("RecordCompletion: %v", err)
	}
	if result.TotalAwarded != 10 || state.TotalPoints != 10 {
		t.Errorf("award = %d, state = %d points", result.TotalAwarded, state.TotalPoints)
	}
}

func TestRecordCompletionPersists(t *testing.T) {
	svc := newTestService(t)

	if _, _, _, err := svc.RecordCompletion("user-1", 30, progression.AwardContext{Difficulty: 3}); err != nil {
		t.Fatalf("RecordCompletion: %v", err)
	}

	state, err := svc.Get("user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if state.TotalPoints != 42 { // 30 * 1.4
		t.Errorf("TotalPoints = %d, want 42", state.TotalPoints)
	}
}

func TestEventsEmitted(t *testing.T) {
	svc := newTestService(t)
	rec := &eventRecorder{}
	svc.OnEvent(rec.record)

	// 120 base points crosses into level 2 and the energy condition forms a
	// pool.
	_, _, leveledUp, err := svc.RecordCompletion("user-1", 120, progression.AwardContext{EnergyMatch: true})
	if err != nil {
		t.Fatalf("RecordCompletion: %v", err)
	}
	if !leveledUp {
		t.Fatal("expected a level up")
	}

	ups := rec.byType(EventLevelUp)
	if len(ups) != 1 || ups[0].Level != 2 || ups[0].UserID != "user-1" {
		t.Errorf("level_up events = %+v", ups)
	}
	created := rec.byType(EventPoolCreated)
	if len(created) != 1 || created[0].Pool == nil || created[0].Pool.Category != progression.PoolEnergyMatch {
		t.Errorf("pool_created events = %+v", created)
	}

	if _, points, err := svc.ClaimPool("user-1", progression.PoolEnergyMatch); err != nil || points == 0 {
		t.Fatalf("ClaimPool = (%d, %v)", points, err)
	}
	claimed := rec.byType(EventPoolClaimed)
	if len(claimed) != 1 || claimed[0].Points == 0 {
		t.Errorf("pool_claimed events = %+v", claimed)
	}
}

func TestEvaluateAchievementsEmitsUnlock(t *testing.T) {
	svc := newTestService(t)
	rec := &eventRecorder{}
	svc.OnEvent(rec.record)

	state, newly, err := svc.EvaluateAchievements("user-1", progression.Statistics{
		progression.StatTotalCompletions: 1,
	})
	if err != nil {
		t.Fatalf("EvaluateAchievements: %v", err)
	}
	if len(newly) != 1 || newly[0].ID != "first_steps" {
		t.Fatalf("newly = %+v", newly)
	}
	if state.TotalPoints != 10 {
		t.Errorf("reward not applied: %d points", state.TotalPoints)
	}

	unlocks := rec.byType(EventAchievementUnlocked)
	if len(unlocks) != 1 || unlocks[0].Achievement == nil || unlocks[0].Achievement.ID != "first_steps" {
		t.Errorf("unlock events = %+v", unlocks)
	}

	// Unchanged stats unlock nothing more.
	_, newly, err = svc.EvaluateAchievements("user-1", progression.Statistics{
		progression.StatTotalCompletions: 5,
	})
	if err != nil {
		t.Fatalf("EvaluateAchievements: %v", err)
	}
	if len(newly) != 0 {
		t.Errorf("second evaluation unlocked %v", newly)
	}
}

func TestSetStreakMultiplierAffectsAwards(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.SetStreakMultiplier("user-1", 2); err != nil {
		t.Fatalf("SetStreakMultiplier: %v", err)
	}
	_, result, _, err := svc.RecordCompletion("user-1", 10, progression.AwardContext{})
	if err != nil {
		t.Fatalf("RecordCompletion: %v", err)
	}
	if result.TotalAwarded != 20 {
		t.Errorf("awarded = %d, want 20 with stored multiplier", result.TotalAwarded)
	}
}

func TestResetWipesProgression(t *testing.T) {
	svc := newTestService(t)

	if _, _, _, err := svc.RecordCompletion("user-1", 500, progression.AwardContext{}); err != nil {
		t.Fatalf("RecordCompletion: %v", err)
	}
	state, err := svc.Reset("user-1")
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if state.TotalPoints != 0 || state.Level != 1 {
		t.Errorf("reset state = %d points, level %d", state.TotalPoints, state.Level)
	}

	// The wipe is persisted, not just in the returned snapshot.
	state, err = svc.Get("user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if state.TotalPoints != 0 {
		t.Errorf("persisted points = %d after reset", state.TotalPoints)
	}
}

func TestRecentGainsSnapshotFallback(t *testing.T) {
	svc := newTestService(t)

	for i := 0; i < 3; i++ {
		if _, _, _, err := svc.RecordCompletion("user-1", 10, progression.AwardContext{}); err != nil {
			t.Fatalf("RecordCompletion: %v", err)
		}
	}

	gains, err := svc.RecentGains("user-1", 2)
	if err != nil {
		t.Fatalf("RecentGains: %v", err)
	}
	if len(gains) != 2 {
		t.Errorf("gains = %d, want limit applied", len(gains))
	}
}

func TestConcurrentCompletionsSameUser(t *testing.T) {
	svc := newTestService(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, _, err := svc.RecordCompletion("user-1", 10, progression.AwardContext{}); err != nil {
				t.Errorf("RecordCompletion: %v", err)
			}
		}()
	}
	wg.Wait()

	state, err := svc.Get("user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if state.TotalPoints != n*10 {
		t.Errorf("TotalPoints = %d, want %d (lost update)", state.TotalPoints, n*10)
	}
}
