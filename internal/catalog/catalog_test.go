package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/habitloop/backend/internal/progression"
)

func writeCatalogue(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "achievements.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing catalogue: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeCatalogue(t, `
achievements:
  - id: weekend_warrior
    title: Weekend Warrior
    description: Complete habits on ten weekends
    rarity: rare
    point_reward: 150
    category: consistency
    requirements:
      - statistic: totalCompletions
        threshold: 20
  - id: dawn_patrol
    title: Dawn Patrol
    rarity: epic
    point_reward: 300
    requirements:
      - statistic: earlyMorningCompletions
        threshold: 25
      - statistic: streakLength
        threshold: 5
`)

	defs, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("loaded %d definitions, want 2", len(defs))
	}

	first := defs[0]
	if first.ID != "weekend_warrior" || first.PointReward != 150 || first.Rarity != progression.RarityRare {
		t.Errorf("first = %+v", first)
	}
	if len(defs[1].Requirements) != 2 {
		t.Errorf("dawn_patrol requirements = %v", defs[1].Requirements)
	}
	if defs[1].Requirements[0].Statistic != progression.StatEarlyMorningCompletions {
		t.Errorf("statistic = %q", defs[1].Requirements[0].Statistic)
	}
}

func TestLoadRejectsUnknownStatistic(t *testing.T) {
	path := writeCatalogue(t, `
achievements:
  - id: bad
    point_reward: 10
    requirements:
      - statistic: karma
        threshold: 1
`)

	_, err := Load(path)
	if !errors.Is(err, progression.ErrMalformedDefinition) {
		t.Fatalf("err = %v, want ErrMalformedDefinition", err)
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	path := writeCatalogue(t, `
achievements:
  - id: twin
    requirements:
      - statistic: level
        threshold: 2
  - id: twin
    requirements:
      - statistic: level
        threshold: 3
`)

	_, err := Load(path)
	if !errors.Is(err, progression.ErrMalformedDefinition) {
		t.Fatalf("err = %v, want ErrMalformedDefinition", err)
	}
}

func TestLoadRejectsEmptyCatalogue(t *testing.T) {
	path := writeCatalogue(t, "achievements: []\n")
	if _, err := Load(path); !errors.Is(err, progression.ErrMalformedDefinition) {
		t.Fatalf("err = %v, want ErrMalformedDefinition", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDefaultCatalogueIsValid(t *testing.T) {
	defs := Default()
	if err := Validate(defs); err != nil {
		t.Fatalf("default catalogue invalid: %v", err)
	}
	if len(defs) != 17 {
		t.Errorf("default catalogue has %d entries, want 17", len(defs))
	}

	// The default set feeds straight into the engine.
	if _, err := progression.NewEngine(defs); err != nil {
		t.Fatalf("NewEngine(Default()): %v", err)
	}
}
