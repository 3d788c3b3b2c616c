package achievements

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dileepadari/wellnesshub/internal/models"
)

const testCatalog = `
achievements:
  - name: First Steps
    description: Record your first daily activity
    icon: footprints
    category: health
    points: 10
    criteria:
      target: current_streak
      operator: ">="
      value: 1

  - name: Week Warrior
    description: Keep a 7 day activity streak going
    icon: flame
    category: health
    points: 50
    criteria:
      target: current_streak
      operator: ">="
      value: 7
    prerequisites:
      - First Steps
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "achievements.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write catalog file: %v", err)
	}
	return path
}

func TestSeedFromCatalog(t *testing.T) {
	service, achievementRepo, _, _ := setupTestService()
	path := writeCatalog(t, testCatalog)

	created, err := service.SeedFromCatalog(path)
	if err != nil {
		t.Fatalf("SeedFromCatalog failed: %v", err)
	}
	if created != 2 {
		t.Errorf("Expected 2 created achievements, got %d", created)
	}

	first, err := achievementRepo.GetByName("First Steps")
	if err != nil {
		t.Fatalf("First Steps not seeded: %v", err)
	}
	if first.Category != "health" || first.Points != 10 {
		t.Errorf("Unexpected seeded fields: category=%q points=%d", first.Category, first.Points)
	}

	var criteria models.AchievementCriteria
	if err := json.Unmarshal(first.Criteria, &criteria); err != nil {
		t.Fatalf("Seeded criteria is not valid JSON: %v", err)
	}
	if criteria.Target != "current_streak" || criteria.Operator != ">=" {
		t.Errorf("Unexpected criteria: %+v", criteria)
	}
}

func TestSeedFromCatalogResolvesPrerequisites(t *testing.T) {
	service, achievementRepo, _, _ := setupTestService()
	path := writeCatalog(t, testCatalog)

	if _, err := service.SeedFromCatalog(path); err != nil {
		t.Fatalf("SeedFromCatalog failed: %v", err)
	}

	first, _ := achievementRepo.GetByName("First Steps")
	warrior, err := achievementRepo.GetByName("Week Warrior")
	if err != nil {
		t.Fatalf("Week Warrior not seeded: %v", err)
	}
	if len(warrior.Prerequisites) != 1 {
		t.Fatalf("Expected 1 prerequisite, got %d", len(warrior.Prerequisites))
	}
	if warrior.Prerequisites[0].RequiredID != first.ID {
		t.Errorf("Expected prerequisite on %d, got %d", first.ID, warrior.Prerequisites[0].RequiredID)
	}
	if !warrior.Prerequisites[0].Required {
		t.Error("Catalog prerequisites should be required")
	}
}

func TestSeedFromCatalogIdempotent(t *testing.T) {
	service, _, _, _ := setupTestService()
	path := writeCatalog(t, testCatalog)

	if _, err := service.SeedFromCatalog(path); err != nil {
		t.Fatalf("First seed failed: %v", err)
	}

	created, err := service.SeedFromCatalog(path)
	if err != nil {
		t.Fatalf("Second seed failed: %v", err)
	}
	if created != 0 {
		t.Errorf("Expected 0 created on re-seed, got %d", created)
	}
}

func TestSeedFromCatalogMissingFile(t *testing.T) {
	service, _, _, _ := setupTestService()

	if _, err := service.SeedFromCatalog("/nonexistent/achievements.yaml"); err == nil {
		t.Error("Expected error for missing catalog file")
	}
}

func TestSeedFromCatalogInvalidYAML(t *testing.T) {
	service, _, _, _ := setupTestService()
	path := writeCatalog(t, "achievements: [not: valid")

	if _, err := service.SeedFromCatalog(path); err == nil {
		t.Error("Expected error for malformed catalog")
	}
}
