package progress

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dileepadari/wellnesshub/internal/models"
	"github.com/dileepadari/wellnesshub/pkg/logger"
)

// Mock user repository for testing
type mockUserRepository struct {
	users map[uint]*models.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[uint]*models.User)}
}

func (m *mockUserRepository) GetByID(id uint) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d not found", id)
	}
	copied := *user
	return &copied, nil
}

func (m *mockUserRepository) Update(user *models.User) error {
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func setupTestService() (*Service, *mockUserRepository) {
	repo := newMockUserRepository()
	log := logger.New("debug", "console", "stdout")
	service := NewServiceWithInterfaces(repo, nil, DefaultExperiencePerLevel, log)
	return service, repo
}

func addUser(repo *mockUserRepository, id uint) *models.User {
	user := &models.User{ID: id, Username: fmt.Sprintf("user%d", id), Level: 1, Active: true}
	repo.users[id] = user
	return user
}

func TestLevelForExperience(t *testing.T) {
	tests := []struct {
		experience int
		expected   int
	}{
		{0, 1},
		{1, 1},
		{999, 1},
		{1000, 2},
		{1001, 2},
		{4999, 5},
		{5000, 6},
		{10000, 11},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("xp=%d", tt.experience), func(t *testing.T) {
			level := LevelForExperience(tt.experience, DefaultExperiencePerLevel)
			if level != tt.expected {
				t.Errorf("Expected level %d for experience %d, got %d", tt.expected, tt.experience, level)
			}
		})
	}
}

func TestLevelForExperience_Monotonic(t *testing.T) {
	prev := 0
	for xp := 0; xp <= 20000; xp += 250 {
		level := LevelForExperience(xp, DefaultExperiencePerLevel)
		if level < prev {
			t.Fatalf("Level decreased from %d to %d at experience %d", prev, level, xp)
		}
		prev = level
	}
}

func TestAddPoints(t *testing.T) {
	service, repo := setupTestService()
	addUser(repo, 1)

	user, err := service.AddPoints(context.Background(), 1, 250, "daily_checkin")
	if err != nil {
		t.Fatalf("AddPoints() failed: %v", err)
	}

	if user.TotalPoints != 250 {
		t.Errorf("Expected total points 250, got %d", user.TotalPoints)
	}
	if user.AvailablePoints != 250 {
		t.Errorf("Expected available points 250, got %d", user.AvailablePoints)
	}
	if user.Experience != 250 {
		t.Errorf("Expected experience 250, got %d", user.Experience)
	}
	if user.Level != 1 {
		t.Errorf("Expected level 1, got %d", user.Level)
	}
}

func TestAddPoints_OrderIndependent(t *testing.T) {
	serviceA, repoA := setupTestService()
	serviceB, repoB := setupTestService()
	addUser(repoA, 1)
	addUser(repoB, 1)
	ctx := context.Background()

	if _, err := serviceA.AddPoints(ctx, 1, 300, "a"); err != nil {
		t.Fatalf("AddPoints() failed: %v", err)
	}
	if _, err := serviceA.AddPoints(ctx, 1, 700, "b"); err != nil {
		t.Fatalf("AddPoints() failed: %v", err)
	}

	if _, err := serviceB.AddPoints(ctx, 1, 700, "b"); err != nil {
		t.Fatalf("AddPoints() failed: %v", err)
	}
	if _, err := serviceB.AddPoints(ctx, 1, 300, "a"); err != nil {
		t.Fatalf("AddPoints() failed: %v", err)
	}

	userA, _ := repoA.GetByID(1)
	userB, _ := repoB.GetByID(1)
	if userA.TotalPoints != userB.TotalPoints {
		t.Errorf("Total points differ by order: %d vs %d", userA.TotalPoints, userB.TotalPoints)
	}
	if userA.Level != userB.Level {
		t.Errorf("Level differs by order: %d vs %d", userA.Level, userB.Level)
	}
}

func TestAddPoints_LevelUp(t *testing.T) {
	service, repo := setupTestService()
	addUser(repo, 1)

	user, err := service.AddPoints(context.Background(), 1, 1000, "test")
	if err != nil {
		t.Fatalf("AddPoints() failed: %v", err)
	}

	if user.Experience != 1000 {
		t.Errorf("Expected experience 1000, got %d", user.Experience)
	}
	if user.Level != 2 {
		t.Errorf("Expected level 2 at 1000 experience, got %d", user.Level)
	}
}

func TestAddPoints_InvalidAmount(t *testing.T) {
	service, repo := setupTestService()
	addUser(repo, 1)

	for _, amount := range []int{0, -5} {
		_, err := service.AddPoints(context.Background(), 1, amount, "bad")
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Expected ErrInvalidAmount for amount %d, got %v", amount, err)
		}
	}
}

func TestSpendPoints(t *testing.T) {
	service, repo := setupTestService()
	addUser(repo, 1)
	ctx := context.Background()

	if _, err := service.AddPoints(ctx, 1, 500, "seed"); err != nil {
		t.Fatalf("AddPoints() failed: %v", err)
	}

	user, err := service.SpendPoints(ctx, 1, 200, "reward_shop")
	if err != nil {
		t.Fatalf("SpendPoints() failed: %v", err)
	}

	if user.AvailablePoints != 300 {
		t.Errorf("Expected available points 300, got %d", user.AvailablePoints)
	}
	if user.TotalPoints != 500 {
		t.Errorf("Expected total points unchanged at 500, got %d", user.TotalPoints)
	}
	if user.Experience != 500 {
		t.Errorf("Expected experience unchanged at 500, got %d", user.Experience)
	}
}

func TestSpendPoints_InsufficientFunds(t *testing.T) {
	service, repo := setupTestService()
	addUser(repo, 1)
	ctx := context.Background()

	if _, err := service.AddPoints(ctx, 1, 100, "seed"); err != nil {
		t.Fatalf("AddPoints() failed: %v", err)
	}

	_, err := service.SpendPoints(ctx, 1, 101, "too_much")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got %v", err)
	}

	// Balance is untouched after a failed spend.
	user, _ := repo.GetByID(1)
	if user.AvailablePoints != 100 {
		t.Errorf("Expected available points 100 after failed spend, got %d", user.AvailablePoints)
	}

	// Spending the exact balance succeeds.
	user, err = service.SpendPoints(ctx, 1, 100, "exact")
	if err != nil {
		t.Fatalf("SpendPoints() with exact balance failed: %v", err)
	}
	if user.AvailablePoints != 0 {
		t.Errorf("Expected available points 0, got %d", user.AvailablePoints)
	}
}

func TestRecordActivity_FirstActivity(t *testing.T) {
	service, repo := setupTestService()
	addUser(repo, 1)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	user, err := service.RecordActivity(context.Background(), 1, now)
	if err != nil {
		t.Fatalf("RecordActivity() failed: %v", err)
	}

	if user.CurrentStreak != 1 {
		t.Errorf("Expected streak 1 after first activity, got %d", user.CurrentStreak)
	}
	if user.LongestStreak != 1 {
		t.Errorf("Expected longest streak 1, got %d", user.LongestStreak)
	}
	if user.LastActivityAt == nil || !user.LastActivityAt.Equal(now) {
		t.Errorf("Expected last activity %v, got %v", now, user.LastActivityAt)
	}
}

func TestRecordActivity_NextDayIncrements(t *testing.T) {
	service, repo := setupTestService()
	addUser(repo, 1)
	ctx := context.Background()

	day1 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	if _, err := service.RecordActivity(ctx, 1, day1); err != nil {
		t.Fatalf("RecordActivity() failed: %v", err)
	}
	user, err := service.RecordActivity(ctx, 1, day2)
	if err != nil {
		t.Fatalf("RecordActivity() failed: %v", err)
	}

	if user.CurrentStreak != 2 {
		t.Errorf("Expected streak 2 after consecutive days, got %d", user.CurrentStreak)
	}
	if user.LongestStreak != 2 {
		t.Errorf("Expected longest streak 2, got %d", user.LongestStreak)
	}
}

func TestRecordActivity_GapResetsToOne(t *testing.T) {
	service, repo := setupTestService()
	addUser(repo, 1)
	ctx := context.Background()

	day1 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)
	day5 := day1.Add(4 * 24 * time.Hour)

	if _, err := service.RecordActivity(ctx, 1, day1); err != nil {
		t.Fatalf("RecordActivity() failed: %v", err)
	}
	if _, err := service.RecordActivity(ctx, 1, day2); err != nil {
		t.Fatalf("RecordActivity() failed: %v", err)
	}
	user, err := service.RecordActivity(ctx, 1, day5)
	if err != nil {
		t.Fatalf("RecordActivity() failed: %v", err)
	}

	// Reset lands on 1, not 0: the activity itself counts as today.
	if user.CurrentStreak != 1 {
		t.Errorf("Expected streak reset to 1 after gap, got %d", user.CurrentStreak)
	}
	if user.LongestStreak != 2 {
		t.Errorf("Expected longest streak preserved at 2, got %d", user.LongestStreak)
	}
}

func TestRecordActivity_SameDayNoChange(t *testing.T) {
	service, repo := setupTestService()
	addUser(repo, 1)
	ctx := context.Background()

	morning := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	evening := morning.Add(10 * time.Hour)

	if _, err := service.RecordActivity(ctx, 1, morning); err != nil {
		t.Fatalf("RecordActivity() failed: %v", err)
	}
	user, err := service.RecordActivity(ctx, 1, evening)
	if err != nil {
		t.Fatalf("RecordActivity() failed: %v", err)
	}

	if user.CurrentStreak != 1 {
		t.Errorf("Expected streak unchanged at 1 on same day, got %d", user.CurrentStreak)
	}
	if user.LastActivityAt == nil || !user.LastActivityAt.Equal(evening) {
		t.Errorf("Expected last activity advanced to %v, got %v", evening, user.LastActivityAt)
	}
}

func TestRecordActivity_LongestAlwaysAtLeastCurrent(t *testing.T) {
	service, repo := setupTestService()
	addUser(repo, 1)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	offsets := []int{0, 1, 2, 3, 7, 8, 9, 12, 13}

	for _, offset := range offsets {
		user, err := service.RecordActivity(ctx, 1, start.Add(time.Duration(offset)*24*time.Hour))
		if err != nil {
			t.Fatalf("RecordActivity() failed: %v", err)
		}
		if user.LongestStreak < user.CurrentStreak {
			t.Fatalf("Invariant violated at offset %d: longest %d < current %d",
				offset, user.LongestStreak, user.CurrentStreak)
		}
	}

	user, _ := repo.GetByID(1)
	if user.LongestStreak != 4 {
		t.Errorf("Expected longest streak 4 (days 0-3), got %d", user.LongestStreak)
	}
	if user.CurrentStreak != 2 {
		t.Errorf("Expected current streak 2 (days 12-13), got %d", user.CurrentStreak)
	}
}
