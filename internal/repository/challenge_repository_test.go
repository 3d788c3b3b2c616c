package repository

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/dileepadari/wellnesshub/internal/models"
)

// createTestChallenge creates a test challenge in the database.
func createTestChallenge(t *testing.T, repo *ChallengeRepository, title, status string, start time.Time, durationDays int) *models.Challenge {
	t.Helper()

	challenge := &models.Challenge{
		Title:        title,
		Category:     "health",
		TargetType:   "steps",
		TargetValue:  10000,
		TargetUnit:   "steps/day",
		DurationDays: durationDays,
		StartDate:    start,
		Status:       status,
		RewardPoints: 200,
	}

	if err := repo.Create(challenge); err != nil {
		t.Fatalf("Failed to create test challenge: %v", err)
	}

	return challenge
}

func TestChallengeRepository_CreateDerivesEndDate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChallengeRepository(db)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	challenge := createTestChallenge(t, repo, "March Steps", models.ChallengeStatusUpcoming, start, 7)

	if challenge.ID == 0 {
		t.Error("Expected challenge ID to be set after creation")
	}

	want := start.AddDate(0, 0, 7)
	if !challenge.EndDate.Equal(want) {
		t.Errorf("Expected end date %v, got %v", want, challenge.EndDate)
	}
}

func TestChallengeRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChallengeRepository(db)

	now := time.Now()
	createTestChallenge(t, repo, "Active One", models.ChallengeStatusActive, now.AddDate(0, 0, -1), 7)
	createTestChallenge(t, repo, "Active Two", models.ChallengeStatusActive, now.AddDate(0, 0, -2), 7)
	createTestChallenge(t, repo, "Upcoming", models.ChallengeStatusUpcoming, now.AddDate(0, 0, 3), 7)

	all, err := repo.List("")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 challenges, got %d", len(all))
	}

	active, err := repo.List(models.ChallengeStatusActive)
	if err != nil {
		t.Fatalf("List(active) failed: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("Expected 2 active challenges, got %d", len(active))
	}

	// Ordered by start date ascending.
	if active[0].Title != "Active Two" {
		t.Errorf("Expected earliest-starting challenge first, got %q", active[0].Title)
	}
}

func TestChallengeRepository_Participants(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChallengeRepository(db)
	user := createTestUser(t, db, "alice", "wellness")
	challenge := createTestChallenge(t, repo, "Step It Up", models.ChallengeStatusActive, time.Now(), 7)

	// No entry before joining.
	participant, err := repo.GetParticipant(challenge.ID, user.ID)
	if err != nil {
		t.Fatalf("GetParticipant() failed: %v", err)
	}
	if participant != nil {
		t.Error("Expected nil participant before joining")
	}

	entry := &models.ChallengeParticipant{
		ChallengeID: challenge.ID,
		UserID:      user.ID,
		JoinedAt:    time.Now(),
	}
	err = repo.WithTx(func(tx *gorm.DB) error {
		return repo.AddParticipant(tx, entry)
	})
	if err != nil {
		t.Fatalf("AddParticipant() failed: %v", err)
	}

	participant, err = repo.GetParticipant(challenge.ID, user.ID)
	if err != nil {
		t.Fatalf("GetParticipant() failed: %v", err)
	}
	if participant == nil {
		t.Fatal("Expected participant after joining")
	}
	if participant.Progress != 0 || participant.Completed {
		t.Error("New participant should start at zero progress, not completed")
	}

	count, err := repo.CountParticipants(nil, challenge.ID)
	if err != nil {
		t.Fatalf("CountParticipants() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 participant, got %d", count)
	}
}

func TestChallengeRepository_TransactionScopedCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChallengeRepository(db)
	user := createTestUser(t, db, "alice", "wellness")
	challenge := createTestChallenge(t, repo, "Hydration Week", models.ChallengeStatusActive, time.Now(), 7)

	err := repo.WithTx(func(tx *gorm.DB) error {
		locked, err := repo.GetByIDLocked(tx, challenge.ID)
		if err != nil {
			return err
		}
		if locked.ID != challenge.ID {
			t.Errorf("Expected locked challenge %d, got %d", challenge.ID, locked.ID)
		}

		if err := repo.AddParticipant(tx, &models.ChallengeParticipant{
			ChallengeID: challenge.ID,
			UserID:      user.ID,
			JoinedAt:    time.Now(),
		}); err != nil {
			return err
		}

		// The uncommitted insert must already be visible to the capacity count.
		count, err := repo.CountParticipants(tx, challenge.ID)
		if err != nil {
			return err
		}
		if count != 1 {
			t.Errorf("Expected in-transaction count 1, got %d", count)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}

	count, err := repo.CountParticipants(nil, challenge.ID)
	if err != nil {
		t.Fatalf("CountParticipants() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected committed count 1, got %d", count)
	}
}

func TestChallengeRepository_DuplicateParticipant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChallengeRepository(db)
	user := createTestUser(t, db, "alice", "wellness")
	challenge := createTestChallenge(t, repo, "Step It Up", models.ChallengeStatusActive, time.Now(), 7)

	join := func() error {
		return repo.WithTx(func(tx *gorm.DB) error {
			return repo.AddParticipant(tx, &models.ChallengeParticipant{
				ChallengeID: challenge.ID,
				UserID:      user.ID,
				JoinedAt:    time.Now(),
			})
		})
	}

	if err := join(); err != nil {
		t.Fatalf("First join failed: %v", err)
	}
	if err := join(); err == nil {
		t.Error("Expected unique constraint violation on second join")
	}
}

func TestChallengeRepository_UpdateParticipant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChallengeRepository(db)
	user := createTestUser(t, db, "alice", "wellness")
	challenge := createTestChallenge(t, repo, "Step It Up", models.ChallengeStatusActive, time.Now(), 7)

	entry := &models.ChallengeParticipant{
		ChallengeID: challenge.ID,
		UserID:      user.ID,
		JoinedAt:    time.Now(),
	}
	err := repo.WithTx(func(tx *gorm.DB) error {
		return repo.AddParticipant(tx, entry)
	})
	if err != nil {
		t.Fatalf("AddParticipant() failed: %v", err)
	}

	now := time.Now()
	entry.Progress = 100
	entry.Completed = true
	entry.CompletedAt = &now
	err = repo.WithTx(func(tx *gorm.DB) error {
		return repo.UpdateParticipant(tx, entry)
	})
	if err != nil {
		t.Fatalf("UpdateParticipant() failed: %v", err)
	}

	participant, err := repo.GetParticipant(challenge.ID, user.ID)
	if err != nil {
		t.Fatalf("GetParticipant() failed: %v", err)
	}
	if !participant.Completed || participant.CompletedAt == nil {
		t.Error("Expected completion state to be persisted")
	}

	completed, err := repo.CountUserCompleted(user.ID)
	if err != nil {
		t.Fatalf("CountUserCompleted() failed: %v", err)
	}
	if completed != 1 {
		t.Errorf("Expected 1 completed challenge, got %d", completed)
	}
}

func TestChallengeRepository_GetUserChallenges(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChallengeRepository(db)
	user := createTestUser(t, db, "alice", "wellness")

	first := createTestChallenge(t, repo, "First", models.ChallengeStatusActive, time.Now(), 7)
	second := createTestChallenge(t, repo, "Second", models.ChallengeStatusActive, time.Now(), 14)

	for _, c := range []*models.Challenge{first, second} {
		err := repo.WithTx(func(tx *gorm.DB) error {
			return repo.AddParticipant(tx, &models.ChallengeParticipant{
				ChallengeID: c.ID,
				UserID:      user.ID,
				JoinedAt:    time.Now(),
			})
		})
		if err != nil {
			t.Fatalf("AddParticipant() failed: %v", err)
		}
	}

	participations, err := repo.GetUserChallenges(user.ID)
	if err != nil {
		t.Fatalf("GetUserChallenges() failed: %v", err)
	}
	if len(participations) != 2 {
		t.Fatalf("Expected 2 participations, got %d", len(participations))
	}
	if participations[0].Challenge.Title == "" {
		t.Error("Expected challenge to be preloaded")
	}
}

func TestChallengeRepository_MarkEnded(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChallengeRepository(db)

	now := time.Now()
	past := createTestChallenge(t, repo, "Over", models.ChallengeStatusActive, now.AddDate(0, 0, -10), 7)
	current := createTestChallenge(t, repo, "Running", models.ChallengeStatusActive, now.AddDate(0, 0, -1), 7)
	upcoming := createTestChallenge(t, repo, "Soon", models.ChallengeStatusUpcoming, now.AddDate(0, 0, 5), 7)

	ended, err := repo.MarkEnded(now)
	if err != nil {
		t.Fatalf("MarkEnded() failed: %v", err)
	}
	if ended != 1 {
		t.Errorf("Expected 1 challenge marked ended, got %d", ended)
	}

	for _, tc := range []struct {
		id   uint
		want string
	}{
		{past.ID, models.ChallengeStatusEnded},
		{current.ID, models.ChallengeStatusActive},
		{upcoming.ID, models.ChallengeStatusUpcoming},
	} {
		challenge, err := repo.GetByID(tc.id)
		if err != nil {
			t.Fatalf("GetByID() failed: %v", err)
		}
		if challenge.Status != tc.want {
			t.Errorf("Challenge %d: expected status %q, got %q", tc.id, tc.want, challenge.Status)
		}
	}
}
