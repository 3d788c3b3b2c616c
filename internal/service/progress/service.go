// Package progress provides the points ledger, leveling and streak tracking
// for users. All mutations are explicit, named operations: nothing here runs
// as a side effect of unrelated saves.
package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	prommetrics "github.com/dileepadari/wellnesshub/internal/metrics"
	"github.com/dileepadari/wellnesshub/internal/models"
	"github.com/dileepadari/wellnesshub/internal/notify"
	"github.com/dileepadari/wellnesshub/internal/repository"
	"github.com/dileepadari/wellnesshub/pkg/logger"
)

// Sentinel errors for the points ledger.
var (
	ErrInvalidAmount     = errors.New("amount must be a positive integer")
	ErrInsufficientFunds = errors.New("insufficient available points")
)

// DefaultExperiencePerLevel is the experience required per level.
const DefaultExperiencePerLevel = 1000

// UserRepository interface for user operations.
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	Update(user *models.User) error
}

// Service handles points, leveling and streaks.
type Service struct {
	userRepo           UserRepository
	notifier           notify.Notifier
	experiencePerLevel int
	log                *logger.Logger
}

// NewService creates a new progress service.
func NewService(userRepo *repository.UserRepository, notifier notify.Notifier, experiencePerLevel int, log *logger.Logger) *Service {
	return newService(userRepo, notifier, experiencePerLevel, log)
}

// NewServiceWithInterfaces creates a new progress service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(userRepo UserRepository, notifier notify.Notifier, experiencePerLevel int, log *logger.Logger) *Service {
	return newService(userRepo, notifier, experiencePerLevel, log)
}

func newService(userRepo UserRepository, notifier notify.Notifier, experiencePerLevel int, log *logger.Logger) *Service {
	if experiencePerLevel <= 0 {
		experiencePerLevel = DefaultExperiencePerLevel
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Service{
		userRepo:           userRepo,
		notifier:           notifier,
		experiencePerLevel: experiencePerLevel,
		log:                log,
	}
}

// LevelForExperience maps cumulative experience to a level number.
// Monotonic and idempotent; experience 0 maps to level 1, never 0.
func LevelForExperience(experience, experiencePerLevel int) int {
	if experiencePerLevel <= 0 {
		experiencePerLevel = DefaultExperiencePerLevel
	}
	if experience < 0 {
		experience = 0
	}
	return experience/experiencePerLevel + 1
}

// AddPoints increases total points, available points and experience by amount
// in a single row update, then recomputes the level. The reason is logged for
// audit; no transaction ledger is persisted.
func (s *Service) AddPoints(ctx context.Context, userID uint, amount int, reason string) (*models.User, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	oldLevel := user.Level
	user.TotalPoints += amount
	user.AvailablePoints += amount
	user.Experience += amount
	user.Level = LevelForExperience(user.Experience, s.experiencePerLevel)

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to save points for user %d: %w", userID, err)
	}

	prommetrics.RecordPointsAwarded(reason, amount)

	s.log.Info().
		Uint("user_id", userID).
		Int("amount", amount).
		Str("reason", reason).
		Int("total_points", user.TotalPoints).
		Msg("Points added")

	if user.Level > oldLevel {
		prommetrics.RecordLevelUp()
		if err := s.notifier.LevelUp(ctx, user, oldLevel, user.Level); err != nil {
			s.log.Warn().Err(err).Uint("user_id", userID).Msg("Level-up notification failed")
		}
		s.log.Info().
			Uint("user_id", userID).
			Int("old_level", oldLevel).
			Int("new_level", user.Level).
			Msg("User leveled up")
	}

	return user, nil
}

// SpendPoints decrements available points only. Total points and experience
// are unchanged. Fails with ErrInsufficientFunds when the balance is too low.
func (s *Service) SpendPoints(ctx context.Context, userID uint, amount int, reason string) (*models.User, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	if user.AvailablePoints < amount {
		return nil, ErrInsufficientFunds
	}

	user.AvailablePoints -= amount

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to save spend for user %d: %w", userID, err)
	}

	prommetrics.RecordPointsSpent(reason, amount)

	s.log.Info().
		Uint("user_id", userID).
		Int("amount", amount).
		Str("reason", reason).
		Int("available_points", user.AvailablePoints).
		Msg("Points spent")

	return user, nil
}

// GrantExperience adds experience without touching the points balance.
func (s *Service) GrantExperience(ctx context.Context, userID uint, amount int) (*models.User, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	oldLevel := user.Level
	user.Experience += amount
	user.Level = LevelForExperience(user.Experience, s.experiencePerLevel)

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to save experience for user %d: %w", userID, err)
	}

	if user.Level > oldLevel {
		prommetrics.RecordLevelUp()
		if err := s.notifier.LevelUp(ctx, user, oldLevel, user.Level); err != nil {
			s.log.Warn().Err(err).Uint("user_id", userID).Msg("Level-up notification failed")
		}
	}

	return user, nil
}

// RecordActivity updates the streak counters for a genuine activity event.
// It is opt-in: profile edits and other unrelated saves never call it.
//
// Day deltas are computed as whole 24h periods between the previous activity
// and now. One day extends the streak, more than one resets it to 1 (the
// activity itself counts as today), zero leaves the counters alone. The last
// activity timestamp always advances.
func (s *Service) RecordActivity(ctx context.Context, userID uint, now time.Time) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	applyActivity(user, now)

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to save streak for user %d: %w", userID, err)
	}

	s.log.Debug().
		Uint("user_id", userID).
		Int("current_streak", user.CurrentStreak).
		Int("longest_streak", user.LongestStreak).
		Msg("Activity recorded")

	return user, nil
}

// applyActivity mutates the streak fields in place.
func applyActivity(user *models.User, now time.Time) {
	switch {
	case user.LastActivityAt == nil:
		user.CurrentStreak = 1
	default:
		days := int(now.Sub(*user.LastActivityAt).Hours() / 24)
		switch {
		case days == 1:
			user.CurrentStreak++
		case days > 1:
			prommetrics.RecordStreakEnded(user.CurrentStreak)
			user.CurrentStreak = 1
		default:
			// Same day (or clock skew): counters unchanged.
		}
	}

	if user.CurrentStreak > user.LongestStreak {
		user.LongestStreak = user.CurrentStreak
	}
	ts := now
	user.LastActivityAt = &ts
}
