// Package achievements provides declarative achievement evaluation and unlocking.
package achievements

import (
	"context"
	"fmt"
	"time"

	prommetrics "github.com/dileepadari/wellnesshub/internal/metrics"
	"github.com/dileepadari/wellnesshub/internal/models"
	"github.com/dileepadari/wellnesshub/internal/notify"
	"github.com/dileepadari/wellnesshub/internal/repository"
	"github.com/dileepadari/wellnesshub/pkg/logger"
)

// AchievementRepository interface for achievement operations.
type AchievementRepository interface {
	GetAll() ([]models.Achievement, error)
	GetByID(id uint) (*models.Achievement, error)
	GetByName(name string) (*models.Achievement, error)
	Create(achievement *models.Achievement) error
	GetCandidates(userID uint) ([]models.Achievement, error)
	GetUnlockedIDs(userID uint) (map[uint]bool, error)
	Unlock(userID, achievementID uint, now time.Time) (bool, error)
	GetUserAchievements(userID uint) ([]models.UserAchievement, error)
	GetUserAchievementCount(userID uint) (int64, error)
}

// UserRepository interface for user operations.
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	List(team string) ([]models.User, error)
}

// PointsAwarder grants the points reward attached to an achievement.
type PointsAwarder interface {
	AddPoints(ctx context.Context, userID uint, amount int, reason string) (*models.User, error)
}

// Service handles achievement evaluation and unlocking.
type Service struct {
	achievementRepo AchievementRepository
	userRepo        UserRepository
	points          PointsAwarder
	notifier        notify.Notifier
	log             *logger.Logger
}

// NewService creates a new achievement service.
func NewService(
	achievementRepo *repository.AchievementRepository,
	userRepo *repository.UserRepository,
	points PointsAwarder,
	notifier notify.Notifier,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(achievementRepo, userRepo, points, notifier, log)
}

// NewServiceWithInterfaces creates a new achievement service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	achievementRepo AchievementRepository,
	userRepo UserRepository,
	points PointsAwarder,
	notifier notify.Notifier,
	log *logger.Logger,
) *Service {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Service{
		achievementRepo: achievementRepo,
		userRepo:        userRepo,
		points:          points,
		notifier:        notifier,
		log:             log,
	}
}

// CheckAndUnlock evaluates all eligible achievements for a user against a
// stats snapshot and unlocks the ones whose criteria are met. Returns the
// newly unlocked achievements; re-running with the same snapshot is a no-op.
//
// Achievements are evaluated in one pass: an achievement whose prerequisite
// is unlocked in the same call only becomes eligible on the next call.
func (s *Service) CheckAndUnlock(ctx context.Context, userID uint, stats map[string]float64) ([]models.Achievement, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil || user == nil {
		s.log.Warn().Uint("user_id", userID).Msg("Achievement check for unknown user")
		return []models.Achievement{}, nil
	}

	candidates, err := s.achievementRepo.GetCandidates(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate achievements: %w", err)
	}

	unlockedIDs, err := s.achievementRepo.GetUnlockedIDs(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get unlocked achievements: %w", err)
	}

	now := time.Now()
	var newlyUnlocked []models.Achievement

	for i := range candidates {
		achievement := candidates[i]

		if !achievement.AvailableAt(now) {
			continue
		}
		if !s.prerequisitesMet(&achievement, unlockedIDs) {
			continue
		}
		if !evaluateCriteria(achievement.Criteria, stats) {
			continue
		}

		unlocked, err := s.achievementRepo.Unlock(userID, achievement.ID, now)
		if err != nil {
			s.log.Error().
				Err(err).
				Uint("user_id", userID).
				Str("achievement", achievement.Name).
				Msg("Failed to unlock achievement")
			continue
		}
		if !unlocked {
			// Raced with a concurrent unlock; already recorded.
			continue
		}

		prommetrics.RecordAchievementUnlocked(achievement.Name, achievement.Category)

		if achievement.Points > 0 && s.points != nil {
			reason := fmt.Sprintf("achievement:%s", achievement.Name)
			if _, err := s.points.AddPoints(ctx, userID, achievement.Points, reason); err != nil {
				s.log.Error().
					Err(err).
					Uint("user_id", userID).
					Str("achievement", achievement.Name).
					Msg("Failed to award achievement points")
			}
		}

		if err := s.notifier.AchievementUnlocked(ctx, user, &achievement); err != nil {
			s.log.Warn().
				Err(err).
				Uint("user_id", userID).
				Str("achievement", achievement.Name).
				Msg("Achievement notification failed")
		}

		s.log.Info().
			Uint("user_id", userID).
			Str("username", user.Username).
			Str("achievement", achievement.Name).
			Msg("Achievement unlocked")

		newlyUnlocked = append(newlyUnlocked, achievement)
	}

	return newlyUnlocked, nil
}

// prerequisitesMet reports whether every required prerequisite is already
// unlocked for this user. Optional prerequisites never block.
func (s *Service) prerequisitesMet(achievement *models.Achievement, unlockedIDs map[uint]bool) bool {
	for _, prereq := range achievement.Prerequisites {
		if prereq.Required && !unlockedIDs[prereq.RequiredID] {
			return false
		}
	}
	return true
}

// EvaluateAllUsers evaluates achievements for every active user against
// freshly computed stats. Typically run as a scheduled job. The statsFor
// callback supplies the per-user snapshot. Returns the number of unlocks.
func (s *Service) EvaluateAllUsers(ctx context.Context, statsFor func(ctx context.Context, userID uint) (map[string]float64, error)) (int, error) {
	s.log.Info().Msg("Starting achievement evaluation for all users")
	start := time.Now()

	users, err := s.userRepo.List("")
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	unlocks := 0
	for _, user := range users {
		stats, err := statsFor(ctx, user.ID)
		if err != nil {
			s.log.Error().Err(err).Uint("user_id", user.ID).Msg("Failed to compute user stats")
			continue
		}

		newlyUnlocked, err := s.CheckAndUnlock(ctx, user.ID, stats)
		if err != nil {
			s.log.Error().Err(err).Uint("user_id", user.ID).Msg("Failed to evaluate achievements")
			continue
		}
		unlocks += len(newlyUnlocked)
	}

	s.log.Info().
		Int("users_evaluated", len(users)).
		Int("achievements_unlocked", unlocks).
		Dur("duration", time.Since(start)).
		Msg("Achievement evaluation complete")

	return unlocks, nil
}

// GetCatalog retrieves all achievement templates.
func (s *Service) GetCatalog(ctx context.Context) ([]models.Achievement, error) {
	return s.achievementRepo.GetAll()
}

// GetByID retrieves an achievement template by its ID.
func (s *Service) GetByID(ctx context.Context, id uint) (*models.Achievement, error) {
	return s.achievementRepo.GetByID(id)
}

// GetUserAchievements retrieves all achievements unlocked by a user.
func (s *Service) GetUserAchievements(ctx context.Context, userID uint) ([]models.UserAchievement, error) {
	return s.achievementRepo.GetUserAchievements(userID)
}
