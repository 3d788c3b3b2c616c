// Package challenges provides challenge participation, progress tracking and
// per-challenge race leaderboards.
package challenges

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	prommetrics "github.com/dileepadari/wellnesshub/internal/metrics"
	"github.com/dileepadari/wellnesshub/internal/models"
	"github.com/dileepadari/wellnesshub/internal/notify"
	"github.com/dileepadari/wellnesshub/internal/repository"
	"github.com/dileepadari/wellnesshub/pkg/logger"
)

// Sentinel errors for challenge state violations. These are expected,
// user-facing conditions surfaced synchronously to the caller.
var (
	ErrAlreadyJoined    = errors.New("user already joined this challenge")
	ErrNotParticipating = errors.New("user is not participating in this challenge")
	ErrCapacityExceeded = errors.New("challenge participant capacity exceeded")
	ErrJoinWindowClosed = errors.New("challenge join window is closed")
)

// ChallengeRepository interface for challenge operations.
type ChallengeRepository interface {
	GetByID(id uint) (*models.Challenge, error)
	GetByIDLocked(tx *gorm.DB, id uint) (*models.Challenge, error)
	List(status string) ([]models.Challenge, error)
	GetParticipant(challengeID, userID uint) (*models.ChallengeParticipant, error)
	GetParticipants(challengeID uint) ([]models.ChallengeParticipant, error)
	CountParticipants(tx *gorm.DB, challengeID uint) (int64, error)
	AddParticipant(tx *gorm.DB, participant *models.ChallengeParticipant) error
	UpdateParticipant(tx *gorm.DB, participant *models.ChallengeParticipant) error
	GetUserChallenges(userID uint) ([]models.ChallengeParticipant, error)
	CountUserCompleted(userID uint) (int64, error)
	MarkEnded(now time.Time) (int64, error)
	WithTx(fn func(tx *gorm.DB) error) error
}

// UserRepository interface for user operations.
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
}

// PointsAwarder grants the reward points attached to a challenge.
type PointsAwarder interface {
	AddPoints(ctx context.Context, userID uint, amount int, reason string) (*models.User, error)
}

// Service handles challenge participation and progress.
type Service struct {
	challengeRepo ChallengeRepository
	userRepo      UserRepository
	points        PointsAwarder
	notifier      notify.Notifier
	log           *logger.Logger
}

// NewService creates a new challenge service.
func NewService(
	challengeRepo *repository.ChallengeRepository,
	userRepo *repository.UserRepository,
	points PointsAwarder,
	notifier notify.Notifier,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(challengeRepo, userRepo, points, notifier, log)
}

// NewServiceWithInterfaces creates a new challenge service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	challengeRepo ChallengeRepository,
	userRepo UserRepository,
	points PointsAwarder,
	notifier notify.Notifier,
	log *logger.Logger,
) *Service {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Service{
		challengeRepo: challengeRepo,
		userRepo:      userRepo,
		points:        points,
		notifier:      notifier,
		log:           log,
	}
}

// Join adds a user to a challenge. The transaction locks the challenge row,
// re-checks capacity on the transaction handle and inserts the participant,
// so concurrent joins serialize and cannot oversubscribe.
func (s *Service) Join(ctx context.Context, challengeID, userID uint, teamID *uint) (*models.ChallengeParticipant, error) {
	challenge, err := s.challengeRepo.GetByID(challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge %d: %w", challengeID, err)
	}

	existing, err := s.challengeRepo.GetParticipant(challengeID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyJoined
	}

	now := time.Now()
	if challenge.TeamBased && !challenge.AllowLateJoin && now.After(challenge.StartDate) {
		return nil, ErrJoinWindowClosed
	}

	participant := &models.ChallengeParticipant{
		ChallengeID: challengeID,
		UserID:      userID,
		TeamID:      teamID,
		JoinedAt:    now,
	}

	err = s.challengeRepo.WithTx(func(tx *gorm.DB) error {
		locked, err := s.challengeRepo.GetByIDLocked(tx, challengeID)
		if err != nil {
			return err
		}
		if locked.MaxParticipants > 0 {
			count, err := s.challengeRepo.CountParticipants(tx, challengeID)
			if err != nil {
				return err
			}
			if count >= int64(locked.MaxParticipants) {
				return ErrCapacityExceeded
			}
		}
		return s.challengeRepo.AddParticipant(tx, participant)
	})
	if err != nil {
		return nil, err
	}

	count, err := s.challengeRepo.CountParticipants(nil, challengeID)
	if err == nil {
		prommetrics.SetChallengeParticipants(challenge.Title, int(count))
	}

	s.log.Info().
		Uint("challenge_id", challengeID).
		Uint("user_id", userID).
		Msg("User joined challenge")

	return participant, nil
}

// UpdateProgress sets a participant's progress percentage. Values above 100
// are clamped to 100, values below 0 to 0. The first crossing of 100 marks
// the participant completed and awards the challenge reward; the completion
// flag is never unset afterwards even though progress may still be lowered.
func (s *Service) UpdateProgress(ctx context.Context, challengeID, userID uint, progress float64) (*models.ChallengeParticipant, error) {
	challenge, err := s.challengeRepo.GetByID(challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge %d: %w", challengeID, err)
	}

	participant, err := s.challengeRepo.GetParticipant(challengeID, userID)
	if err != nil {
		return nil, err
	}
	if participant == nil {
		return nil, ErrNotParticipating
	}

	if progress > 100 {
		progress = 100
	}
	if progress < 0 {
		progress = 0
	}
	participant.Progress = progress

	justCompleted := false
	if progress >= 100 && !participant.Completed {
		now := time.Now()
		participant.Completed = true
		participant.CompletedAt = &now
		justCompleted = true
	}

	if err := s.challengeRepo.UpdateParticipant(nil, participant); err != nil {
		return nil, err
	}

	if justCompleted {
		s.onCompleted(ctx, challenge, participant)
	}

	return participant, nil
}

// onCompleted runs the completion side effects after the participant row is
// committed. Reward and notification failures are logged, never rolled back.
func (s *Service) onCompleted(ctx context.Context, challenge *models.Challenge, participant *models.ChallengeParticipant) {
	prommetrics.RecordChallengeCompleted(challenge.Title)

	if challenge.RewardPoints > 0 && s.points != nil {
		reason := fmt.Sprintf("challenge:%s", challenge.Title)
		if _, err := s.points.AddPoints(ctx, participant.UserID, challenge.RewardPoints, reason); err != nil {
			s.log.Error().
				Err(err).
				Uint("user_id", participant.UserID).
				Uint("challenge_id", challenge.ID).
				Msg("Failed to award challenge reward")
		}
	}

	user, err := s.userRepo.GetByID(participant.UserID)
	if err == nil {
		if err := s.notifier.ChallengeCompleted(ctx, user, challenge); err != nil {
			s.log.Warn().
				Err(err).
				Uint("user_id", participant.UserID).
				Msg("Challenge completion notification failed")
		}
	}

	s.log.Info().
		Uint("challenge_id", challenge.ID).
		Uint("user_id", participant.UserID).
		Msg("Challenge completed")
}

// GetChallenge retrieves a challenge by ID.
func (s *Service) GetChallenge(ctx context.Context, id uint) (*models.Challenge, error) {
	return s.challengeRepo.GetByID(id)
}

// ListChallenges retrieves challenges with an optional status filter.
func (s *Service) ListChallenges(ctx context.Context, status string) ([]models.Challenge, error) {
	return s.challengeRepo.List(status)
}

// GetUserChallenges retrieves all participations for a user.
func (s *Service) GetUserChallenges(ctx context.Context, userID uint) ([]models.ChallengeParticipant, error) {
	return s.challengeRepo.GetUserChallenges(userID)
}

// ExpireEnded flips active challenges past their end date to ended.
// Run as a scheduled job.
func (s *Service) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	ended, err := s.challengeRepo.MarkEnded(now)
	if err != nil {
		return 0, err
	}
	if ended > 0 {
		s.log.Info().Int64("ended", ended).Msg("Expired ended challenges")
	}
	return ended, nil
}
