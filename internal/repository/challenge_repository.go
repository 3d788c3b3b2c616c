package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dileepadari/wellnesshub/internal/models"
)

// ChallengeRepository handles challenge-related database operations.
type ChallengeRepository struct {
	db *DB
}

// NewChallengeRepository creates a new challenge repository.
func NewChallengeRepository(db *DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

// conn returns the transaction handle when one is given, the shared
// connection otherwise.
func (r *ChallengeRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db.DB
}

// Create creates a new challenge.
func (r *ChallengeRepository) Create(challenge *models.Challenge) error {
	if err := r.db.Create(challenge).Error; err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

// GetByID retrieves a challenge by its ID.
func (r *ChallengeRepository) GetByID(id uint) (*models.Challenge, error) {
	var challenge models.Challenge
	if err := r.db.First(&challenge, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get challenge %d: %w", id, err)
	}
	return &challenge, nil
}

// GetByIDLocked retrieves a challenge inside the given transaction with its
// row locked until commit, so concurrent capacity checks serialize. SQLite
// has no FOR UPDATE and serializes writers on its own, so the lock clause is
// skipped there.
func (r *ChallengeRepository) GetByIDLocked(tx *gorm.DB, id uint) (*models.Challenge, error) {
	query := r.conn(tx)
	if query.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var challenge models.Challenge
	if err := query.First(&challenge, id).Error; err != nil {
		return nil, fmt.Errorf("failed to lock challenge %d: %w", id, err)
	}
	return &challenge, nil
}

// Update updates a challenge.
func (r *ChallengeRepository) Update(challenge *models.Challenge) error {
	if err := r.db.Save(challenge).Error; err != nil {
		return fmt.Errorf("failed to update challenge: %w", err)
	}
	return nil
}

// List retrieves challenges with an optional status filter.
func (r *ChallengeRepository) List(status string) ([]models.Challenge, error) {
	query := r.db.Model(&models.Challenge{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var challenges []models.Challenge
	if err := query.Order("start_date ASC").Find(&challenges).Error; err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	return challenges, nil
}

// GetParticipant retrieves one user's participant entry, or nil when the user
// has not joined.
func (r *ChallengeRepository) GetParticipant(challengeID, userID uint) (*models.ChallengeParticipant, error) {
	var participant models.ChallengeParticipant
	err := r.db.
		Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		First(&participant).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return &participant, nil
}

// GetParticipants retrieves all participant entries for a challenge.
func (r *ChallengeRepository) GetParticipants(challengeID uint) ([]models.ChallengeParticipant, error) {
	var participants []models.ChallengeParticipant
	err := r.db.
		Where("challenge_id = ?", challengeID).
		Preload("User").
		Find(&participants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get participants for challenge %d: %w", challengeID, err)
	}
	return participants, nil
}

// CountParticipants returns the number of participants in a challenge.
// Pass the transaction handle when the count must see uncommitted rows.
func (r *ChallengeRepository) CountParticipants(tx *gorm.DB, challengeID uint) (int64, error) {
	var count int64
	err := r.conn(tx).Model(&models.ChallengeParticipant{}).
		Where("challenge_id = ?", challengeID).
		Count(&count).Error
	return count, err
}

// AddParticipant inserts a participant entry inside the given transaction.
func (r *ChallengeRepository) AddParticipant(tx *gorm.DB, participant *models.ChallengeParticipant) error {
	if err := r.conn(tx).Create(participant).Error; err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

// UpdateParticipant saves a participant entry, inside the given transaction
// when one is provided.
func (r *ChallengeRepository) UpdateParticipant(tx *gorm.DB, participant *models.ChallengeParticipant) error {
	if err := r.conn(tx).Save(participant).Error; err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}
	return nil
}

// GetUserChallenges retrieves all participant entries for a user with the
// challenge preloaded.
func (r *ChallengeRepository) GetUserChallenges(userID uint) ([]models.ChallengeParticipant, error) {
	var participants []models.ChallengeParticipant
	err := r.db.
		Where("user_id = ?", userID).
		Preload("Challenge").
		Order("joined_at DESC").
		Find(&participants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get challenges for user %d: %w", userID, err)
	}
	return participants, nil
}

// CountUserCompleted returns how many challenges a user has completed.
func (r *ChallengeRepository) CountUserCompleted(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ChallengeParticipant{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(&count).Error
	return count, err
}

// MarkEnded flips active challenges whose end date has passed to ended.
// Returns the number of challenges updated.
func (r *ChallengeRepository) MarkEnded(now time.Time) (int64, error) {
	result := r.db.Model(&models.Challenge{}).
		Where("status = ? AND end_date <= ?", models.ChallengeStatusActive, now).
		Update("status", models.ChallengeStatusEnded)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark ended challenges: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// WithTx runs fn in a transaction on the underlying connection.
func (r *ChallengeRepository) WithTx(fn func(tx *gorm.DB) error) error {
	return r.db.WithTx(fn)
}
