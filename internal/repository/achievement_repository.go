package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dileepadari/wellnesshub/internal/models"
)

// AchievementRepository handles achievement-related database operations.
type AchievementRepository struct {
	db *DB
}

// NewAchievementRepository creates a new achievement repository.
func NewAchievementRepository(db *DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// Create creates a new achievement template.
func (r *AchievementRepository) Create(achievement *models.Achievement) error {
	return r.db.Create(achievement).Error
}

// GetByID retrieves an achievement by its ID.
func (r *AchievementRepository) GetByID(id uint) (*models.Achievement, error) {
	var achievement models.Achievement
	err := r.db.Preload("Prerequisites").First(&achievement, id).Error
	if err != nil {
		return nil, err
	}
	return &achievement, nil
}

// GetByName retrieves an achievement by its name.
func (r *AchievementRepository) GetByName(name string) (*models.Achievement, error) {
	var achievement models.Achievement
	err := r.db.Where("name = ?", name).First(&achievement).Error
	if err != nil {
		return nil, err
	}
	return &achievement, nil
}

// GetAll retrieves all achievement templates.
func (r *AchievementRepository) GetAll() ([]models.Achievement, error) {
	var achievements []models.Achievement
	err := r.db.Preload("Prerequisites").Order("created_at ASC").Find(&achievements).Error
	return achievements, err
}

// GetCandidates retrieves active achievements the user has not unlocked yet.
// Availability window filtering is done by the caller, which owns "now".
func (r *AchievementRepository) GetCandidates(userID uint) ([]models.Achievement, error) {
	var achievements []models.Achievement
	err := r.db.
		Preload("Prerequisites").
		Where("active = ?", true).
		Where("id NOT IN (?)",
			r.db.Model(&models.UserAchievement{}).
				Select("achievement_id").
				Where("user_id = ?", userID)).
		Order("created_at ASC").
		Find(&achievements).Error
	return achievements, err
}

// Update updates an existing achievement.
func (r *AchievementRepository) Update(achievement *models.Achievement) error {
	return r.db.Save(achievement).Error
}

// Delete deletes an achievement by its ID.
func (r *AchievementRepository) Delete(id uint) error {
	return r.db.Delete(&models.Achievement{}, id).Error
}

// HasUserUnlocked checks if a user has unlocked a specific achievement.
func (r *AchievementRepository) HasUserUnlocked(userID, achievementID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUnlockedIDs returns the set of achievement IDs already unlocked by a user.
func (r *AchievementRepository) GetUnlockedIDs(userID uint) (map[uint]bool, error) {
	var ids []uint
	err := r.db.Model(&models.UserAchievement{}).
		Where("user_id = ?", userID).
		Pluck("achievement_id", &ids).Error
	if err != nil {
		return nil, err
	}
	unlocked := make(map[uint]bool, len(ids))
	for _, id := range ids {
		unlocked[id] = true
	}
	return unlocked, nil
}

// Unlock records an achievement unlock for a user and bumps the template's
// aggregate counters. Idempotent: an already-unlocked achievement is a no-op
// and reports unlocked=false.
func (r *AchievementRepository) Unlock(userID, achievementID uint, now time.Time) (bool, error) {
	unlocked, err := r.HasUserUnlocked(userID, achievementID)
	if err != nil {
		return false, err
	}
	if unlocked {
		return false, nil
	}

	record := &models.UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		UnlockedAt:    now,
		Progress:      100,
	}
	if err := r.db.Create(record).Error; err != nil {
		return false, fmt.Errorf("failed to record unlock: %w", err)
	}

	err = r.db.Model(&models.Achievement{}).
		Where("id = ?", achievementID).
		Updates(map[string]interface{}{
			"total_unlocked":   gorm.Expr("total_unlocked + 1"),
			"last_unlocked_at": now,
		}).Error
	if err != nil {
		return false, fmt.Errorf("failed to update achievement counters: %w", err)
	}

	return true, nil
}

// GetUserAchievements retrieves all achievements unlocked by a user with
// template details preloaded.
func (r *AchievementRepository) GetUserAchievements(userID uint) ([]models.UserAchievement, error) {
	var unlocks []models.UserAchievement
	err := r.db.
		Where("user_id = ?", userID).
		Preload("Achievement").
		Order("unlocked_at DESC").
		Find(&unlocks).Error
	return unlocks, err
}

// GetUserAchievementCount returns the number of achievements a user has unlocked.
func (r *AchievementRepository) GetUserAchievementCount(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.UserAchievement{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// GetRecentlyUnlocked retrieves unlocks recorded since the given time.
func (r *AchievementRepository) GetRecentlyUnlocked(since time.Time) ([]models.UserAchievement, error) {
	var unlocks []models.UserAchievement
	err := r.db.
		Where("unlocked_at >= ?", since).
		Preload("Achievement").
		Preload("User").
		Order("unlocked_at DESC").
		Find(&unlocks).Error
	return unlocks, err
}
