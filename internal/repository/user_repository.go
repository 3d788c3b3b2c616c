package repository

import (
	"fmt"

	"github.com/dileepadari/wellnesshub/internal/models"
)

// UserRepository handles user-related database operations.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user.
func (r *UserRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get user by id %d: %w", id, err)
	}
	return &user, nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to get user by username %s: %w", username, err)
	}
	return &user, nil
}

// Update updates a user.
func (r *UserRepository) Update(user *models.User) error {
	if err := r.db.Save(user).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// List retrieves active users with an optional team filter.
func (r *UserRepository) List(team string) ([]models.User, error) {
	query := r.db.Model(&models.User{}).Where("active = ?", true)

	if team != "" {
		query = query.Where("team = ?", team)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// CountWithMorePoints returns how many active users hold strictly more total
// points than the given value. Ties share a rank, so a user's points rank is
// this count plus one.
func (r *UserRepository) CountWithMorePoints(points int) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).
		Where("active = ? AND total_points > ?", true, points).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count users above %d points: %w", points, err)
	}
	return count, nil
}

// Deactivate soft-deletes a user; gamification fields are retained.
func (r *UserRepository) Deactivate(id uint) error {
	err := r.db.Model(&models.User{}).
		Where("id = ?", id).
		Update("active", false).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate user %d: %w", id, err)
	}
	return nil
}
