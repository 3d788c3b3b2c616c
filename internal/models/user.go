// Package models defines domain models for the WellnessHub gamification service.
package models

import (
	"time"
)

// User represents a WellnessHub member together with their gamification state.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex;not null;size:255" json:"username"`
	Email    string `gorm:"size:255" json:"email"`
	Team     string `gorm:"size:100" json:"team"`

	// Points are the spendable currency, experience drives the level.
	// TotalPoints never decreases; AvailablePoints decreases on spend.
	TotalPoints     int `gorm:"not null;default:0" json:"total_points"`
	AvailablePoints int `gorm:"not null;default:0" json:"available_points"`
	Experience      int `gorm:"not null;default:0" json:"experience"`
	Level           int `gorm:"not null;default:1" json:"level"`

	CurrentStreak  int        `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak  int        `gorm:"not null;default:0" json:"longest_streak"`
	LastActivityAt *time.Time `json:"last_activity_at"`

	// Deactivation is a soft delete; gamification fields are retained.
	Active bool `gorm:"not null;default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model.
func (User) TableName() string {
	return "users"
}
