package models

import (
	"encoding/json"
	"time"
)

// Achievement represents a globally defined achievement template.
// Unlocking is a per-user relation recorded in UserAchievement; the template
// only carries aggregate unlock counters.
type Achievement struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"uniqueIndex;not null;size:100" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Icon        string          `gorm:"size:50" json:"icon"`
	Category    string          `gorm:"size:50;index" json:"category"` // health, wealth, insurance, social
	Criteria    json.RawMessage `gorm:"type:jsonb" json:"criteria"`
	Points      int             `gorm:"not null;default:0" json:"points"`
	Active      bool            `gorm:"not null;default:true" json:"active"`

	// Optional availability window. A nil bound is open-ended.
	AvailableFrom *time.Time `json:"available_from"`
	AvailableTo   *time.Time `json:"available_to"`

	// Aggregate counters, not per-user state.
	TotalUnlocked  int        `gorm:"not null;default:0" json:"total_unlocked"`
	LastUnlockedAt *time.Time `json:"last_unlocked_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Prerequisites []AchievementPrerequisite `gorm:"foreignKey:AchievementID" json:"prerequisites,omitempty"`
}

// TableName specifies the table name for Achievement model.
func (Achievement) TableName() string {
	return "achievements"
}

// AvailableAt reports whether the achievement can be unlocked at the given time.
func (a *Achievement) AvailableAt(now time.Time) bool {
	if a.AvailableFrom != nil && now.Before(*a.AvailableFrom) {
		return false
	}
	if a.AvailableTo != nil && now.After(*a.AvailableTo) {
		return false
	}
	return true
}

// AchievementCriteria represents the declarative unlock rule for an achievement.
// Value is a scalar for comparison operators, an array for "in" and a
// 2-element array for "between".
type AchievementCriteria struct {
	Target    string      `json:"target"`
	Operator  string      `json:"operator"` // ">=", ">", "=", "<", "<=", "in", "between"
	Value     interface{} `json:"value"`
	Timeframe string      `json:"timeframe,omitempty"` // only "total" is evaluated
}

// AchievementPrerequisite links an achievement to one that should be unlocked first.
// Only prerequisites with Required set block the unlock.
type AchievementPrerequisite struct {
	ID            uint `gorm:"primaryKey" json:"id"`
	AchievementID uint `gorm:"not null;index" json:"achievement_id"`
	RequiredID    uint `gorm:"not null;index" json:"required_id"`
	Required      bool `gorm:"not null;default:true" json:"required"`
}

// TableName specifies the table name for AchievementPrerequisite model.
func (AchievementPrerequisite) TableName() string {
	return "achievement_prerequisites"
}

// UserAchievement represents an achievement unlocked by a user.
type UserAchievement struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UserID        uint        `gorm:"not null;index:idx_user_achievement,unique" json:"user_id"`
	User          User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	AchievementID uint        `gorm:"not null;index:idx_user_achievement,unique" json:"achievement_id"`
	Achievement   Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
	UnlockedAt    time.Time   `gorm:"not null" json:"unlocked_at"`
	Progress      int         `gorm:"not null;default:100" json:"progress"`
}

// TableName specifies the table name for UserAchievement model.
func (UserAchievement) TableName() string {
	return "user_achievements"
}
