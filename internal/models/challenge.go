package models

import (
	"time"

	"gorm.io/gorm"
)

// Challenge status constants.
const (
	ChallengeStatusUpcoming = "upcoming"
	ChallengeStatusActive   = "active"
	ChallengeStatusEnded    = "ended"
)

// Challenge represents a time-boxed goal users can join and progress through.
type Challenge struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"not null;size:200" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"size:50;index" json:"category"`

	TargetType  string  `gorm:"size:50;not null" json:"target_type"` // steps, water, savings, ...
	TargetValue float64 `gorm:"not null" json:"target_value"`
	TargetUnit  string  `gorm:"size:50" json:"target_unit"`

	DurationDays int       `gorm:"not null" json:"duration_days"`
	StartDate    time.Time `gorm:"not null" json:"start_date"`
	EndDate      time.Time `gorm:"not null" json:"end_date"`

	MaxParticipants int  `gorm:"not null;default:0" json:"max_participants"` // 0 = unlimited
	TeamBased       bool `gorm:"not null;default:false" json:"team_based"`
	AllowLateJoin   bool `gorm:"not null;default:true" json:"allow_late_join"`

	// Points awarded when a participant completes the challenge.
	RewardPoints int `gorm:"not null;default:0" json:"reward_points"`

	Status    string    `gorm:"size:20;not null;default:'upcoming';index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Participants []ChallengeParticipant `gorm:"foreignKey:ChallengeID" json:"participants,omitempty"`
}

// TableName specifies the table name for Challenge model.
func (Challenge) TableName() string {
	return "challenges"
}

// BeforeSave keeps EndDate derived from StartDate plus DurationDays.
func (c *Challenge) BeforeSave(_ *gorm.DB) error {
	if c.DurationDays > 0 {
		c.EndDate = c.StartDate.AddDate(0, 0, c.DurationDays)
	}
	return nil
}

// ChallengeParticipant represents one user's join time, progress and
// completion state within a challenge.
type ChallengeParticipant struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ChallengeID uint       `gorm:"not null;index:idx_challenge_user,unique" json:"challenge_id"`
	Challenge   Challenge  `gorm:"foreignKey:ChallengeID" json:"challenge,omitempty"`
	UserID      uint       `gorm:"not null;index:idx_challenge_user,unique" json:"user_id"`
	User        User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TeamID      *uint      `gorm:"index" json:"team_id"`
	JoinedAt    time.Time  `gorm:"not null" json:"joined_at"`
	Progress    float64    `gorm:"not null;default:0" json:"progress"` // 0-100
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

// TableName specifies the table name for ChallengeParticipant model.
func (ChallengeParticipant) TableName() string {
	return "challenge_participants"
}
