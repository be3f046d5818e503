package models

import (
	"time"
)

// TrustScore is the derived reputation aggregate of a user. It is rebuilt from
// the full review and booking history on every recalculation.
type TrustScore struct {
	UserID             uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	OverallScore       float64   `gorm:"not null" json:"overall_score"`
	RatingCount        int       `gorm:"not null" json:"rating_count"`
	AverageRating      float64   `gorm:"not null" json:"average_rating"`
	CompletionRate     float64   `gorm:"not null" json:"completion_rate"`
	TotalSessions      int       `gorm:"not null" json:"total_sessions"`
	SuccessfulSessions int       `gorm:"not null" json:"successful_sessions"`
	LastCalculated     time.Time `gorm:"not null" json:"last_calculated"`
}

// TableName specifies the table name for TrustScore model.
func (TrustScore) TableName() string {
	return "user_trust_scores"
}

// Badge tier constants.
const (
	BadgeTierBronze   = "bronze"
	BadgeTierSilver   = "silver"
	BadgeTierGold     = "gold"
	BadgeTierPlatinum = "platinum"
)

// UserBadge represents an achievement earned by a user. Badges are never revoked.
type UserBadge struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;uniqueIndex:idx_user_badges_name" json:"user_id"`
	User             User      `gorm:"foreignKey:UserID" json:"-"`
	BadgeType        string    `gorm:"size:20;not null" json:"badge_type"`
	BadgeName        string    `gorm:"size:100;not null;uniqueIndex:idx_user_badges_name" json:"badge_name"`
	BadgeDescription string    `gorm:"type:text" json:"badge_description"`
	EarnedAt         time.Time `gorm:"not null" json:"earned_at"`
}

// TableName specifies the table name for UserBadge model.
func (UserBadge) TableName() string {
	return "user_badges"
}
