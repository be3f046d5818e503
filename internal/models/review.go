// Package models defines domain models for the reviews and reputation service.
package models

import (
	"time"
)

// ReviewType constants.
const (
	ReviewTypeSkillSession         = "skill_session"
	ReviewTypeProjectParticipation = "project_participation"
)

// Moderation status constants.
const (
	ModerationPending  = "pending"
	ModerationApproved = "approved"
	ModerationRejected = "rejected"
)

// Review is a rating left by one user for another after a booking or a project.
// Exactly one of BookingID and ProjectID is set.
type Review struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	ReviewerID       uint       `gorm:"not null;index;uniqueIndex:idx_reviews_reviewer_booking;uniqueIndex:idx_reviews_reviewer_project" json:"reviewer_id"`
	Reviewer         User       `gorm:"foreignKey:ReviewerID" json:"-"`
	RevieweeID       uint       `gorm:"not null;index" json:"reviewee_id"`
	Reviewee         User       `gorm:"foreignKey:RevieweeID" json:"-"`
	BookingID        *uint      `gorm:"uniqueIndex:idx_reviews_reviewer_booking" json:"booking_id"`
	ProjectID        *uint      `gorm:"uniqueIndex:idx_reviews_reviewer_project" json:"project_id"`
	Rating           int        `gorm:"not null" json:"rating"`
	ReviewText       string     `gorm:"type:text" json:"review_text"`
	ReviewType       string     `gorm:"size:50;not null" json:"review_type"`
	IsAnonymous      bool       `gorm:"default:false" json:"is_anonymous"`
	ModerationStatus string     `gorm:"size:20;not null;index" json:"moderation_status"` // 'pending', 'approved', 'rejected'
	ModeratorID      *uint      `json:"moderator_id,omitempty"`
	ModeratorNotes   string     `gorm:"type:text" json:"moderator_notes,omitempty"`
	ModeratedAt      *time.Time `json:"moderated_at,omitempty"`
	ResponseText     string     `gorm:"type:text" json:"response_text,omitempty"`
	ResponseAt       *time.Time `json:"response_at,omitempty"`
	HelpfulVotes     int        `gorm:"default:0" json:"helpful_votes"`
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Review model.
func (Review) TableName() string {
	return "reviews"
}

// Vote type constants.
const (
	VoteHelpful    = "helpful"
	VoteNotHelpful = "not_helpful"
)

// ReviewVote records one user's helpfulness vote on a review.
type ReviewVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReviewID  uint      `gorm:"not null;uniqueIndex:idx_review_votes_voter" json:"review_id"`
	Review    Review    `gorm:"foreignKey:ReviewID" json:"-"`
	VoterID   uint      `gorm:"not null;uniqueIndex:idx_review_votes_voter" json:"voter_id"`
	Voter     User      `gorm:"foreignKey:VoterID" json:"-"`
	VoteType  string    `gorm:"size:20;not null" json:"vote_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for ReviewVote model.
func (ReviewVote) TableName() string {
	return "review_votes"
}

// Report status constants.
const (
	ReportStatusPending      = "pending"
	ReportStatusInvestigated = "investigated"
	ReportStatusResolved     = "resolved"
)

// ReviewReport is a complaint about a review, triaged by moderators.
type ReviewReport struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ReviewID        uint       `gorm:"not null;index" json:"review_id"`
	Review          *Review    `gorm:"foreignKey:ReviewID" json:"review,omitempty"`
	ReporterID      uint       `gorm:"not null;index" json:"reporter_id"`
	Reporter        User       `gorm:"foreignKey:ReporterID" json:"-"`
	Reason          string     `gorm:"size:100;not null" json:"reason"`
	Details         string     `gorm:"type:text" json:"details,omitempty"`
	Status          string     `gorm:"size:20;not null;index" json:"status"` // 'pending', 'investigated', 'resolved'
	ModeratorID     *uint      `json:"moderator_id,omitempty"`
	ResolutionNotes string     `gorm:"type:text" json:"resolution_notes,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName specifies the table name for ReviewReport model.
func (ReviewReport) TableName() string {
	return "review_reports"
}

// CanTransitionTo reports whether the report may move to next.
// Reports only move forward: pending -> investigated -> resolved, with
// pending -> resolved allowed as a shortcut.
func (r *ReviewReport) CanTransitionTo(next string) bool {
	switch r.Status {
	case ReportStatusPending:
		return next == ReportStatusInvestigated || next == ReportStatusResolved
	case ReportStatusInvestigated:
		return next == ReportStatusResolved
	default:
		return false
	}
}

// SkillEndorsement is a public or private vouch for another user's skill.
type SkillEndorsement struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	EndorserID      uint      `gorm:"not null;uniqueIndex:idx_skill_endorsements_key" json:"endorser_id"`
	Endorser        User      `gorm:"foreignKey:EndorserID" json:"-"`
	EndorseeID      uint      `gorm:"not null;uniqueIndex:idx_skill_endorsements_key;index" json:"endorsee_id"`
	SkillID         uint      `gorm:"not null;uniqueIndex:idx_skill_endorsements_key" json:"skill_id"`
	Skill           Skill     `gorm:"foreignKey:SkillID" json:"-"`
	EndorsementText string    `gorm:"type:text" json:"endorsement_text,omitempty"`
	IsPublic        bool      `gorm:"not null" json:"is_public"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for SkillEndorsement model.
func (SkillEndorsement) TableName() string {
	return "skill_endorsements"
}
