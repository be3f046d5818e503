package models

import (
	"time"
)

// User role constants.
const (
	UserRoleMember    = "member"
	UserRoleModerator = "moderator"
	UserRoleAdmin     = "admin"
)

// User represents a SkillNexus member. Accounts are owned by the auth service;
// this service only reads them.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null;size:255" json:"username"`
	Email     string    `gorm:"size:255" json:"email"`
	Role      string    `gorm:"size:50;default:member" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model.
func (User) TableName() string {
	return "users"
}

// Skill represents a skill listed by a user.
type Skill struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Category  string    `gorm:"size:100" json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for Skill model.
func (Skill) TableName() string {
	return "skills"
}
