package models

import (
	"time"

	"gorm.io/gorm"
)

// ProjectCollaborator is a user's membership in someone else's project.
type ProjectCollaborator struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"uniqueIndex:idx_project_user;not null" json:"project_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_project_user;not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	JoinedAt  time.Time `gorm:"not null" json:"joined_at"`
}

func (ProjectCollaborator) TableName() string { return "project_collaborators" }

func (c *ProjectCollaborator) BeforeCreate(tx *gorm.DB) error {
	if c.JoinedAt.IsZero() {
		c.JoinedAt = time.Now()
	}
	return nil
}
