package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultMaxTeamSize applies when a publisher does not choose a team size.
const DefaultMaxTeamSize = 4

// Project is a community project published by its owner. Other users join
// it as collaborators; the owner is never a collaborator.
type Project struct {
	ID                      uint                  `gorm:"primaryKey" json:"id"`
	UUID                    string                `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	Title                   string                `gorm:"size:255;not null" json:"title"`
	Description             string                `gorm:"type:text" json:"description"`
	DifficultyLevel         string                `gorm:"size:50;index" json:"difficulty_level"`
	TechStack               StringList            `gorm:"type:text" json:"tech_stack"`
	Tags                    StringList            `gorm:"type:text" json:"tags"`
	EstimatedDuration       string                `gorm:"size:50" json:"estimated_duration"`
	RoadmapJSON             string                `gorm:"type:text" json:"roadmap_json"`
	IsPublished             bool                  `gorm:"default:false;index" json:"is_published"`
	LookingForCollaborators bool                  `json:"looking_for_collaborators"`
	MaxTeamSize             int                   `gorm:"default:4" json:"max_team_size"`
	OwnerID                 uint                  `gorm:"index;not null" json:"owner_id"`
	Owner                   *User                 `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Collaborators           []ProjectCollaborator `gorm:"foreignKey:ProjectID" json:"-"`
	CreatedAt               time.Time             `json:"created_at"`
	UpdatedAt               time.Time             `json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == "" {
		p.UUID = uuid.NewString()
	}
	if p.MaxTeamSize <= 0 {
		p.MaxTeamSize = DefaultMaxTeamSize
	}
	return nil
}

// CurrentMembers is the owner plus every collaborator. Collaborators must be preloaded.
func (p *Project) CurrentMembers() int {
	return len(p.Collaborators) + 1
}

// IsFull reports whether no further collaborator can join.
func (p *Project) IsFull() bool {
	return p.CurrentMembers() >= p.MaxTeamSize
}

// HasCollaborator reports whether userID is in the preloaded collaborator set.
func (p *Project) HasCollaborator(userID uint) bool {
	for _, c := range p.Collaborators {
		if c.UserID == userID {
			return true
		}
	}
	return false
}
