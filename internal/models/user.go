package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Identity providers a user can sign in with.
const (
	ProviderLocal    = "local"
	ProviderGitHub   = "github"
	ProviderGoogle   = "google"
	ProviderFirebase = "firebase"
	ProviderDemo     = "demo"
)

// User is a student account.
type User struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	UUID                 string         `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	Email                string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password             string         `gorm:"size:255" json:"-"` // empty for OAuth and demo users
	Name                 string         `gorm:"size:100" json:"name"`
	AvatarURL            string         `gorm:"size:500" json:"avatar_url"`
	Provider             string         `gorm:"size:20;index:idx_user_provider;default:local" json:"provider"`
	ProviderID           string         `gorm:"size:255;index:idx_user_provider" json:"-"`
	University           string         `gorm:"size:255" json:"university"`
	ProgrammingLanguages StringList     `gorm:"type:text" json:"programming_languages"`
	SkillLevel           string         `gorm:"size:20" json:"skill_level"`
	AIMLExperience       string         `gorm:"size:50" json:"ai_ml_experience"`
	InterestAreas        StringList     `gorm:"type:text" json:"interest_areas"`
	CareerGoal           string         `gorm:"size:255" json:"career_goal"`
	Bio                  string         `gorm:"type:text" json:"bio"`
	IsActive             bool           `gorm:"default:true" json:"is_active"`
	IsProfileComplete    bool           `gorm:"default:false" json:"is_profile_complete"`
	LastLogin            *time.Time     `json:"last_login"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UUID == "" {
		u.UUID = uuid.NewString()
	}
	return nil
}
