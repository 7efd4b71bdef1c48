package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recommendation is an immutable snapshot of one survey submission and the
// recommendations returned for it.
type Recommendation struct {
	ID                     uint      `gorm:"primaryKey" json:"id"`
	UUID                   string    `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	UserID                 uint      `gorm:"index;not null" json:"user_id"`
	Provider               string    `gorm:"size:50" json:"provider"`
	SurveyDataJSON         string    `gorm:"type:text" json:"survey_data_json"`
	RecommendationsJSON    string    `gorm:"type:text;not null" json:"recommendations_json"`
	PersonalizationSummary string    `gorm:"type:text" json:"personalization_summary"`
	CreatedAt              time.Time `gorm:"index" json:"created_at"`
}

func (Recommendation) TableName() string { return "recommendations" }

func (r *Recommendation) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == "" {
		r.UUID = uuid.NewString()
	}
	return nil
}
