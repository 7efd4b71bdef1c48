package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserProject status values.
const (
	UserProjectActive    = "active"
	UserProjectCompleted = "completed"
	UserProjectPaused    = "paused"
)

// UserProject is a student's personal run through a project roadmap.
type UserProject struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UUID            string     `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	UserID          uint       `gorm:"index;not null" json:"user_id"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	Category        string     `gorm:"size:100" json:"category"`
	Difficulty      string     `gorm:"size:50" json:"difficulty"`
	TechStack       StringList `gorm:"type:text" json:"tech_stack"`
	LearningGoals   StringList `gorm:"type:text" json:"learning_goals"`
	SkillsGained    StringList `gorm:"type:text" json:"skills_gained"`
	Roadmap         Roadmap    `gorm:"type:text" json:"roadmap"`
	Status          string     `gorm:"size:20;index;default:active" json:"status"`
	ProgressPercent int        `json:"progress_percent"`
	CurrentWeek     int        `gorm:"default:1" json:"current_week"`
	CompletedTasks  StringList `gorm:"type:text" json:"completed_tasks"`
	TotalHoursSpent int        `json:"total_hours_spent"`
	EstimatedHours  *int       `json:"estimated_hours"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (UserProject) TableName() string { return "user_projects" }

func (p *UserProject) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == "" {
		p.UUID = uuid.NewString()
	}
	if p.StartedAt.IsZero() {
		p.StartedAt = time.Now()
	}
	return nil
}

// RecomputeProgress derives ProgressPercent from the completed task set.
// A completed project always reports 100.
func (p *UserProject) RecomputeProgress() {
	if p.Status == UserProjectCompleted {
		p.ProgressPercent = 100
		return
	}
	p.ProgressPercent = ProgressPercent(len(p.CompletedTasks), p.Roadmap.TotalTasks())
}

// ProgressPercent is round(100*done/total) clamped to [0,100]; 0 when total is 0.
func ProgressPercent(done, total int) int {
	if total <= 0 || done <= 0 {
		return 0
	}
	pct := int(math.Round(100 * float64(done) / float64(total)))
	if pct > 100 {
		return 100
	}
	return pct
}
