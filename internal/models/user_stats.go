package models

import "time"

// UserStats holds the gamification counters for one user.
type UserStats struct {
	ID                uint      `gorm:"primaryKey" json:"-"`
	UserID            uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	TotalProjects     int       `json:"total_projects"`
	CompletedProjects int       `json:"completed_projects"`
	CompletedTasks    int       `json:"completed_tasks"`
	CompletedWeeks    int       `json:"completed_weeks"`
	Streak            int       `json:"streak"`
	ResourcesUsed     int       `json:"resources_used"`
	JoinedCommunity   bool      `json:"joined_community"`
	ActivityXP        int       `json:"activity_xp"`
	AchievementXP     int       `json:"achievement_xp"`
	XP                int       `gorm:"index" json:"xp"`
	Level             int       `gorm:"default:1" json:"level"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (UserStats) TableName() string { return "user_stats" }

// UserAchievement records that a user unlocked an achievement. At most one
// row exists per (user, achievement).
type UserAchievement struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	UserID        uint      `gorm:"uniqueIndex:idx_user_achievement;not null" json:"user_id"`
	AchievementID string    `gorm:"uniqueIndex:idx_user_achievement;size:50;not null" json:"achievement_id"`
	Points        int       `json:"points"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}

func (UserAchievement) TableName() string { return "user_achievements" }
