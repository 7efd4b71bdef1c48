package models

import "time"

// UserSettings stores notification, privacy and appearance preferences.
type UserSettings struct {
	ID                 uint      `gorm:"primaryKey" json:"-"`
	UserID             uint      `gorm:"uniqueIndex;not null" json:"-"`
	EmailNotifications bool      `json:"email_notifications"`
	PushNotifications  bool      `json:"push_notifications"`
	WeeklyDigest       bool      `json:"weekly_digest"`
	ProjectUpdates     bool      `json:"project_updates"`
	CommunityActivity  bool      `json:"community_activity"`
	MarketingEmails    bool      `json:"marketing_emails"`
	ProfilePublic      bool      `json:"profile_public"`
	ShowActivity       bool      `json:"show_activity"`
	ShowProjects       bool      `json:"show_projects"`
	ShowAchievements   bool      `json:"show_achievements"`
	Theme              string    `gorm:"size:20" json:"theme"`
	ReducedMotion      bool      `json:"reduced_motion"`
	SoundEffects       bool      `json:"sound_effects"`
	Language           string    `gorm:"size:10" json:"language"`
	UpdatedAt          time.Time `json:"-"`
}

func (UserSettings) TableName() string { return "user_settings" }

// DefaultUserSettings returns the settings a new user starts with.
func DefaultUserSettings(userID uint) UserSettings {
	return UserSettings{
		UserID:             userID,
		EmailNotifications: true,
		PushNotifications:  true,
		WeeklyDigest:       true,
		ProjectUpdates:     true,
		CommunityActivity:  false,
		MarketingEmails:    false,
		ProfilePublic:      true,
		ShowActivity:       true,
		ShowProjects:       true,
		ShowAchievements:   true,
		Theme:              "dark",
		ReducedMotion:      false,
		SoundEffects:       true,
		Language:           "en",
	}
}
