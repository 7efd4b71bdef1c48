package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sanapath/sanapath/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpdateProfileRequest is a partial profile update; nil fields are unchanged.
type UpdateProfileRequest struct {
	Name                 *string   `json:"name" binding:"omitempty,max=100"`
	Bio                  *string   `json:"bio" binding:"omitempty,max=2000"`
	AvatarURL            *string   `json:"avatar_url" binding:"omitempty,max=500"`
	University           *string   `json:"university" binding:"omitempty,max=255"`
	SkillLevel           *string   `json:"skill_level" binding:"omitempty,skill_level"`
	AIMLExperience       *string   `json:"ai_ml_experience" binding:"omitempty,max=50"`
	CareerGoal           *string   `json:"career_goal" binding:"omitempty,max=255"`
	ProgrammingLanguages *[]string `json:"programming_languages"`
	InterestAreas        *[]string `json:"interest_areas"`
}

// Profile is a user together with their progress counters.
type Profile struct {
	*models.User
	Stats *models.UserStats `json:"stats"`
}

// Accepted appearance settings.
var (
	Themes    = []string{"dark", "light", "system"}
	Languages = []string{"en", "ru", "kk"}
)

type UserService struct {
	db       *gorm.DB
	progress *ProgressService
}

func NewUserService(db *gorm.DB, progress *ProgressService) *UserService {
	return &UserService{db: db, progress: progress}
}

func (s *UserService) Profile(userID uint) (*Profile, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	stats, err := s.progress.GetStats(userID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: &user, Stats: stats}, nil
}

func (s *UserService) UpdateProfile(userID uint, req *UpdateProfileRequest) (*Profile, error) {
	updates := map[string]interface{}{}
	setString := func(column string, v *string) {
		if v != nil {
			updates[column] = strings.TrimSpace(*v)
		}
	}
	setString("name", req.Name)
	setString("bio", req.Bio)
	setString("avatar_url", req.AvatarURL)
	setString("university", req.University)
	setString("ai_ml_experience", req.AIMLExperience)
	setString("career_goal", req.CareerGoal)
	if req.SkillLevel != nil {
		updates["skill_level"] = strings.ToLower(strings.TrimSpace(*req.SkillLevel))
	}
	if req.ProgrammingLanguages != nil {
		updates["programming_languages"] = models.StringList(*req.ProgrammingLanguages)
	}
	if req.InterestAreas != nil {
		updates["interest_areas"] = models.StringList(*req.InterestAreas)
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Profile(userID)
}

// Settings returns the stored settings, or the defaults if the user never saved any.
func (s *UserService) Settings(userID uint) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := s.db.Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		d := models.DefaultUserSettings(userID)
		return &d, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveSettings validates and upserts the full settings row.
func (s *UserService) SaveSettings(userID uint, settings *models.UserSettings) (*models.UserSettings, error) {
	if !contains(Themes, settings.Theme) {
		return nil, fmt.Errorf("%w: theme must be one of %s", ErrInvalidSettings, strings.Join(Themes, ", "))
	}
	if !contains(Languages, settings.Language) {
		return nil, fmt.Errorf("%w: language must be one of %s", ErrInvalidSettings, strings.Join(Languages, ", "))
	}

	settings.ID = 0
	settings.UserID = userID
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(settings).Error
	if err != nil {
		return nil, err
	}
	return s.Settings(userID)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
