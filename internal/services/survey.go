package services

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sanapath/sanapath/internal/models"
	"github.com/sanapath/sanapath/pkg/logger"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed data/survey_questions.yaml
var surveyQuestionsYAML []byte

type SurveyQuestion struct {
	ID       string   `yaml:"id" json:"id"`
	Type     string   `yaml:"type" json:"type"`
	Label    string   `yaml:"label" json:"label"`
	Options  []string `yaml:"options" json:"options,omitempty"`
	Required bool     `yaml:"required" json:"required"`
}

type SurveyStep struct {
	ID          int              `yaml:"id" json:"id"`
	Title       string           `yaml:"title" json:"title"`
	Description string           `yaml:"description" json:"description"`
	Questions   []SurveyQuestion `yaml:"questions" json:"questions"`
}

// SurveyDefinition is the multi-step questionnaire shown to new students.
type SurveyDefinition struct {
	Steps          []SurveyStep `yaml:"steps" json:"steps"`
	TotalQuestions int          `yaml:"-" json:"total_questions"`
}

var (
	surveyDefinition     *SurveyDefinition
	surveyDefinitionOnce sync.Once
)

// SurveyQuestions returns the embedded questionnaire.
func SurveyQuestions() *SurveyDefinition {
	surveyDefinitionOnce.Do(func() {
		def, err := ParseSurveyDefinition(surveyQuestionsYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded survey questions are invalid: %v", err))
		}
		surveyDefinition = def
	})
	return surveyDefinition
}

func ParseSurveyDefinition(data []byte) (*SurveyDefinition, error) {
	var def SurveyDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse survey questions: %w", err)
	}
	for _, step := range def.Steps {
		def.TotalQuestions += len(step.Questions)
	}
	return &def, nil
}

// SavedRecommendation is a stored survey result.
type SavedRecommendation struct {
	UUID                   string                  `json:"id"`
	Provider               string                  `json:"provider"`
	Recommendations        []ProjectRecommendation `json:"recommendations"`
	PersonalizationSummary string                  `json:"personalization_summary"`
	CreatedAt              time.Time               `json:"created_at"`
}

// Recommendation history limits.
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// SurveyService turns submitted surveys into recommendations and keeps a
// history for signed-in students.
type SurveyService struct {
	db     *gorm.DB
	engine *RecommendationService
}

func NewSurveyService(db *gorm.DB, engine *RecommendationService) *SurveyService {
	return &SurveyService{db: db, engine: engine}
}

// Submit always returns a full recommendation set. When userID is set the
// result is stored and the survey answers are copied onto the profile; a
// storage failure is logged, not returned.
func (s *SurveyService) Submit(ctx context.Context, survey *Survey, userID uint) *RecommendationSet {
	set := s.engine.Generate(ctx, survey, userID)
	if userID == 0 {
		return set
	}
	if err := s.save(survey, set, userID); err != nil {
		logger.Error().Err(err).Uint("user_id", userID).Msg("[Survey] failed to store recommendations")
	}
	return set
}

func (s *SurveyService) save(survey *Survey, set *RecommendationSet, userID uint) error {
	surveyJSON, err := json.Marshal(survey)
	if err != nil {
		return err
	}
	recsJSON, err := json.Marshal(set.Recommendations)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Recommendation{
			UserID:                 userID,
			Provider:               set.Provider,
			SurveyDataJSON:         string(surveyJSON),
			RecommendationsJSON:    string(recsJSON),
			PersonalizationSummary: set.PersonalizationSummary,
		}).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"university":            survey.University,
			"programming_languages": models.StringList(survey.ProgrammingLanguages),
			"skill_level":           strings.ToLower(strings.TrimSpace(survey.SkillLevel)),
			"ai_ml_experience":      truncate(survey.AIMLExperience, 50),
			"interest_areas":        models.StringList(survey.InterestAreas),
			"career_goal":           truncate(survey.CareerGoal, 255),
			"is_profile_complete":   true,
		}).Error
	})
}

// History returns the user's stored results, newest first.
func (s *SurveyService) History(userID uint, limit int) ([]SavedRecommendation, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	var rows []models.Recommendation
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]SavedRecommendation, 0, len(rows))
	for _, r := range rows {
		saved := SavedRecommendation{
			UUID:                   r.UUID,
			Provider:               r.Provider,
			PersonalizationSummary: r.PersonalizationSummary,
			CreatedAt:              r.CreatedAt,
		}
		if err := json.Unmarshal([]byte(r.RecommendationsJSON), &saved.Recommendations); err != nil {
			logger.Warn().Err(err).Str("recommendation", r.UUID).Msg("[Survey] skipping unreadable snapshot")
			continue
		}
		out = append(out, saved)
	}
	return out, nil
}
