package services

import (
	"context"
	"testing"
	"time"

	"github.com/sanapath/sanapath/internal/models"
	"github.com/sanapath/sanapath/internal/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSurveyQuestions(t *testing.T) {
	def := SurveyQuestions()

	require.Len(t, def.Steps, 5)
	require.Equal(t, 15, def.TotalQuestions)
	for _, step := range def.Steps {
		require.NotEmpty(t, step.Title)
		for _, q := range step.Questions {
			require.NotEmpty(t, q.ID)
			require.NotEmpty(t, q.Type)
		}
	}
}

func TestParseSurveyDefinition_Invalid(t *testing.T) {
	_, err := ParseSurveyDefinition([]byte("steps: {"))
	require.Error(t, err)
}

func demoSurveyService(t *testing.T) (*SurveyService, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	engine := NewRecommendationServiceWithProviders(DefaultTemplateProvider(), true, time.Second, nil)
	return NewSurveyService(db, engine), db
}

func TestSurvey_SubmitAnonymous(t *testing.T) {
	svc, db := demoSurveyService(t)

	set := svc.Submit(context.Background(), sampleSurvey(), 0)

	require.Len(t, set.Recommendations, RecommendationCount)
	var count int64
	require.NoError(t, db.Model(&models.Recommendation{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestSurvey_SubmitStoresHistoryAndProfile(t *testing.T) {
	svc, db := demoSurveyService(t)
	user := testutil.CreateUser(t, db, "survey@example.com")

	s := sampleSurvey()
	s.University = "Nazarbayev University"
	s.SkillLevel = "Intermediate"
	set := svc.Submit(context.Background(), s, user.ID)
	require.Equal(t, ProviderTemplates, set.Provider)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	require.True(t, stored.IsProfileComplete)
	require.Equal(t, "intermediate", stored.SkillLevel)
	require.Equal(t, "Nazarbayev University", stored.University)
	require.Equal(t, models.StringList{"NLP"}, stored.InterestAreas)

	svc.Submit(context.Background(), sampleSurvey(), user.ID)

	history, err := svc.History(user.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, ProviderTemplates, history[0].Provider)
	require.Len(t, history[0].Recommendations, RecommendationCount)
	require.NotEmpty(t, history[0].UUID)

	history, err = svc.History(user.ID, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)

	other, err := svc.History(user.ID+1, 10)
	require.NoError(t, err)
	require.Empty(t, other)
}
