package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/sanapath/sanapath/internal/models"
	"github.com/sanapath/sanapath/internal/services"
	"github.com/sanapath/sanapath/internal/testutil"
	"github.com/sanapath/sanapath/pkg/response"
	"github.com/stretchr/testify/require"
)

func surveyBody() map[string]interface{} {
	return map[string]interface{}{
		"name":                  "Aigerim",
		"email":                 "aigerim@example.com",
		"programming_languages": []string{"Python"},
		"skill_level":           "BEGINNER",
		"interest_areas":        []string{"NLP", "Computer Vision"},
		"career_goal":           "ML Engineer",
		"project_duration":      "6 weeks",
	}
}

func TestSurveyQuestions(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/survey/questions", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var def services.SurveyDefinition
	decode(t, w, &def)
	require.Len(t, def.Steps, 5)
	require.Equal(t, 15, def.TotalQuestions)
}

func TestSurveySubmit_Anonymous(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/survey/submit", "", surveyBody())

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var set services.RecommendationSet
	decode(t, w, &set)
	require.Equal(t, "Aigerim", set.StudentName)
	require.Equal(t, services.ProviderTemplates, set.Provider)
	require.Len(t, set.Recommendations, services.RecommendationCount)
	for _, r := range set.Recommendations {
		require.Equal(t, "Beginner", r.DifficultyLevel)
		require.Equal(t, "6 weeks", r.EstimatedDuration)
		require.Len(t, r.Roadmap, 4)
	}

	var count int64
	require.NoError(t, s.db.Model(&models.Recommendation{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestSurveySubmit_SignedInKeepsHistory(t *testing.T) {
	s := newTestServer(t)
	user := testutil.CreateUser(t, s.db, "aigerim@example.com")
	token := s.tokenFor(user)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/survey/submit", token, surveyBody()).Code)

	w := s.do(http.MethodGet, "/api/survey/recommendations", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Recommendations []services.SavedRecommendation `json:"recommendations"`
		Total           int                            `json:"total"`
	}
	decode(t, w, &history)
	require.Equal(t, 1, history.Total)
	require.Len(t, history.Recommendations[0].Recommendations, services.RecommendationCount)
}

func TestSurveySubmit_Validation(t *testing.T) {
	s := newTestServer(t)

	body := surveyBody()
	body["skill_level"] = "guru"
	body["interest_areas"] = []string{}
	delete(body, "email")

	w := s.do(http.MethodPost, "/api/survey/submit", "", body)

	resp := requireError(t, w, http.StatusUnprocessableEntity, response.CodeValidation)
	for _, field := range []string{"email", "skill_level", "interest_areas"} {
		require.True(t, strings.Contains(resp.Message, field), "message %q should name %s", resp.Message, field)
	}
}

func TestSurveySubmit_MalformedJSON(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/api/survey/submit", "", "{not json")
	requireError(t, w, http.StatusUnprocessableEntity, response.CodeValidation)
}

func TestSurveyHistory_RequiresAuth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/survey/recommendations", "", nil)
	requireError(t, w, http.StatusUnauthorized, response.CodeAuth)
}
