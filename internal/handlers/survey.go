package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sanapath/sanapath/internal/middleware"
	"github.com/sanapath/sanapath/internal/services"
	"github.com/sanapath/sanapath/pkg/response"
)

type SurveyHandler struct {
	surveyService *services.SurveyService
}

func NewSurveyHandler(surveyService *services.SurveyService) *SurveyHandler {
	return &SurveyHandler{surveyService: surveyService}
}

// Questions returns the onboarding questionnaire.
func (h *SurveyHandler) Questions(c *gin.Context) {
	response.Success(c, services.SurveyQuestions())
}

// Submit answers every valid survey with five recommendations. Signed-in
// callers also get the result stored in their history.
func (h *SurveyHandler) Submit(c *gin.Context) {
	var survey services.Survey
	if !bindJSON(c, &survey) {
		return
	}
	set := h.surveyService.Submit(c.Request.Context(), &survey, middleware.GetUserID(c))
	response.Success(c, set)
}

func (h *SurveyHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := h.surveyService.History(middleware.GetUserID(c), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"recommendations": items, "total": len(items)})
}
