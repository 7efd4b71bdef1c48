package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/sanapath/sanapath/internal/models"
	"github.com/sanapath/sanapath/internal/services"
	"github.com/sanapath/sanapath/internal/testutil"
	"github.com/sanapath/sanapath/pkg/response"
	"github.com/stretchr/testify/require"
)

func TestAIUsage(t *testing.T) {
	s := newTestServer(t)
	usage := services.NewSyncAIUsageService(s.db)
	engine := services.NewRecommendationServiceWithProviders(services.DefaultTemplateProvider(), false, time.Second, usage)
	h := NewAIUsageHandler(usage, engine)
	s.router.GET("/api/ai/usage", h.GetUsage)

	usage.Record(&models.AIUsageLog{Provider: "gemini", Model: "gemini-2.0-flash", LatencyMs: 800, Success: true})
	usage.Record(&models.AIUsageLog{Provider: "gemini", Model: "gemini-2.0-flash", LatencyMs: 1200, Success: false, ErrorMessage: "quota"})
	old := &models.AIUsageLog{Provider: "openai", Model: "gpt-4o", LatencyMs: 500, Success: true}
	require.NoError(t, s.db.Create(old).Error)
	require.NoError(t, s.db.Model(old).Update("created_at", time.Now().AddDate(0, 0, -30)).Error)

	w := s.do(http.MethodGet, "/api/ai/usage", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Days      int                      `json:"days"`
		DemoMode  bool                     `json:"demo_mode"`
		Stats     services.UsageStats      `json:"stats"`
		Providers []services.ProviderUsage `json:"providers"`
	}
	decode(t, w, &out)
	require.Equal(t, 7, out.Days)
	require.False(t, out.DemoMode)
	require.EqualValues(t, 2, out.Stats.TotalCalls)
	require.InDelta(t, 1000.0, out.Stats.AvgLatencyMs, 0.01)
	require.Len(t, out.Providers, 1)
	require.Equal(t, "gemini", out.Providers[0].Provider)

	w = s.do(http.MethodGet, "/api/ai/usage?days=0", "", nil)
	decode(t, w, &out)
	require.EqualValues(t, 3, out.Stats.TotalCalls)
	require.Len(t, out.Providers, 2)

	requireError(t, s.do(http.MethodGet, "/api/ai/usage?days=abc", "", nil), http.StatusUnprocessableEntity, response.CodeValidation)
}
