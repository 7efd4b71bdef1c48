package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sanapath/sanapath/internal/services"
	"github.com/sanapath/sanapath/pkg/response"
)

// AIUsageHandler reports how the recommendation providers have been performing.
type AIUsageHandler struct {
	usageService *services.AIUsageService
	engine       *services.RecommendationService
}

func NewAIUsageHandler(usageService *services.AIUsageService, engine *services.RecommendationService) *AIUsageHandler {
	return &AIUsageHandler{usageService: usageService, engine: engine}
}

const maxUsageDays = 365

// GetUsage returns aggregated provider calls over the last `days` days
// (default 7; 0 means all time) with a per-provider breakdown.
// GET /api/ai/usage
func (h *AIUsageHandler) GetUsage(c *gin.Context) {
	days := 7
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxUsageDays {
			response.ValidationError(c, "days: must be between 0 and 365")
			return
		}
		days = n
	}
	var since time.Time
	if days > 0 {
		since = time.Now().AddDate(0, 0, -days)
	}

	stats, err := h.usageService.GetStats(since)
	if err != nil {
		handleError(c, err)
		return
	}
	providers, err := h.usageService.GetProviderBreakdown(since)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"days":       days,
		"demo_mode":  h.engine.DemoMode(),
		"configured": h.engine.ActiveProviders(),
		"stats":      stats,
		"providers":  providers,
	})
}
