package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sanapath/sanapath/internal/services"
	"github.com/sanapath/sanapath/pkg/response"
	"gorm.io/gorm"
)

// HealthHandler reports database and recommendation engine status.
type HealthHandler struct {
	db     *gorm.DB
	engine *services.RecommendationService
}

func NewHealthHandler(db *gorm.DB, engine *services.RecommendationService) *HealthHandler {
	return &HealthHandler{db: db, engine: engine}
}

// Root identifies the service.
func (h *HealthHandler) Root(c *gin.Context) {
	response.Success(c, gin.H{
		"service": "sanapath",
		"message": "SanaPath AI career guidance API",
		"docs":    "/health",
	})
}

// CheckHealth returns the health status of all subsystems. A failed database
// ping makes the response 503.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := 200

	dbStatus := "ok"
	if sqlDB, err := h.db.DB(); err != nil {
		dbStatus = "error: " + err.Error()
		overall, status = "unhealthy", 503
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
		overall, status = "unhealthy", 503
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "sanapath",
		"components": gin.H{
			"database":         dbStatus,
			"demo_mode":        h.engine.DemoMode(),
			"ai_providers":     h.engine.ActiveProviders(),
			"template_catalog": "ok",
		},
	})
}
