package handlers

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sanapath/sanapath/internal/models"
	"github.com/sanapath/sanapath/pkg/logger"
	"gorm.io/gorm"
)

var (
	startTime        = time.Now()
	dbGaugesOnce     sync.Once
	promHandler = promhttp.Handler()
)

// Metrics serves the prometheus registry. Go runtime and process collectors
// come with the default registry.
func Metrics(c *gin.Context) {
	promHandler.ServeHTTP(c.Writer, c.Request)
}

// RegisterDBGauges exposes table counts read at scrape time.
func RegisterDBGauges(db *gorm.DB) {
	dbGaugesOnce.Do(func() {
		count := func(model interface{}, where string, args ...interface{}) func() float64 {
			return func() float64 {
				var n int64
				q := db.Model(model)
				if where != "" {
					q = q.Where(where, args...)
				}
				if err := q.Count(&n).Error; err != nil {
					logger.Warn().Err(err).Msg("[Metrics] count failed")
				}
				return float64(n)
			}
		}

		gauges := []prometheus.Collector{
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "sanapath_uptime_seconds",
				Help: "Time since server start in seconds",
			}, func() float64 { return time.Since(startTime).Seconds() }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "sanapath_users_active",
				Help: "Number of active users",
			}, count(&models.User{}, "is_active = ?", true)),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "sanapath_community_projects_published",
				Help: "Number of published community projects",
			}, count(&models.Project{}, "is_published = ?", true)),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "sanapath_user_projects_active",
				Help: "Number of user projects in progress",
			}, count(&models.UserProject{}, "status = ?", models.UserProjectActive)),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "sanapath_ai_calls_24h",
				Help: "Recommendation provider calls in the last 24 hours",
			}, func() float64 {
				return count(&models.AIUsageLog{}, "created_at >= ?", time.Now().Add(-24*time.Hour))()
			}),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "sanapath_db_open_connections",
				Help: "Number of open DB connections",
			}, func() float64 {
				sqlDB, err := db.DB()
				if err != nil {
					return 0
				}
				return float64(sqlDB.Stats().OpenConnections)
			}),
		}
		for _, g := range gauges {
			if err := prometheus.Register(g); err != nil {
				logger.Warn().Err(err).Msg("[Metrics] gauge not registered")
			}
		}
	})
}
