package services

import (
	"time"

	"github.com/sanapath/sanapath/internal/models"
	"github.com/sanapath/sanapath/pkg/logger"
	"gorm.io/gorm"
)

// AIUsageService records and aggregates recommendation provider calls.
type AIUsageService struct {
	db    *gorm.DB
	async bool
}

func NewAIUsageService(db *gorm.DB) *AIUsageService {
	return &AIUsageService{db: db, async: true}
}

// NewSyncAIUsageService writes usage rows inline. Used by tests.
func NewSyncAIUsageService(db *gorm.DB) *AIUsageService {
	return &AIUsageService{db: db}
}

// Record saves a usage log entry, asynchronously unless built with
// NewSyncAIUsageService. A nil service records nothing.
func (s *AIUsageService) Record(log *models.AIUsageLog) {
	if s == nil || s.db == nil {
		return
	}
	write := func() {
		if err := s.db.Create(log).Error; err != nil {
			logger.Warnf("[AIUsage] Failed to record usage: %v", err)
		}
	}
	if !s.async {
		write()
		return
	}
	go write()
}

// UsageStats holds aggregated provider statistics.
type UsageStats struct {
	TotalCalls   int64   `json:"total_calls"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	SuccessRate  float64 `json:"success_rate"`
	SuccessCount int64   `json:"success_count"`
	FailureCount int64   `json:"failure_count"`
}

// GetStats aggregates calls made at or after since. A zero since means all time.
func (s *AIUsageService) GetStats(since time.Time) (*UsageStats, error) {
	query := s.db.Model(&models.AIUsageLog{})
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}

	var stats UsageStats
	err := query.Select(
		"COUNT(*) as total_calls, " +
			"COALESCE(AVG(latency_ms), 0) as avg_latency_ms, " +
			"COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0) as success_count, " +
			"COALESCE(SUM(CASE WHEN success THEN 0 ELSE 1 END), 0) as failure_count",
	).Scan(&stats).Error
	if err != nil {
		return nil, err
	}

	if stats.TotalCalls > 0 {
		stats.SuccessRate = float64(stats.SuccessCount) / float64(stats.TotalCalls) * 100
	}
	return &stats, nil
}

// ProviderUsage holds usage data grouped by provider.
type ProviderUsage struct {
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	Calls        int     `json:"calls"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	SuccessRate  float64 `json:"success_rate"`
}

// GetProviderBreakdown returns usage grouped by provider and model.
func (s *AIUsageService) GetProviderBreakdown(since time.Time) ([]ProviderUsage, error) {
	query := s.db.Model(&models.AIUsageLog{})
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}

	var results []ProviderUsage
	err := query.Select(
		"provider, model, " +
			"COUNT(*) as calls, " +
			"COALESCE(AVG(latency_ms), 0) as avg_latency_ms, " +
			"COALESCE(AVG(CASE WHEN success THEN 100.0 ELSE 0.0 END), 0) as success_rate",
	).Group("provider, model").Order("calls DESC").Scan(&results).Error
	if err != nil {
		return nil, err
	}

	if results == nil {
		results = []ProviderUsage{}
	}
	return results, nil
}
