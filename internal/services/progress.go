package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/sanapath/sanapath/internal/metrics"
	"github.com/sanapath/sanapath/internal/models"
	"github.com/sanapath/sanapath/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Activity types accepted by RecordActivity.
const (
	ActivityTaskComplete    = "task_complete"
	ActivityProjectStart    = "project_start"
	ActivityProjectComplete = "project_complete"
	ActivityWeekComplete    = "week_complete"
	ActivityResourceUsed    = "resource_used"
	ActivityDailyLogin      = "daily_login"
	ActivityJoinCommunity   = "join_community"
)

// XPPerLevel is the XP needed to advance one level.
const XPPerLevel = 500

// Achievement is a milestone that awards its points once per user.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Points      int    `json:"points"`

	reached func(*models.UserStats) bool
}

// Achievements is the fixed catalog, in display order.
var Achievements = []Achievement{
	{ID: "first_project", Title: "First Launch", Description: "Start your first AI project", Points: 100,
		reached: func(s *models.UserStats) bool { return s.TotalProjects >= 1 }},
	{ID: "week_complete", Title: "Week Warrior", Description: "Complete your first week", Points: 200,
		reached: func(s *models.UserStats) bool { return s.CompletedWeeks >= 1 }},
	{ID: "three_projects", Title: "Project Pro", Description: "Start 3 different projects", Points: 300,
		reached: func(s *models.UserStats) bool { return s.TotalProjects >= 3 }},
	{ID: "streak_7", Title: "On Fire!", Description: "Maintain a 7-day streak", Points: 500,
		reached: func(s *models.UserStats) bool { return s.Streak >= 7 }},
	{ID: "ten_tasks", Title: "Task Master", Description: "Complete 10 tasks", Points: 250,
		reached: func(s *models.UserStats) bool { return s.CompletedTasks >= 10 }},
	{ID: "community_join", Title: "Team Player", Description: "Join a community project", Points: 150,
		reached: func(s *models.UserStats) bool { return s.JoinedCommunity }},
	{ID: "first_complete", Title: "Finisher", Description: "Complete your first project", Points: 1000,
		reached: func(s *models.UserStats) bool { return s.CompletedProjects >= 1 }},
	{ID: "code_master", Title: "Code Master", Description: "Complete 50 tasks total", Points: 750,
		reached: func(s *models.UserStats) bool { return s.CompletedTasks >= 50 }},
	{ID: "scholar", Title: "AI Scholar", Description: "Use 20+ learning resources", Points: 400,
		reached: func(s *models.UserStats) bool { return s.ResourcesUsed >= 20 }},
}

func findAchievement(id string) (Achievement, bool) {
	for _, a := range Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// ActivityXP is the XP earned from counters alone.
func ActivityXP(s *models.UserStats) int {
	return s.CompletedTasks*10 + s.CompletedProjects*100 + s.CompletedWeeks*50
}

// LevelForXP returns max(1, xp/XPPerLevel + 1).
func LevelForXP(xp int) int {
	level := xp/XPPerLevel + 1
	if level < 1 {
		return 1
	}
	return level
}

// StatsInput replaces a user's counters wholesale.
type StatsInput struct {
	TotalProjects     int  `json:"total_projects" binding:"min=0"`
	CompletedProjects int  `json:"completed_projects" binding:"min=0"`
	CompletedTasks    int  `json:"completed_tasks" binding:"min=0"`
	CompletedWeeks    int  `json:"completed_weeks" binding:"min=0"`
	Streak            int  `json:"streak" binding:"min=0"`
	ResourcesUsed     int  `json:"resources_used" binding:"min=0"`
	JoinedCommunity   bool `json:"joined_community"`
}

// ProgressResult is the state after a mutation plus any achievements it unlocked.
type ProgressResult struct {
	Stats    *models.UserStats `json:"stats"`
	Unlocked []Achievement     `json:"unlocked_achievements"`
	LevelUp  bool              `json:"level_up"`
}

// AchievementStatus is a catalog entry annotated for one user.
type AchievementStatus struct {
	Achievement
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// UnlockResult describes a direct unlock.
type UnlockResult struct {
	Achievement     Achievement       `json:"achievement"`
	AlreadyUnlocked bool              `json:"already_unlocked"`
	XPEarned        int               `json:"xp_earned"`
	Stats           *models.UserStats `json:"stats"`
}

// LeaderboardEntry is one row of the XP ranking.
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	UserID    uint   `json:"-"`
	UUID      string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	XP        int    `json:"xp"`
	Level     int    `json:"level"`
}

// Leaderboard limits.
const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// ProgressService owns the per-user counters, XP and achievements. Every
// mutation runs in one transaction and derives XP from stored state, so a
// repeated read never changes it.
type ProgressService struct {
	db *gorm.DB
}

func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{db: db}
}

// GetStats returns the user's counters, or level-1 zero stats if none exist yet.
func (s *ProgressService) GetStats(userID uint) (*models.UserStats, error) {
	var stats models.UserStats
	err := s.db.Where("user_id = ?", userID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.UserStats{UserID: userID, Level: 1}, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// RecordActivity applies one activity event. Unknown types fail with
// ErrUnknownActivity and change nothing.
func (s *ProgressService) RecordActivity(userID uint, activityType string) (*ProgressResult, error) {
	apply, ok := activityEffects[activityType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActivity, activityType)
	}

	var result *ProgressResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		stats, err := lockStats(tx, userID)
		if err != nil {
			return err
		}
		before := stats.Level
		apply(stats)
		result, err = settle(tx, stats)
		if err != nil {
			return err
		}
		result.LevelUp = stats.Level > before
		return nil
	})
	if err != nil {
		return nil, err
	}

	countUnlocks(result.Unlocked)
	metrics.ActivityEvents.WithLabelValues(activityType).Inc()
	logger.Debug().Uint("user_id", userID).Str("activity", activityType).Int("xp", result.Stats.XP).
		Msg("[Progress] activity recorded")
	return result, nil
}

var activityEffects = map[string]func(*models.UserStats){
	ActivityTaskComplete:    func(s *models.UserStats) { s.CompletedTasks++ },
	ActivityProjectStart:    func(s *models.UserStats) { s.TotalProjects++ },
	ActivityProjectComplete: func(s *models.UserStats) { s.CompletedProjects++ },
	ActivityWeekComplete:    func(s *models.UserStats) { s.CompletedWeeks++ },
	ActivityResourceUsed:    func(s *models.UserStats) { s.ResourcesUsed++ },
	ActivityDailyLogin:      func(s *models.UserStats) { s.Streak++ },
	ActivityJoinCommunity:   func(s *models.UserStats) { s.JoinedCommunity = true },
}

// SetStats overwrites the counters and re-evaluates achievements.
func (s *ProgressService) SetStats(userID uint, in StatsInput) (*ProgressResult, error) {
	var result *ProgressResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		stats, err := lockStats(tx, userID)
		if err != nil {
			return err
		}
		before := stats.Level
		stats.TotalProjects = in.TotalProjects
		stats.CompletedProjects = in.CompletedProjects
		stats.CompletedTasks = in.CompletedTasks
		stats.CompletedWeeks = in.CompletedWeeks
		stats.Streak = in.Streak
		stats.ResourcesUsed = in.ResourcesUsed
		stats.JoinedCommunity = in.JoinedCommunity
		result, err = settle(tx, stats)
		if err != nil {
			return err
		}
		result.LevelUp = stats.Level > before
		return nil
	})
	if err != nil {
		return nil, err
	}
	countUnlocks(result.Unlocked)
	return result, nil
}

// Achievements lists the full catalog with the user's unlock state.
func (s *ProgressService) Achievements(userID uint) ([]AchievementStatus, error) {
	var rows []models.UserAchievement
	if err := s.db.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	unlocked := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		unlocked[r.AchievementID] = r.UnlockedAt
	}

	out := make([]AchievementStatus, 0, len(Achievements))
	for _, a := range Achievements {
		st := AchievementStatus{Achievement: a}
		if at, ok := unlocked[a.ID]; ok {
			at := at
			st.Unlocked = true
			st.UnlockedAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}

// Unlock grants an achievement directly. Points are awarded only the first time.
func (s *ProgressService) Unlock(userID uint, achievementID string) (*UnlockResult, error) {
	a, ok := findAchievement(achievementID)
	if !ok {
		return nil, ErrAchievementNotFound
	}

	result := &UnlockResult{Achievement: a}
	var autoUnlocked []Achievement
	err := s.db.Transaction(func(tx *gorm.DB) error {
		stats, err := lockStats(tx, userID)
		if err != nil {
			return err
		}
		inserted, err := insertAchievement(tx, userID, a)
		if err != nil {
			return err
		}
		result.AlreadyUnlocked = !inserted
		if inserted {
			result.XPEarned = a.Points
		}
		settled, err := settle(tx, stats)
		if err != nil {
			return err
		}
		result.Stats = settled.Stats
		autoUnlocked = settled.Unlocked
		return nil
	})
	if err != nil {
		return nil, err
	}
	countUnlocks(autoUnlocked)
	if !result.AlreadyUnlocked {
		metrics.AchievementsUnlocked.WithLabelValues(a.ID).Inc()
		logger.Info().Uint("user_id", userID).Str("achievement", a.ID).Msg("[Progress] achievement unlocked")
	}
	return result, nil
}

// Leaderboard returns the top users by XP. Ties rank the earlier account first.
func (s *ProgressService) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	var entries []LeaderboardEntry
	err := s.db.Table("user_stats").
		Select("users.id AS user_id, users.uuid, users.name, users.avatar_url, user_stats.xp, user_stats.level").
		Joins("JOIN users ON users.id = user_stats.user_id AND users.deleted_at IS NULL").
		Order("user_stats.xp DESC, users.id ASC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Rank = i + 1
		if entries[i].Name == "" {
			entries[i].Name = "Anonymous"
		}
	}
	if entries == nil {
		entries = []LeaderboardEntry{}
	}
	return entries, nil
}

// lockStats loads the user's stats row inside tx, creating it on first use.
func lockStats(tx *gorm.DB, userID uint) (*models.UserStats, error) {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserStats{UserID: userID, Level: 1}).Error; err != nil {
		return nil, err
	}
	var stats models.UserStats
	if err := forUpdate(tx).Where("user_id = ?", userID).First(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func insertAchievement(tx *gorm.DB, userID uint, a Achievement) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.UserAchievement{
		UserID:        userID,
		AchievementID: a.ID,
		Points:        a.Points,
		UnlockedAt:    time.Now(),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// countUnlocks records committed unlocks. Call it only after the transaction
// that inserted them has committed.
func countUnlocks(unlocked []Achievement) {
	for _, a := range unlocked {
		metrics.AchievementsUnlocked.WithLabelValues(a.ID).Inc()
	}
}

// settle unlocks every achievement the counters now reach, recomputes XP and
// level from the stored unlocks, and saves the row.
func settle(tx *gorm.DB, stats *models.UserStats) (*ProgressResult, error) {
	result := &ProgressResult{Stats: stats, Unlocked: []Achievement{}}
	for _, a := range Achievements {
		if !a.reached(stats) {
			continue
		}
		inserted, err := insertAchievement(tx, stats.UserID, a)
		if err != nil {
			return nil, err
		}
		if inserted {
			result.Unlocked = append(result.Unlocked, a)
		}
	}

	var achievementXP int64
	if err := tx.Model(&models.UserAchievement{}).
		Where("user_id = ?", stats.UserID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&achievementXP).Error; err != nil {
		return nil, err
	}

	stats.ActivityXP = ActivityXP(stats)
	stats.AchievementXP = int(achievementXP)
	stats.XP = stats.ActivityXP + stats.AchievementXP
	stats.Level = LevelForXP(stats.XP)
	if err := tx.Save(stats).Error; err != nil {
		return nil, err
	}
	return result, nil
}
