package services

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/sanapath/sanapath/internal/models"
	"github.com/sanapath/sanapath/pkg/logger"
	"gorm.io/gorm"
)

// Log levels stored in system_logs.level.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

var auditDB atomic.Pointer[gorm.DB]

// InitSystemLogger points LogInfo and friends at db. Passing nil, or never
// calling it, turns them into no-ops.
func InitSystemLogger(db *gorm.DB) {
	auditDB.Store(db)
}

func LogInfo(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	appendLog(LevelInfo, module, action, message, userID, ip, userAgent, extra)
}

func LogWarning(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	appendLog(LevelWarning, module, action, message, userID, ip, userAgent, extra)
}

func LogError(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	appendLog(LevelError, module, action, message, userID, ip, userAgent, extra)
}

func appendLog(level, module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	db := auditDB.Load()
	if db == nil {
		return
	}

	row := models.SystemLog{
		Level:     level,
		Module:    module,
		Action:    action,
		Message:   message,
		UserID:    userID,
		IP:        ip,
		UserAgent: truncate(userAgent, 500),
		CreatedAt: time.Now(),
	}
	if extra != nil {
		if b, err := json.Marshal(extra); err == nil {
			row.Extra = string(b)
		}
	}
	if err := db.Create(&row).Error; err != nil {
		logger.Warn().Err(err).Str("module", module).Str("action", action).Msg("[Activity] failed to write log")
	}
}

// SystemLogService reads back the activity log.
type SystemLogService struct {
	db *gorm.DB
}

func NewSystemLogService(db *gorm.DB) *SystemLogService {
	return &SystemLogService{db: db}
}

// Activity log paging limits.
const (
	DefaultActivityPageSize = 20
	MaxActivityPageSize     = 100
)

type SystemLogListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Level    string `form:"level"`
	Module   string `form:"module"`
}

type SystemLogListResponse struct {
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Items    []models.SystemLog `json:"items"`
}

// ListForUser pages through the entries written for one user, newest first.
func (s *SystemLogService) ListForUser(userID uint, req *SystemLogListRequest) (*SystemLogListResponse, error) {
	page, size := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 || size > MaxActivityPageSize {
		size = DefaultActivityPageSize
	}

	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Model(&models.SystemLog{}).Where("user_id = ?", userID)
		if req.Level != "" {
			db = db.Where("level = ?", req.Level)
		}
		if req.Module != "" {
			db = db.Where("module = ?", req.Module)
		}
		return db
	}

	resp := &SystemLogListResponse{Page: page, PageSize: size, Items: []models.SystemLog{}}
	if err := s.db.Scopes(scope).Count(&resp.Total).Error; err != nil {
		return nil, err
	}
	if err := s.db.Scopes(scope).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&resp.Items).Error; err != nil {
		return nil, err
	}
	return resp, nil
}
