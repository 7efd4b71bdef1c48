package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sanapath/sanapath/internal/middleware"
	"github.com/sanapath/sanapath/internal/services"
	"github.com/sanapath/sanapath/pkg/response"
)

// UserHandler serves /api/users: profile, progress, achievements and settings.
type UserHandler struct {
	userService      *services.UserService
	progressService  *services.ProgressService
	systemLogService *services.SystemLogService
}

func NewUserHandler(userService *services.UserService, progressService *services.ProgressService, systemLogService *services.SystemLogService) *UserHandler {
	return &UserHandler{
		userService:      userService,
		progressService:  progressService,
		systemLogService: systemLogService,
	}
}

type activityRequest struct {
	ActivityType string `json:"activity_type" binding:"required,activity_type"`
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.userService.Profile(middleware.GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, profile)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req services.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.userService.UpdateProfile(middleware.GetUserID(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, profile)
}

func (h *UserHandler) GetStats(c *gin.Context) {
	stats, err := h.progressService.GetStats(middleware.GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}

func (h *UserHandler) SetStats(c *gin.Context) {
	var in services.StatsInput
	if !bindJSON(c, &in) {
		return
	}
	result, err := h.progressService.SetStats(middleware.GetUserID(c), in)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// Activity lists the caller's audit trail.
func (h *UserHandler) Activity(c *gin.Context) {
	var req services.SystemLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}
	resp, err := h.systemLogService.ListForUser(middleware.GetUserID(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}

func (h *UserHandler) RecordActivity(c *gin.Context) {
	var req activityRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.progressService.RecordActivity(middleware.GetUserID(c), req.ActivityType)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *UserHandler) Achievements(c *gin.Context) {
	list, err := h.progressService.Achievements(middleware.GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	unlocked := 0
	for _, a := range list {
		if a.Unlocked {
			unlocked++
		}
	}
	response.Success(c, gin.H{"achievements": list, "total": len(list), "unlocked": unlocked})
}

func (h *UserHandler) UnlockAchievement(c *gin.Context) {
	result, err := h.progressService.Unlock(middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *UserHandler) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.progressService.Leaderboard(limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"leaderboard": entries})
}

func (h *UserHandler) GetSettings(c *gin.Context) {
	settings, err := h.userService.Settings(middleware.GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, settings)
}

// SaveSettings accepts a partial body; omitted fields keep their current value.
func (h *UserHandler) SaveSettings(c *gin.Context) {
	userID := middleware.GetUserID(c)
	current, err := h.userService.Settings(userID)
	if err != nil {
		handleError(c, err)
		return
	}
	settings := *current
	if !bindJSON(c, &settings) {
		return
	}
	saved, err := h.userService.SaveSettings(userID, &settings)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, saved)
}
