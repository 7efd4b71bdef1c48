package services

import (
	"errors"
	"strings"
	"time"

	"github.com/sanapath/sanapath/internal/models"
	"github.com/sanapath/sanapath/pkg/logger"
	"gorm.io/gorm"
)

// StartProjectRequest creates a user project, usually from a recommendation.
type StartProjectRequest struct {
	Title          string               `json:"title" binding:"required,max=255"`
	Description    string               `json:"description" binding:"required"`
	Category       string               `json:"category" binding:"max=100"`
	Difficulty     string               `json:"difficulty" binding:"max=50"`
	TechStack      []string             `json:"tech_stack"`
	LearningGoals  []string             `json:"learning_goals"`
	SkillsGained   []string             `json:"skills_gained"`
	Roadmap        []models.RoadmapWeek `json:"roadmap"`
	EstimatedHours *int                 `json:"estimated_hours" binding:"omitempty,min=0"`
}

// UpdateProjectRequest is a partial update; nil fields are left unchanged.
type UpdateProjectRequest struct {
	Status          *string   `json:"status" binding:"omitempty,oneof=active completed paused"`
	ProgressPercent *int      `json:"progress_percent" binding:"omitempty,min=0,max=100"`
	CurrentWeek     *int      `json:"current_week" binding:"omitempty,min=1"`
	CompletedTasks  *[]string `json:"completed_tasks"`
	TotalHoursSpent *int      `json:"total_hours_spent" binding:"omitempty,min=0"`
}

// UserProjectList is a user's projects with status counts.
type UserProjectList struct {
	Projects       []models.UserProject `json:"projects"`
	Total          int                  `json:"total"`
	ActiveCount    int                  `json:"active_count"`
	CompletedCount int                  `json:"completed_count"`
}

// TaskResult reports the state after a complete-task call.
type TaskResult struct {
	Message         string   `json:"message"`
	CompletedTasks  []string `json:"completed_tasks"`
	ProgressPercent int      `json:"progress_percent"`
	Added           bool     `json:"added"`
}

// UserProjectService manages the projects a student is working through.
type UserProjectService struct {
	db       *gorm.DB
	progress *ProgressService
}

func NewUserProjectService(db *gorm.DB, progress *ProgressService) *UserProjectService {
	return &UserProjectService{db: db, progress: progress}
}

func (s *UserProjectService) Start(userID uint, req *StartProjectRequest) (*models.UserProject, error) {
	p := &models.UserProject{
		UserID:         userID,
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		Category:       req.Category,
		Difficulty:     req.Difficulty,
		TechStack:      models.StringList(req.TechStack),
		LearningGoals:  models.StringList(req.LearningGoals),
		SkillsGained:   models.StringList(req.SkillsGained),
		Roadmap:        models.Roadmap(req.Roadmap),
		EstimatedHours: req.EstimatedHours,
		Status:         models.UserProjectActive,
		CurrentWeek:    1,
		CompletedTasks: models.StringList{},
	}
	if err := s.db.Create(p).Error; err != nil {
		return nil, err
	}
	s.record(userID, ActivityProjectStart)
	return p, nil
}

// List returns the user's projects, newest first. Counts cover the returned set.
func (s *UserProjectService) List(userID uint, statusFilter string) (*UserProjectList, error) {
	query := s.db.Where("user_id = ?", userID)
	if statusFilter != "" {
		query = query.Where("status = ?", statusFilter)
	}

	var projects []models.UserProject
	if err := query.Order("started_at DESC, id DESC").Find(&projects).Error; err != nil {
		return nil, err
	}

	list := &UserProjectList{Projects: projects, Total: len(projects)}
	if list.Projects == nil {
		list.Projects = []models.UserProject{}
	}
	for _, p := range projects {
		switch p.Status {
		case models.UserProjectActive:
			list.ActiveCount++
		case models.UserProjectCompleted:
			list.CompletedCount++
		}
	}
	return list, nil
}

// Get returns a project owned by userID. Other users' projects are not found.
func (s *UserProjectService) Get(userID uint, uuid string) (*models.UserProject, error) {
	return findUserProject(s.db, userID, uuid)
}

// Update applies a partial update. Fields apply in order: status, progress,
// current week, completed tasks, hours. Replacing completed tasks recomputes
// progress; a completed project always reports 100, and reopening one without
// an explicit progress_percent recomputes it from the completed tasks.
func (s *UserProjectService) Update(userID uint, uuid string, req *UpdateProjectRequest) (*models.UserProject, error) {
	var (
		p           *models.UserProject
		nowComplete bool
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		p, err = findUserProject(forUpdate(tx), userID, uuid)
		if err != nil {
			return err
		}
		wasComplete := p.Status == models.UserProjectCompleted

		if req.Status != nil {
			if !validStatus(*req.Status) {
				return ErrInvalidStatus
			}
			p.Status = *req.Status
			if p.Status == models.UserProjectCompleted {
				if p.CompletedAt == nil {
					now := time.Now()
					p.CompletedAt = &now
				}
			} else {
				p.CompletedAt = nil
			}
		}
		if req.ProgressPercent != nil {
			p.ProgressPercent = clampPercent(*req.ProgressPercent)
		}
		if req.CurrentWeek != nil {
			p.CurrentWeek = *req.CurrentWeek
		}
		if req.CompletedTasks != nil {
			p.CompletedTasks = dedupe(*req.CompletedTasks)
			if p.Roadmap.TotalTasks() > 0 {
				p.RecomputeProgress()
			}
		}
		if req.TotalHoursSpent != nil {
			p.TotalHoursSpent = *req.TotalHoursSpent
		}
		if p.Status == models.UserProjectCompleted {
			p.ProgressPercent = 100
		} else if wasComplete && req.ProgressPercent == nil {
			// reopened: drop the forced 100 and derive from the task set again
			p.RecomputeProgress()
		}

		nowComplete = !wasComplete && p.Status == models.UserProjectCompleted
		return tx.Save(p).Error
	})
	if err != nil {
		return nil, err
	}
	if nowComplete {
		s.record(userID, ActivityProjectComplete)
	}
	return p, nil
}

func (s *UserProjectService) Delete(userID uint, uuid string) error {
	res := s.db.Where("uuid = ? AND user_id = ?", uuid, userID).Delete(&models.UserProject{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserProjectNotFound
	}
	return nil
}

// CompleteTask marks taskID done. Completing an already completed task is a no-op.
func (s *UserProjectService) CompleteTask(userID uint, uuid, taskID string) (*TaskResult, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, ErrEmptyTaskID
	}

	var (
		p     *models.UserProject
		added bool
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		p, err = findUserProject(forUpdate(tx), userID, uuid)
		if err != nil {
			return err
		}
		if p.CompletedTasks.Contains(taskID) {
			return nil
		}
		p.CompletedTasks = append(p.CompletedTasks, taskID)
		p.RecomputeProgress()
		added = true
		return tx.Save(p).Error
	})
	if err != nil {
		return nil, err
	}
	if added {
		s.record(userID, ActivityTaskComplete)
	}

	tasks := []string(p.CompletedTasks)
	if tasks == nil {
		tasks = []string{}
	}
	return &TaskResult{
		Message:         "Task completed",
		CompletedTasks:  tasks,
		ProgressPercent: p.ProgressPercent,
		Added:           added,
	}, nil
}

// record feeds the progress service. Failures there never undo the project change.
func (s *UserProjectService) record(userID uint, activity string) {
	if s.progress == nil {
		return
	}
	if _, err := s.progress.RecordActivity(userID, activity); err != nil {
		logger.Warn().Err(err).Uint("user_id", userID).Str("activity", activity).
			Msg("[UserProject] failed to record activity")
	}
}

func findUserProject(db *gorm.DB, userID uint, uuid string) (*models.UserProject, error) {
	var p models.UserProject
	err := db.Where("uuid = ? AND user_id = ?", uuid, userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func validStatus(s string) bool {
	switch s {
	case models.UserProjectActive, models.UserProjectCompleted, models.UserProjectPaused:
		return true
	}
	return false
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func dedupe(in []string) models.StringList {
	seen := make(map[string]bool, len(in))
	out := make(models.StringList, 0, len(in))
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
