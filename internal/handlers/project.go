package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sanapath/sanapath/internal/middleware"
	"github.com/sanapath/sanapath/internal/services"
	"github.com/sanapath/sanapath/pkg/response"
)

// ProjectHandler serves the caller's own projects under /api/projects.
type ProjectHandler struct {
	projectService *services.UserProjectService
}

func NewProjectHandler(projectService *services.UserProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

type completeTaskRequest struct {
	TaskID string `json:"task_id" form:"task_id" binding:"required,max=255"`
}

func (h *ProjectHandler) Start(c *gin.Context) {
	var req services.StartProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.projectService.Start(middleware.GetUserID(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, p)
}

func (h *ProjectHandler) List(c *gin.Context) {
	list, err := h.projectService.List(middleware.GetUserID(c), c.Query("status_filter"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, list)
}

func (h *ProjectHandler) Get(c *gin.Context) {
	p, err := h.projectService.Get(middleware.GetUserID(c), c.Param("uuid"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, p)
}

func (h *ProjectHandler) Update(c *gin.Context) {
	var req services.UpdateProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.projectService.Update(middleware.GetUserID(c), c.Param("uuid"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, p)
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projectService.Delete(middleware.GetUserID(c), c.Param("uuid")); err != nil {
		handleError(c, err)
		return
	}
	response.Message(c, "Project deleted")
}

// CompleteTask takes task_id from a JSON body, or from the query string when
// the request has no body.
func (h *ProjectHandler) CompleteTask(c *gin.Context) {
	var req completeTaskRequest
	if c.Request.ContentLength == 0 {
		if err := c.ShouldBindQuery(&req); err != nil {
			response.BindError(c, err)
			return
		}
	} else if !bindJSON(c, &req) {
		return
	}
	result, err := h.projectService.CompleteTask(middleware.GetUserID(c), c.Param("uuid"), req.TaskID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
