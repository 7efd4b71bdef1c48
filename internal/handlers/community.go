package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sanapath/sanapath/internal/middleware"
	"github.com/sanapath/sanapath/internal/services"
	"github.com/sanapath/sanapath/pkg/response"
)

type CommunityHandler struct {
	communityService *services.CommunityService
}

func NewCommunityHandler(communityService *services.CommunityService) *CommunityHandler {
	return &CommunityHandler{communityService: communityService}
}

func (h *CommunityHandler) List(c *gin.Context) {
	var f services.CommunityFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		response.BindError(c, err)
		return
	}
	list, err := h.communityService.List(&f)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, list)
}

func (h *CommunityHandler) Get(c *gin.Context) {
	p, err := h.communityService.Get(c.Param("uuid"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, p)
}

func (h *CommunityHandler) Members(c *gin.Context) {
	members, err := h.communityService.Members(c.Param("uuid"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"members": members, "total": len(members)})
}

func (h *CommunityHandler) Publish(c *gin.Context) {
	var req services.PublishRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.communityService.Publish(middleware.GetUserID(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, p)
}

func (h *CommunityHandler) Join(c *gin.Context) {
	result, err := h.communityService.Join(middleware.GetUserID(c), c.Param("uuid"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *CommunityHandler) Leave(c *gin.Context) {
	result, err := h.communityService.Leave(middleware.GetUserID(c), c.Param("uuid"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *CommunityHandler) Delete(c *gin.Context) {
	if err := h.communityService.Delete(middleware.GetUserID(c), c.Param("uuid")); err != nil {
		handleError(c, err)
		return
	}
	response.Message(c, "Project deleted")
}

func (h *CommunityHandler) UpdateSettings(c *gin.Context) {
	var req services.ProjectSettingsRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.communityService.UpdateSettings(middleware.GetUserID(c), c.Param("uuid"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, p)
}

// Owned lists the projects the caller owns and the ones they joined.
func (h *CommunityHandler) Owned(c *gin.Context) {
	owned, joined, err := h.communityService.Owned(middleware.GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"owned": owned, "joined": joined})
}

func (h *CommunityHandler) LinkedInPost(c *gin.Context) {
	var req services.LinkedInPostRequest
	if !bindJSON(c, &req) {
		return
	}
	response.Success(c, gin.H{"post": services.GenerateLinkedInPost(&req)})
}
