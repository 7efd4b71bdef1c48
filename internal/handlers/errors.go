package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sanapath/sanapath/internal/services"
	"github.com/sanapath/sanapath/pkg/response"
)

// errorMappings translate domain errors into API errors. Order matters only
// for wrapped errors that match more than one entry.
var errorMappings = []struct {
	target error
	build  func(msg string) *response.AppError
	msg    string
}{
	{services.ErrUserNotFound, response.NewNotFound, "User not found"},
	{services.ErrProjectNotFound, response.NewNotFound, "Project not found"},
	{services.ErrUserProjectNotFound, response.NewNotFound, "Project not found"},
	{services.ErrAchievementNotFound, response.NewNotFound, "Achievement not found"},

	{services.ErrInvalidCredentials, response.NewUnauthorized, "Incorrect email or password"},
	{services.ErrPasswordLogin, response.NewUnauthorized, "This account signs in with an external provider"},
	{services.ErrInvalidRefreshToken, response.NewUnauthorized, "Invalid refresh token"},
	{services.ErrRefreshTokenExpired, response.NewUnauthorized, "Refresh token expired or revoked"},

	{services.ErrUserDisabled, response.NewForbidden, "User account is disabled"},
	{services.ErrDemoDisabled, response.NewForbidden, "Demo login is disabled"},
	{services.ErrNotOwner, response.NewForbidden, "Only the project owner can do this"},

	{services.ErrEmailTaken, response.NewConflict, "Email is already registered"},

	{services.ErrNotLookingForCollaborators, response.NewBadRequest, "Project is not looking for collaborators"},
	{services.ErrTeamFull, response.NewBadRequest, "Project team is full"},
	{services.ErrOwnerCannotJoin, response.NewBadRequest, "You are the owner of this project"},
	{services.ErrAlreadyMember, response.NewBadRequest, "You are already a member of this project"},
	{services.ErrNotMember, response.NewBadRequest, "You are not a member of this project"},
	{services.ErrOwnerCannotLeave, response.NewBadRequest, "Owner cannot leave the project, delete it instead"},
	{services.ErrTeamSizeTooSmall, response.NewBadRequest, "max_team_size cannot be below the current member count"},
	{services.ErrOAuthProviderUnknown, response.NewBadRequest, "Unknown OAuth provider"},
	{services.ErrOAuthProviderNotConfigured, response.NewBadRequest, "OAuth provider is not configured"},
	{services.ErrOAuthNoEmail, response.NewBadRequest, "The identity provider did not return an email address"},

	{services.ErrInvalidStatus, response.NewValidation, ""},
	{services.ErrEmptyTaskID, response.NewValidation, ""},
	{services.ErrUnknownActivity, response.NewValidation, ""},
	{services.ErrInvalidSettings, response.NewValidation, ""},
}

// toAppError returns the API error for a known domain error, or nil.
// An empty mapping message means the error text is safe to show as-is.
func toAppError(err error) *response.AppError {
	var appErr *response.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			msg := m.msg
			if msg == "" {
				msg = err.Error()
			}
			return m.build(msg)
		}
	}
	return nil
}

// handleError writes err as an API error. Unknown errors become a logged 500.
func handleError(c *gin.Context, err error) {
	if appErr := toAppError(err); appErr != nil {
		response.Error(c, appErr)
		return
	}
	response.ServerError(c, err)
}

// bindJSON binds the request body and answers 422 on failure.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.BindError(c, err)
		return false
	}
	return true
}
