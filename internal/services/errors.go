package services

import "errors"

// Domain errors. Handlers map these to HTTP status codes.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserDisabled       = errors.New("user is disabled")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrPasswordLogin      = errors.New("this account signs in with an external provider")

	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired or revoked")

	ErrDemoDisabled               = errors.New("demo login is disabled")
	ErrOAuthProviderNotConfigured = errors.New("oauth provider is not configured")
	ErrOAuthProviderUnknown       = errors.New("unknown oauth provider")
	ErrOAuthNoEmail               = errors.New("oauth provider did not return an email address")

	ErrProjectNotFound            = errors.New("project not found")
	ErrNotLookingForCollaborators = errors.New("project is not looking for collaborators")
	ErrTeamFull                   = errors.New("project team is full")
	ErrOwnerCannotJoin            = errors.New("you are the owner of this project")
	ErrAlreadyMember              = errors.New("you are already a member of this project")
	ErrNotMember                  = errors.New("you are not a member of this project")
	ErrOwnerCannotLeave           = errors.New("owner cannot leave the project, delete it instead")
	ErrNotOwner                   = errors.New("only the project owner can do this")
	ErrTeamSizeTooSmall           = errors.New("max_team_size cannot be below the current member count")

	ErrUserProjectNotFound = errors.New("user project not found")
	ErrInvalidStatus       = errors.New("status must be one of active, completed, paused")
	ErrEmptyTaskID         = errors.New("task_id is required")

	ErrUnknownActivity     = errors.New("unknown activity type")
	ErrAchievementNotFound = errors.New("achievement not found")

	ErrInvalidSettings = errors.New("invalid settings")
)
