package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sanapath/sanapath/pkg/logger"
)

// Error codes carried in the error_code field.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeBadRequest  = "BAD_REQUEST"
	CodeAuth        = "AUTH_ERROR"
	CodeForbidden   = "FORBIDDEN"
	CodeNotFound    = "NOT_FOUND"
	CodeConflict    = "CONFLICT"
	CodeRateLimited = "RATE_LIMITED"
	CodeInternal    = "INTERNAL_ERROR"
)

// InternalMessage is returned for any unexpected failure; the detail is logged.
const InternalMessage = "An unexpected error occurred. Please try again later."

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Error     bool   `json:"error"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// AppError represents a structured application error with HTTP status and error code.
type AppError struct {
	HTTPStatus int    // HTTP status code (e.g. 400, 404, 500)
	Code       string // error_code value
	Message    string // Human-readable error message
}

func (e *AppError) Error() string {
	return e.Message
}

func NewValidation(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnprocessableEntity, Code: CodeValidation, Message: msg}
}

func NewBadRequest(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Code: CodeBadRequest, Message: msg}
}

func NewUnauthorized(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Code: CodeAuth, Message: msg}
}

func NewForbidden(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Code: CodeForbidden, Message: msg}
}

func NewNotFound(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}

func NewConflict(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusConflict, Code: CodeConflict, Message: msg}
}

func NewServerError(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Code: CodeInternal, Message: msg}
}

// --- Gin response helpers ---

// Success sends a 200 OK response with data as the body.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 Created response with data as the body.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Message sends a 200 OK {"message": msg}.
func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// Error sends an error response. If err is an *AppError, its code and status
// are used; otherwise the error is logged and a generic 500 is returned.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		abort(c, appErr.HTTPStatus, appErr.Code, appErr.Message)
		return
	}
	ServerError(c, err)
}

// BindError answers a failed ShouldBind* with a 422 listing the offending fields.
func BindError(c *gin.Context, err error) {
	abort(c, http.StatusUnprocessableEntity, CodeValidation, FormatValidationError(err))
}

// FormatValidationError renders validator errors as "field: reason; field: reason".
// Other errors (malformed JSON and the like) are returned as-is.
func FormatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", snakeCase(fe.Field()), describeTag(fe)))
	}
	return strings.Join(parts, "; ")
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "email":
		return "value is not a valid email address"
	case "min":
		return "must have at least " + fe.Param() + " item(s) or characters"
	case "max":
		return "must have at most " + fe.Param() + " item(s) or characters"
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	case "skill_level":
		return "must be one of beginner, intermediate, advanced, expert"
	case "activity_type":
		return "unknown activity type"
	case "gte", "lte", "gt", "lt":
		return "must be " + fe.Tag() + " " + fe.Param()
	default:
		return "failed on '" + fe.Tag() + "'"
	}
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorBody{Error: true, ErrorCode: code, Message: msg})
}

// Convenience error response functions

func ValidationError(c *gin.Context, msg string) {
	abort(c, http.StatusUnprocessableEntity, CodeValidation, msg)
}

func BadRequest(c *gin.Context, msg string) {
	abort(c, http.StatusBadRequest, CodeBadRequest, msg)
}

func Unauthorized(c *gin.Context, msg string) {
	abort(c, http.StatusUnauthorized, CodeAuth, msg)
}

func Forbidden(c *gin.Context, msg string) {
	abort(c, http.StatusForbidden, CodeForbidden, msg)
}

func NotFound(c *gin.Context, msg string) {
	abort(c, http.StatusNotFound, CodeNotFound, msg)
}

func TooManyRequests(c *gin.Context, msg string) {
	abort(c, http.StatusTooManyRequests, CodeRateLimited, msg)
}

// ServerError logs err and answers with the generic internal error body.
func ServerError(c *gin.Context, err error) {
	if err != nil {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		_ = c.Error(err)
	}
	abort(c, http.StatusInternalServerError, CodeInternal, InternalMessage)
}
