package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)
	handler(c)
	return w
}

func parseError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !body.Error {
		t.Error("error flag should be true")
	}
	return body
}

func TestSuccess(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Success(c, map[string]string{"name": "test"})
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["name"] != "test" {
		t.Errorf("data should be the body, got %v", body)
	}
}

func TestCreated(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Created(c, map[string]int{"id": 1})
	})

	if w.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, w.Code)
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		fn     func(c *gin.Context)
		status int
		code   string
		msg    string
	}{
		{"validation", func(c *gin.Context) { ValidationError(c, "email: field required") }, 422, CodeValidation, "email: field required"},
		{"bad request", func(c *gin.Context) { BadRequest(c, "invalid input") }, 400, CodeBadRequest, "invalid input"},
		{"unauthorized", func(c *gin.Context) { Unauthorized(c, "token expired") }, 401, CodeAuth, "token expired"},
		{"forbidden", func(c *gin.Context) { Forbidden(c, "owner only") }, 403, CodeForbidden, "owner only"},
		{"not found", func(c *gin.Context) { NotFound(c, "resource not found") }, 404, CodeNotFound, "resource not found"},
		{"rate limited", func(c *gin.Context) { TooManyRequests(c, "slow down") }, 429, CodeRateLimited, "slow down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(tt.fn)
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			body := parseError(t, w)
			if body.ErrorCode != tt.code {
				t.Errorf("error_code = %q, expected %q", body.ErrorCode, tt.code)
			}
			if body.Message != tt.msg {
				t.Errorf("message = %q, expected %q", body.Message, tt.msg)
			}
		})
	}
}

func TestServerError_HidesDetail(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		ServerError(c, errors.New("dial tcp 10.0.0.3:5432: connection refused"))
	})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}

	body := parseError(t, w)
	if body.ErrorCode != CodeInternal {
		t.Errorf("error_code = %q", body.ErrorCode)
	}
	if strings.Contains(body.Message, "connection refused") {
		t.Error("internal detail must not leak to the client")
	}
}

func TestError_WithAppError(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, NewBadRequest("Project team is full"))
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	body := parseError(t, w)
	if body.Message != "Project team is full" {
		t.Errorf("expected message 'Project team is full', got %q", body.Message)
	}
}

func TestError_WithGenericError(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, errors.New("something went wrong"))
	})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	if body := parseError(t, w); body.Message != InternalMessage {
		t.Errorf("message = %q", body.Message)
	}
}

func TestAppError_ErrorInterface(t *testing.T) {
	err := NewNotFound("user not found")
	if err.Error() != "user not found" {
		t.Errorf("expected 'user not found', got %q", err.Error())
	}
}

type sample struct {
	Email         string   `validate:"required,email"`
	InterestAreas []string `validate:"min=1"`
}

func TestFormatValidationError(t *testing.T) {
	v := validator.New()
	err := v.Struct(sample{Email: "nope"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	msg := FormatValidationError(err)
	if !strings.Contains(msg, "email: value is not a valid email address") {
		t.Errorf("unexpected message %q", msg)
	}
	if !strings.Contains(msg, "interest_areas: must have at least 1") {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestFormatValidationError_PlainError(t *testing.T) {
	if msg := FormatValidationError(errors.New("unexpected EOF")); msg != "unexpected EOF" {
		t.Errorf("got %q", msg)
	}
}
