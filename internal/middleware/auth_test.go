package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sanapath/sanapath/internal/utils"
	"github.com/sanapath/sanapath/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret-for-middleware-testing")
}

func protectedRouter(mw gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw)
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"user_id":  GetUserID(c),
			"email":    GetEmail(c),
			"provider": GetProvider(c),
		})
	})
	return router
}

func TestAuthRequired_NoHeader(t *testing.T) {
	router := protectedRouter(AuthRequired())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
	var body response.ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Error || body.ErrorCode != response.CodeAuth {
		t.Errorf("unexpected error body %+v", body)
	}
}

func TestAuthRequired_InvalidFormat(t *testing.T) {
	router := protectedRouter(AuthRequired())

	testCases := []string{
		"InvalidToken",
		"Basic token123",
		"Bearer",
		"Bearer   ",
	}

	for _, authHeader := range testCases {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", authHeader)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected status %d, got %d", authHeader, http.StatusUnauthorized, w.Code)
		}
	}
}

func TestAuthRequired_InvalidToken(t *testing.T) {
	router := protectedRouter(AuthRequired())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer invalid.jwt.token")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthRequired_ExpiredToken(t *testing.T) {
	token, _ := utils.GenerateToken(1, "student@example.com", "local", -1)
	router := protectedRouter(AuthRequired())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthRequired_ValidToken(t *testing.T) {
	token, _ := utils.GenerateToken(7, "student@example.com", "github", 24)
	router := protectedRouter(AuthRequired())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var body struct {
		UserID   uint   `json:"user_id"`
		Email    string `json:"email"`
		Provider string `json:"provider"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.UserID != 7 || body.Email != "student@example.com" || body.Provider != "github" {
		t.Errorf("unexpected claims in context: %+v", body)
	}
}

func TestOptionalAuth(t *testing.T) {
	token, _ := utils.GenerateToken(3, "a@example.com", "local", 24)
	router := protectedRouter(OptionalAuth())

	testCases := []struct {
		header string
		userID string
	}{
		{"", `"user_id":0`},
		{"Bearer garbage", `"user_id":0`},
		{"Bearer " + token, `"user_id":3`},
	}
	for _, tc := range testCases {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/protected", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("header %q: expected status %d, got %d", tc.header, http.StatusOK, w.Code)
		}
		if !strings.Contains(w.Body.String(), tc.userID) {
			t.Errorf("header %q: body %s does not contain %s", tc.header, w.Body.String(), tc.userID)
		}
	}
}

func TestGetUserID_Anonymous(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if id := GetUserID(c); id != 0 {
		t.Errorf("expected 0, got %d", id)
	}
	if email := GetEmail(c); email != "" {
		t.Errorf("expected empty email, got %q", email)
	}
}
