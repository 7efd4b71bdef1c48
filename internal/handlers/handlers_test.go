package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sanapath/sanapath/internal/config"
	"github.com/sanapath/sanapath/internal/middleware"
	"github.com/sanapath/sanapath/internal/models"
	"github.com/sanapath/sanapath/internal/services"
	"github.com/sanapath/sanapath/internal/testutil"
	"github.com/sanapath/sanapath/internal/utils"
	"github.com/sanapath/sanapath/internal/validation"
	"github.com/sanapath/sanapath/pkg/response"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret-for-handler-testing")
	if err := validation.RegisterWithGin(); err != nil {
		panic(err)
	}
}

// testServer wires real services over an in-memory database, mirroring the
// production route table.
type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewDB(t)

	engine := services.NewRecommendationServiceWithProviders(services.DefaultTemplateProvider(), true, time.Second, nil)
	progress := services.NewProgressService(db)
	oauthCfg := &config.OAuthConfig{GitHub: config.OAuthClientConfig{ClientID: "gh-id", ClientSecret: "gh-secret"}}

	health := NewHealthHandler(db, engine)
	survey := NewSurveyHandler(services.NewSurveyService(db, engine))
	community := NewCommunityHandler(services.NewCommunityService(db, progress))
	project := NewProjectHandler(services.NewUserProjectService(db, progress))
	user := NewUserHandler(services.NewUserService(db, progress), progress, services.NewSystemLogService(db))
	auth := NewAuthHandler(
		services.NewAuthService(db, &config.JWTConfig{ExpireHour: 1, RefreshExpireHour: 24}, &config.DemoConfig{LoginEnabled: true}),
		services.NewOAuthService(oauthCfg, "http://api.test"),
		"http://app.test/",
		true,
	)

	r := gin.New()
	r.GET("/health", health.CheckHealth)
	r.GET("/", health.Root)

	api := r.Group("/api")
	api.GET("/survey/questions", survey.Questions)
	api.POST("/survey/submit", middleware.OptionalAuth(), survey.Submit)
	api.GET("/survey/recommendations", middleware.AuthRequired(), survey.History)

	api.GET("/auth/providers", auth.Providers)
	api.GET("/auth/demo/status", auth.DemoStatus)
	api.GET("/auth/login/:provider", auth.OAuthLogin)
	api.GET("/auth/callback/:provider", auth.OAuthCallback)
	api.POST("/auth/register", auth.Register)
	api.POST("/auth/login", auth.Login)
	api.POST("/auth/demo/login", auth.DemoLogin)
	api.POST("/auth/firebase/verify", auth.FirebaseVerify)
	api.POST("/auth/refresh", auth.Refresh)
	api.POST("/auth/logout", auth.Logout)

	api.GET("/community/projects", community.List)
	api.GET("/community/projects/:uuid", community.Get)
	api.GET("/community/projects/:uuid/members", community.Members)
	api.POST("/community/linkedin-post", community.LinkedInPost)
	api.GET("/users/leaderboard", user.Leaderboard)

	p := api.Group("", middleware.AuthRequired())
	p.GET("/auth/me", auth.GetCurrentUser)
	p.POST("/community/projects", community.Publish)
	p.POST("/community/projects/:uuid/join", community.Join)
	p.POST("/community/projects/:uuid/leave", community.Leave)
	p.DELETE("/community/projects/:uuid", community.Delete)
	p.PATCH("/community/projects/:uuid/settings", community.UpdateSettings)
	p.GET("/community/my-projects", community.Owned)
	p.POST("/projects/start", project.Start)
	p.GET("/projects/my-projects", project.List)
	p.GET("/projects/:uuid", project.Get)
	p.PATCH("/projects/:uuid", project.Update)
	p.DELETE("/projects/:uuid", project.Delete)
	p.POST("/projects/:uuid/complete-task", project.CompleteTask)
	p.GET("/users/me/profile", user.GetProfile)
	p.PUT("/users/me/profile", user.UpdateProfile)
	p.GET("/users/me/stats", user.GetStats)
	p.PUT("/users/me/stats", user.SetStats)
	p.GET("/users/me/activity", user.Activity)
	p.POST("/users/me/activity", user.RecordActivity)
	p.GET("/users/me/achievements", user.Achievements)
	p.POST("/users/me/achievements/:id/unlock", user.UnlockAchievement)
	p.GET("/users/me/settings", user.GetSettings)
	p.PUT("/users/me/settings", user.SaveSettings)

	return &testServer{t: t, db: db, router: r}
}

// tokenFor signs an access token for u.
func (s *testServer) tokenFor(u *models.User) string {
	s.t.Helper()
	token, err := utils.GenerateToken(u.ID, u.Email, u.Provider, 1)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(s.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), "body: %s", w.Body.String())
}

func requireError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) response.ErrorBody {
	t.Helper()
	require.Equal(t, status, w.Code, "body: %s", w.Body.String())
	var body response.ErrorBody
	decode(t, w, &body)
	require.True(t, body.Error)
	require.Equal(t, code, body.ErrorCode)
	return body
}
