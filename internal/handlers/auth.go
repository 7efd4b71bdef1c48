package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sanapath/sanapath/internal/middleware"
	"github.com/sanapath/sanapath/internal/models"
	"github.com/sanapath/sanapath/internal/services"
	"github.com/sanapath/sanapath/internal/utils"
	"github.com/sanapath/sanapath/pkg/logger"
	"github.com/sanapath/sanapath/pkg/response"
)

const (
	oauthStateCookie = "sanapath_oauth_state"
	oauthStateMaxAge = 600
)

type AuthHandler struct {
	authService  *services.AuthService
	oauthService *services.OAuthService
	frontendURL  string
	demoMode     bool
}

func NewAuthHandler(authService *services.AuthService, oauthService *services.OAuthService, frontendURL string, demoMode bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		oauthService: oauthService,
		frontendURL:  strings.TrimRight(frontendURL, "/"),
		demoMode:     demoMode,
	}
}

type tokenResponse struct {
	AccessToken      string       `json:"access_token"`
	TokenType        string       `json:"token_type"`
	ExpiresAt        time.Time    `json:"expires_at"`
	RefreshToken     string       `json:"refresh_token"`
	RefreshExpiresAt time.Time    `json:"refresh_expires_at"`
	User             *models.User `json:"user,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func loginResponse(r *services.LoginResult) tokenResponse {
	return tokenResponse{
		AccessToken:      r.AccessToken,
		TokenType:        "bearer",
		ExpiresAt:        r.AccessExpireAt,
		RefreshToken:     r.RefreshToken,
		RefreshExpiresAt: r.RefreshExpireAt,
		User:             r.User,
	}
}

// Register creates an email/password account.
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.authService.Register(&req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, loginResponse(result))
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.authService.Login(&req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, loginResponse(result))
}

// POST /api/auth/demo/login
func (h *AuthHandler) DemoLogin(c *gin.Context) {
	var req services.DemoLoginRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	result, err := h.authService.DemoLogin(&req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, loginResponse(result))
}

// GET /api/auth/demo/status
func (h *AuthHandler) DemoStatus(c *gin.Context) {
	response.Success(c, gin.H{
		"demo_mode":          h.demoMode,
		"demo_login_enabled": h.authService.DemoLoginEnabled(),
	})
}

// Providers lists the sign-in methods the frontend may offer.
// GET /api/auth/providers
func (h *AuthHandler) Providers(c *gin.Context) {
	providers := h.oauthService.Providers()
	response.Success(c, gin.H{
		"github":   providers[models.ProviderGitHub],
		"google":   providers[models.ProviderGoogle],
		"firebase": true,
		"email":    true,
		"demo":     h.authService.DemoLoginEnabled(),
	})
}

// OAuthLogin redirects the browser to the provider consent page.
// GET /api/auth/login/:provider
func (h *AuthHandler) OAuthLogin(c *gin.Context) {
	state, err := utils.OAuthState()
	if err != nil {
		response.ServerError(c, err)
		return
	}
	target, err := h.oauthService.AuthCodeURL(c.Param("provider"), state)
	if err != nil {
		handleError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthStateMaxAge, "/api/auth", "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusTemporaryRedirect, target)
}

// OAuthCallback finishes the provider flow and hands the access token to
// the frontend. Failures are reported to the frontend the same way.
// GET /api/auth/callback/:provider
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	provider := c.Param("provider")

	expected, _ := c.Cookie(oauthStateCookie)
	c.SetCookie(oauthStateCookie, "", -1, "/api/auth", "", c.Request.TLS != nil, true)
	if expected == "" || c.Query("state") != expected {
		h.redirectError(c, "invalid_state")
		return
	}
	if errParam := c.Query("error"); errParam != "" {
		h.redirectError(c, errParam)
		return
	}
	code := c.Query("code")
	if code == "" {
		h.redirectError(c, "missing_code")
		return
	}

	identity, err := h.oauthService.Exchange(c.Request.Context(), provider, code)
	if err != nil {
		logger.Warn().Err(err).Str("provider", provider).Msg("[Auth] oauth exchange failed")
		h.redirectError(c, "oauth_failed")
		return
	}
	result, err := h.authService.LoginWithIdentity(identity, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		logger.Warn().Err(err).Str("provider", provider).Msg("[Auth] oauth login failed")
		h.redirectError(c, "login_failed")
		return
	}

	q := url.Values{}
	q.Set("token", result.AccessToken)
	q.Set("refresh_token", result.RefreshToken)
	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/auth/callback?"+q.Encode())
}

func (h *AuthHandler) redirectError(c *gin.Context, reason string) {
	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/auth/callback?error="+url.QueryEscape(reason))
}

// POST /api/auth/firebase/verify
func (h *AuthHandler) FirebaseVerify(c *gin.Context) {
	var req services.FirebaseVerifyRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.authService.VerifyFirebase(&req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, loginResponse(result))
}

// GetCurrentUser returns the current logged-in user
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.authService.GetUserByID(middleware.GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, user)
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.authService.Refresh(req.RefreshToken, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, tokenResponse{
		AccessToken:      result.AccessToken,
		TokenType:        "bearer",
		ExpiresAt:        result.AccessExpireAt,
		RefreshToken:     result.RefreshToken,
		RefreshExpiresAt: result.RefreshExpireAt,
	})
}

// Logout revokes the presented refresh token; the access token simply expires.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req logoutRequest
	_ = c.ShouldBindJSON(&req)
	if err := h.authService.RevokeRefreshToken(req.RefreshToken); err != nil {
		handleError(c, err)
		return
	}
	response.Message(c, "logged out successfully")
}
