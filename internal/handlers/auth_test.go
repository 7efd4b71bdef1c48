package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/sanapath/sanapath/pkg/response"
	"github.com/stretchr/testify/require"
)

func TestAuth_RegisterLoginMe(t *testing.T) {
	s := newTestServer(t)
	creds := map[string]string{"email": "New@Example.com", "password": "s3cret-pass", "name": "New Student"}

	w := s.do(http.MethodPost, "/api/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var reg tokenResponse
	decode(t, w, &reg)
	require.NotEmpty(t, reg.AccessToken)
	require.NotEmpty(t, reg.RefreshToken)
	require.Equal(t, "bearer", reg.TokenType)
	require.Equal(t, "new@example.com", reg.User.Email)

	requireError(t, s.do(http.MethodPost, "/api/auth/register", "", creds), http.StatusConflict, response.CodeConflict)

	resp := requireError(t, s.do(http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": "new@example.com", "password": "wrong-pass"}), http.StatusUnauthorized, response.CodeAuth)
	require.Equal(t, "Incorrect email or password", resp.Message)

	w = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "new@example.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, w.Code)
	var login tokenResponse
	decode(t, w, &login)

	w = s.do(http.MethodGet, "/api/auth/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"email":"new@example.com"`)
	require.NotContains(t, w.Body.String(), "password")

	requireError(t, s.do(http.MethodPost, "/api/auth/register", "",
		map[string]string{"email": "bad", "password": "short"}), http.StatusUnprocessableEntity, response.CodeValidation)
}

func TestAuth_RefreshAndLogout(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/api/auth/demo/login", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login tokenResponse
	decode(t, w, &login)
	require.Equal(t, "demo", login.User.Provider)

	w = s.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": login.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var refreshed tokenResponse
	decode(t, w, &refreshed)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	require.Nil(t, refreshed.User)

	// the rotated token is spent
	requireError(t, s.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": login.RefreshToken}),
		http.StatusUnauthorized, response.CodeAuth)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/auth/logout", "",
		map[string]string{"refresh_token": refreshed.RefreshToken}).Code)
	requireError(t, s.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": refreshed.RefreshToken}),
		http.StatusUnauthorized, response.CodeAuth)
	requireError(t, s.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": "nope"}),
		http.StatusUnauthorized, response.CodeAuth)
}

func TestAuth_FirebaseVerify(t *testing.T) {
	s := newTestServer(t)
	body := map[string]string{"token": "id-token", "uid": "fb-1", "email": "fb@example.com", "name": "Fire Base"}

	w := s.do(http.MethodPost, "/api/auth/firebase/verify", "", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var first tokenResponse
	decode(t, w, &first)
	require.Equal(t, "firebase", first.User.Provider)

	var second tokenResponse
	decode(t, s.do(http.MethodPost, "/api/auth/firebase/verify", "", body), &second)
	require.Equal(t, first.User.ID, second.User.ID)

	requireError(t, s.do(http.MethodPost, "/api/auth/firebase/verify", "", map[string]string{"email": "fb@example.com"}),
		http.StatusUnprocessableEntity, response.CodeValidation)
}

func TestAuth_StatusAndProviders(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/auth/demo/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"demo_mode":true,"demo_login_enabled":true}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/auth/providers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"github":true,"google":false,"firebase":true,"email":true,"demo":true}`, w.Body.String())
}

func TestAuth_OAuthLoginSetsState(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/auth/login/github", "", nil)

	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "github.com", loc.Host)
	require.Equal(t, "http://api.test/api/auth/callback/github", loc.Query().Get("redirect_uri"))

	var state string
	for _, c := range w.Result().Cookies() {
		if c.Name == oauthStateCookie {
			state = c.Value
			require.True(t, c.HttpOnly)
		}
	}
	require.NotEmpty(t, state)
	require.Equal(t, state, loc.Query().Get("state"))

	requireError(t, s.do(http.MethodGet, "/api/auth/login/google", "", nil), http.StatusBadRequest, response.CodeBadRequest)
	requireError(t, s.do(http.MethodGet, "/api/auth/login/myspace", "", nil), http.StatusBadRequest, response.CodeBadRequest)
}

func TestAuth_OAuthCallbackRejectsBadState(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		cookie string
		query  string
		reason string
	}{
		{"no cookie", "", "state=abc&code=x", "invalid_state"},
		{"mismatch", "abc", "state=xyz&code=x", "invalid_state"},
		{"provider error", "abc", "state=abc&error=access_denied", "access_denied"},
		{"no code", "abc", "state=abc", "missing_code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/callback/github?"+tt.query, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)

			require.Equal(t, http.StatusTemporaryRedirect, w.Code)
			loc := w.Header().Get("Location")
			require.True(t, strings.HasPrefix(loc, "http://app.test/auth/callback?"), loc)
			require.Contains(t, loc, "error="+tt.reason)
		})
	}
}
