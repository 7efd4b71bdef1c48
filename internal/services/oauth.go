package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sanapath/sanapath/internal/config"
	"github.com/sanapath/sanapath/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

const (
	defaultGitHubAPI      = "https://api.github.com"
	defaultGoogleUserInfo = "https://www.googleapis.com/oauth2/v3/userinfo"
)

// OAuthService runs the authorization-code flow for GitHub and Google.
type OAuthService struct {
	configs map[string]*oauth2.Config

	githubAPI      string
	googleUserInfo string
}

// NewOAuthService registers every provider with a client id and secret.
// Callbacks go to <backendURL>/api/auth/callback/<provider>.
func NewOAuthService(cfg *config.OAuthConfig, backendURL string) *OAuthService {
	s := &OAuthService{
		configs:        make(map[string]*oauth2.Config),
		githubAPI:      defaultGitHubAPI,
		googleUserInfo: defaultGoogleUserInfo,
	}
	base := strings.TrimRight(backendURL, "/")
	if cfg.GitHub.Enabled() {
		s.configs[models.ProviderGitHub] = &oauth2.Config{
			ClientID:     cfg.GitHub.ClientID,
			ClientSecret: cfg.GitHub.ClientSecret,
			Endpoint:     github.Endpoint,
			RedirectURL:  base + "/api/auth/callback/github",
			Scopes:       []string{"user:email"},
		}
	}
	if cfg.Google.Enabled() {
		s.configs[models.ProviderGoogle] = &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  base + "/api/auth/callback/google",
			Scopes:       []string{"openid", "email", "profile"},
		}
	}
	return s
}

// Providers reports which OAuth providers are configured.
func (s *OAuthService) Providers() map[string]bool {
	return map[string]bool{
		models.ProviderGitHub: s.configs[models.ProviderGitHub] != nil,
		models.ProviderGoogle: s.configs[models.ProviderGoogle] != nil,
	}
}

func (s *OAuthService) config(provider string) (*oauth2.Config, error) {
	switch provider {
	case models.ProviderGitHub, models.ProviderGoogle:
	default:
		return nil, ErrOAuthProviderUnknown
	}
	cfg, ok := s.configs[provider]
	if !ok {
		return nil, ErrOAuthProviderNotConfigured
	}
	return cfg, nil
}

// AuthCodeURL is the provider consent page the browser is redirected to.
func (s *OAuthService) AuthCodeURL(provider, state string) (string, error) {
	cfg, err := s.config(provider)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state), nil
}

// Exchange trades the callback code for a token and fetches the identity.
func (s *OAuthService) Exchange(ctx context.Context, provider, code string) (*Identity, error) {
	cfg, err := s.config(provider)
	if err != nil {
		return nil, err
	}
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth exchange: %w", err)
	}
	client := cfg.Client(ctx, token)

	switch provider {
	case models.ProviderGitHub:
		return s.githubIdentity(ctx, client)
	default:
		return s.googleIdentity(ctx, client)
	}
}

func (s *OAuthService) githubIdentity(ctx context.Context, client *http.Client) (*Identity, error) {
	var u struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(ctx, client, s.githubAPI+"/user", &u); err != nil {
		return nil, err
	}
	if u.ID == 0 {
		return nil, fmt.Errorf("github user has no id")
	}
	id := strconv.FormatInt(u.ID, 10)

	email := u.Email
	if email == "" {
		// private address; ask the emails endpoint for the primary one
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := getJSON(ctx, client, s.githubAPI+"/user/emails", &emails); err == nil {
			for _, e := range emails {
				if e.Primary {
					email = e.Email
					break
				}
			}
		}
	}
	if email == "" {
		email = id + "@github.local"
	}

	name := u.Name
	if name == "" {
		name = u.Login
	}
	return &Identity{
		Provider:   models.ProviderGitHub,
		ProviderID: id,
		Email:      email,
		Name:       name,
		AvatarURL:  u.AvatarURL,
	}, nil
}

func (s *OAuthService) googleIdentity(ctx context.Context, client *http.Client) (*Identity, error) {
	var u struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := getJSON(ctx, client, s.googleUserInfo, &u); err != nil {
		return nil, err
	}
	if u.Sub == "" {
		return nil, fmt.Errorf("google user has no subject")
	}
	if u.Email == "" {
		return nil, ErrOAuthNoEmail
	}
	return &Identity{
		Provider:   models.ProviderGoogle,
		ProviderID: u.Sub,
		Email:      u.Email,
		Name:       u.Name,
		AvatarURL:  u.Picture,
	}, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
