package services

import (
	"errors"
	"strings"
	"time"

	"github.com/sanapath/sanapath/internal/config"
	"github.com/sanapath/sanapath/internal/models"
	"github.com/sanapath/sanapath/internal/utils"
	"github.com/sanapath/sanapath/pkg/logger"
	"gorm.io/gorm"
)

const (
	defaultDemoEmail = "demo@sanapath.ai"
	defaultDemoName  = "Demo Student"
)

type AuthService struct {
	db        *gorm.DB
	jwtConfig *config.JWTConfig
	demo      *config.DemoConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig, demoCfg *config.DemoConfig) *AuthService {
	return &AuthService{db: db, jwtConfig: jwtCfg, demo: demoCfg}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type DemoLoginRequest struct {
	Email string `json:"email" binding:"omitempty,email,max=255"`
	Name  string `json:"name" binding:"max=100"`
}

// FirebaseVerifyRequest carries an identity already verified by the
// frontend's Firebase broker.
type FirebaseVerifyRequest struct {
	Token     string `json:"token" binding:"required"`
	UID       string `json:"uid"`
	Email     string `json:"email" binding:"required,email,max=255"`
	Name      string `json:"name" binding:"max=100"`
	AvatarURL string `json:"avatar_url" binding:"omitempty,url,max=500"`
	Provider  string `json:"provider"`
}

// Identity is a user as described by an external identity provider.
type Identity struct {
	Provider   string
	ProviderID string
	Email      string
	Name       string
	AvatarURL  string
}

type LoginResult struct {
	AccessToken     string
	AccessExpireAt  time.Time
	RefreshToken    string
	RefreshExpireAt time.Time
	User            *models.User
}

type RefreshResult struct {
	AccessToken     string
	AccessExpireAt  time.Time
	RefreshToken    string
	RefreshExpireAt time.Time
}

// DemoLoginEnabled reports whether password-less demo login is allowed.
func (s *AuthService) DemoLoginEnabled() bool {
	return s.demo != nil && s.demo.LoginEnabled
}

// Register creates a local account and signs it in.
func (s *AuthService) Register(req *RegisterRequest, clientIP, userAgent string) (*LoginResult, error) {
	email := normalizeEmail(req.Email)

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:    email,
		Password: hashed,
		Name:     strings.TrimSpace(req.Name),
		Provider: models.ProviderLocal,
		IsActive: true,
	}
	if err := s.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	logger.Info().Uint("user_id", user.ID).Msg("[Auth] user registered")
	return s.issue(user, clientIP, userAgent)
}

// Login authenticates an email/password account.
func (s *AuthService) Login(req *LoginRequest, clientIP, userAgent string) (*LoginResult, error) {
	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.Password == "" {
		return nil, ErrPasswordLogin
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}
	return s.issue(&user, clientIP, userAgent)
}

// DemoLogin signs in a password-less demo account, creating it on first use.
// It never signs in as an account owned by another provider.
func (s *AuthService) DemoLogin(req *DemoLoginRequest, clientIP, userAgent string) (*LoginResult, error) {
	if !s.DemoLoginEnabled() {
		return nil, ErrDemoDisabled
	}

	email := normalizeEmail(req.Email)
	if email == "" {
		email = defaultDemoEmail
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = defaultDemoName
	}

	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Email:      email,
			Name:       name,
			Provider:   models.ProviderDemo,
			ProviderID: email,
			IsActive:   true,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case user.Provider != models.ProviderDemo:
		return nil, ErrEmailTaken
	}

	if !user.IsActive {
		return nil, ErrUserDisabled
	}
	return s.issue(&user, clientIP, userAgent)
}

// LoginWithIdentity finds the user by provider id, else links an existing
// account with the same email, else creates one.
func (s *AuthService) LoginWithIdentity(id *Identity, clientIP, userAgent string) (*LoginResult, error) {
	email := normalizeEmail(id.Email)
	if email == "" {
		return nil, ErrOAuthNoEmail
	}

	var user models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("provider = ? AND provider_id = ?", id.Provider, id.ProviderID).First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		err = tx.Where("email = ?", email).First(&user).Error
		if err == nil {
			logger.Info().Uint("user_id", user.ID).Str("provider", id.Provider).Msg("[Auth] linking account")
			updates := map[string]interface{}{
				"provider":    id.Provider,
				"provider_id": id.ProviderID,
			}
			if id.AvatarURL != "" {
				updates["avatar_url"] = id.AvatarURL
			}
			if user.Name == "" && id.Name != "" {
				updates["name"] = id.Name
			}
			return tx.Model(&user).Updates(updates).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		user = models.User{
			Email:      email,
			Name:       truncate(id.Name, 100),
			AvatarURL:  truncate(id.AvatarURL, 500),
			Provider:   id.Provider,
			ProviderID: id.ProviderID,
			IsActive:   true,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}
	return s.issue(&user, clientIP, userAgent)
}

// VerifyFirebase signs in an identity forwarded by the Firebase broker.
func (s *AuthService) VerifyFirebase(req *FirebaseVerifyRequest, clientIP, userAgent string) (*LoginResult, error) {
	provider := models.ProviderFirebase
	switch strings.ToLower(req.Provider) {
	case models.ProviderGoogle, models.ProviderGitHub:
		provider = strings.ToLower(req.Provider)
	}
	providerID := req.UID
	if providerID == "" {
		providerID = normalizeEmail(req.Email)
	}
	return s.LoginWithIdentity(&Identity{
		Provider:   provider,
		ProviderID: providerID,
		Email:      req.Email,
		Name:       req.Name,
		AvatarURL:  req.AvatarURL,
	}, clientIP, userAgent)
}

func (s *AuthService) issue(user *models.User, clientIP, userAgent string) (*LoginResult, error) {
	accessHours := s.accessTokenExpireHours()
	token, err := utils.GenerateToken(user.ID, user.Email, user.Provider, accessHours)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshRecord, err := s.newRefreshToken(user.ID, clientIP, userAgent)
	if err != nil {
		return nil, err
	}
	if err := s.db.Create(refreshRecord).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.db.Model(user).Update("last_login", now).Error; err != nil {
		logger.Warn().Err(err).Uint("user_id", user.ID).Msg("[Auth] failed to update last login")
	}

	return &LoginResult{
		AccessToken:     token,
		AccessExpireAt:  now.Add(time.Duration(accessHours) * time.Hour),
		RefreshToken:    refreshToken,
		RefreshExpireAt: refreshRecord.ExpiresAt,
		User:            user,
	}, nil
}

// Refresh exchanges a refresh token for a new access token and rotates the
// refresh token. The old token is revoked.
func (s *AuthService) Refresh(refreshToken string, clientIP, userAgent string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	var stored models.RefreshToken
	if err := s.db.Where("token_hash = ?", utils.SHA256Hex(refreshToken)).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	now := time.Now()
	if !stored.Usable(now) {
		return nil, ErrRefreshTokenExpired
	}

	user, err := s.GetUserByID(stored.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	accessHours := s.accessTokenExpireHours()
	newAccessToken, err := utils.GenerateToken(user.ID, user.Email, user.Provider, accessHours)
	if err != nil {
		return nil, err
	}
	newRefreshToken, newRefresh, err := s.newRefreshToken(user.ID, clientIP, userAgent)
	if err != nil {
		return nil, err
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(newRefresh).Error; err != nil {
			return err
		}
		res := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked_at IS NULL", stored.ID).
			Updates(map[string]interface{}{
				"revoked_at":           now,
				"replaced_by_token_id": newRefresh.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// lost a race with another refresh of the same token
			return ErrRefreshTokenExpired
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return &RefreshResult{
		AccessToken:     newAccessToken,
		AccessExpireAt:  now.Add(time.Duration(accessHours) * time.Hour),
		RefreshToken:    newRefreshToken,
		RefreshExpireAt: newRefresh.ExpiresAt,
	}, nil
}

func (s *AuthService) RevokeRefreshToken(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", utils.SHA256Hex(refreshToken)).
		Update("revoked_at", time.Now()).Error
}

func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) newRefreshToken(userID uint, clientIP, userAgent string) (string, *models.RefreshToken, error) {
	token, err := utils.RandomToken(32)
	if err != nil {
		return "", nil, err
	}
	return token, &models.RefreshToken{
		UserID:      userID,
		TokenHash:   utils.SHA256Hex(token),
		ExpiresAt:   time.Now().Add(time.Duration(s.refreshTokenExpireHours()) * time.Hour),
		CreatedByIP: truncate(clientIP, 64),
		UserAgent:   truncate(userAgent, 255),
	}, nil
}

func (s *AuthService) accessTokenExpireHours() int {
	if s.jwtConfig == nil || s.jwtConfig.ExpireHour <= 0 {
		return 168
	}
	return s.jwtConfig.ExpireHour
}

func (s *AuthService) refreshTokenExpireHours() int {
	if s.jwtConfig == nil || s.jwtConfig.RefreshExpireHour <= 0 {
		return 720
	}
	return s.jwtConfig.RefreshExpireHour
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
