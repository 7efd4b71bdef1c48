package main

import (
	"github.com/sanapath/sanapath/internal/config"
	"github.com/sanapath/sanapath/internal/handlers"
	"github.com/sanapath/sanapath/internal/models"
	"github.com/sanapath/sanapath/internal/services"
	"github.com/sanapath/sanapath/internal/utils"
	"github.com/sanapath/sanapath/internal/validation"
	"github.com/sanapath/sanapath/pkg/logger"
)

// appServices holds all initialized handlers needed by the router.
type appServices struct {
	cfg *config.Config

	healthHandler    *handlers.HealthHandler
	surveyHandler    *handlers.SurveyHandler
	communityHandler *handlers.CommunityHandler
	projectHandler   *handlers.ProjectHandler
	userHandler      *handlers.UserHandler
	authHandler      *handlers.AuthHandler
	aiUsageHandler   *handlers.AIUsageHandler
}

// bootstrap initializes all application dependencies: database, validators, services.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := validation.RegisterWithGin(); err != nil {
		logger.Fatalf("Failed to register validators: %v", err)
	}

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	db := models.GetDB()

	services.InitSystemLogger(db)
	handlers.RegisterDBGauges(db)

	usage := services.NewAIUsageService(db)
	engine := services.NewRecommendationService(&cfg.AI, usage)
	if engine.DemoMode() {
		logger.Info().Msg("Demo mode: recommendations come from the template catalog")
	} else {
		logger.Info().Strs("providers", engine.ActiveProviders()).Msg("Recommendation providers configured")
	}

	progress := services.NewProgressService(db)
	authService := services.NewAuthService(db, &cfg.JWT, &cfg.Demo)
	oauthService := services.NewOAuthService(&cfg.OAuth, cfg.Server.BackendURL)

	return &appServices{
		cfg:              cfg,
		healthHandler:    handlers.NewHealthHandler(db, engine),
		surveyHandler:    handlers.NewSurveyHandler(services.NewSurveyService(db, engine)),
		communityHandler: handlers.NewCommunityHandler(services.NewCommunityService(db, progress)),
		projectHandler:   handlers.NewProjectHandler(services.NewUserProjectService(db, progress)),
		userHandler: handlers.NewUserHandler(
			services.NewUserService(db, progress),
			progress,
			services.NewSystemLogService(db),
		),
		authHandler:    handlers.NewAuthHandler(authService, oauthService, cfg.Server.FrontendURL, engine.DemoMode()),
		aiUsageHandler: handlers.NewAIUsageHandler(usage, engine),
	}
}

// shutdown releases the database connection pool.
func (s *appServices) shutdown() {
	if db := models.GetDB(); db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	logger.Info().Msg("Database connections closed")
}
