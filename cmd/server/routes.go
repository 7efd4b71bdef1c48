package main

import (
	"github.com/gin-gonic/gin"
	"github.com/sanapath/sanapath/internal/handlers"
	"github.com/sanapath/sanapath/internal/metrics"
	"github.com/sanapath/sanapath/internal/middleware"
	"github.com/sanapath/sanapath/pkg/logger"
	"github.com/sanapath/sanapath/pkg/response"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery(), metrics.GinMiddleware())
	r.Use(middleware.CORS(svc.cfg.Server.CORSOrigins))

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "Not found")
	})

	aiLimiter := middleware.NewRateLimiter(svc.cfg.AI.RateLimitRPS, svc.cfg.AI.RateLimitBurst)
	authLimiter := middleware.NewRateLimiter(1, 10)

	r.GET("/", svc.healthHandler.Root)
	r.GET("/health", svc.healthHandler.CheckHealth)
	r.GET("/metrics", handlers.Metrics)

	api := r.Group("/api")
	{
		// Survey (public, signed-in callers get history)
		survey := api.Group("/survey")
		{
			survey.GET("/questions", svc.surveyHandler.Questions)
			survey.POST("/submit", middleware.OptionalAuth(), aiLimiter.Middleware(), svc.surveyHandler.Submit)
			survey.GET("/recommendations", middleware.AuthRequired(), svc.surveyHandler.History)
		}

		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.GET("/providers", svc.authHandler.Providers)
			auth.GET("/demo/status", svc.authHandler.DemoStatus)
			auth.GET("/login/:provider", svc.authHandler.OAuthLogin)
			auth.GET("/callback/:provider", svc.authHandler.OAuthCallback)
			auth.POST("/logout", svc.authHandler.Logout)

			limited := auth.Group("", authLimiter.Middleware())
			limited.POST("/register", svc.authHandler.Register)
			limited.POST("/login", svc.authHandler.Login)
			limited.POST("/demo/login", svc.authHandler.DemoLogin)
			limited.POST("/firebase/verify", svc.authHandler.FirebaseVerify)
			limited.POST("/refresh", svc.authHandler.Refresh)
		}

		// Community board reads are public
		community := api.Group("/community")
		{
			community.GET("/projects", svc.communityHandler.List)
			community.GET("/projects/:uuid", svc.communityHandler.Get)
			community.GET("/projects/:uuid/members", svc.communityHandler.Members)
			community.POST("/linkedin-post", svc.communityHandler.LinkedInPost)
		}

		api.GET("/users/leaderboard", svc.userHandler.Leaderboard)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog())
		{
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.GET("/ai/usage", svc.aiUsageHandler.GetUsage)

			// Community
			protected.POST("/community/projects", svc.communityHandler.Publish)
			protected.POST("/community/publish", svc.communityHandler.Publish)
			protected.POST("/community/projects/:uuid/join", svc.communityHandler.Join)
			protected.POST("/community/projects/:uuid/leave", svc.communityHandler.Leave)
			protected.DELETE("/community/projects/:uuid", svc.communityHandler.Delete)
			protected.PATCH("/community/projects/:uuid/settings", svc.communityHandler.UpdateSettings)
			protected.GET("/community/my-projects", svc.communityHandler.Owned)

			// User projects
			protected.POST("/projects/start", svc.projectHandler.Start)
			protected.GET("/projects/my-projects", svc.projectHandler.List)
			protected.GET("/projects/:uuid", svc.projectHandler.Get)
			protected.PATCH("/projects/:uuid", svc.projectHandler.Update)
			protected.DELETE("/projects/:uuid", svc.projectHandler.Delete)
			protected.POST("/projects/:uuid/complete-task", svc.projectHandler.CompleteTask)

			// Users
			me := protected.Group("/users/me")
			me.GET("/profile", svc.userHandler.GetProfile)
			me.PUT("/profile", svc.userHandler.UpdateProfile)
			me.GET("/stats", svc.userHandler.GetStats)
			me.PUT("/stats", svc.userHandler.SetStats)
			me.GET("/activity", svc.userHandler.Activity)
			me.POST("/activity", svc.userHandler.RecordActivity)
			me.GET("/achievements", svc.userHandler.Achievements)
			me.POST("/achievements/:id/unlock", svc.userHandler.UnlockAchievement)
			me.GET("/settings", svc.userHandler.GetSettings)
			me.PUT("/settings", svc.userHandler.SaveSettings)
		}
	}
}
