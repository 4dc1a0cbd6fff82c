package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/handler"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/llm"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/middleware"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/service"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/pkg/config"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/pkg/database"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/pkg/jwtutil"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/pkg/logger"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting emotion service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	if err := database.MigrateModels(
		&model.Tenant{},
		&model.User{},
		&model.UserProfile{},
		&model.Survey{},
		&model.SurveyResponse{},
		&model.EmotionConversation{},
		&model.EmotionAnalytics{},
		&model.ConversationAnalytics{},
	); err != nil {
		log.Fatal("Failed to migrate database models", zap.Error(err))
	}
	log.Info("Database models migrated")

	// Outside production, make sure the default tenant exists so a fresh
	// install has something to register against.
	if cfg.Server.Env != "production" && cfg.Tenant.DefaultSubdomain != "" {
		defaultTenant := model.Tenant{
			Name:         "Development",
			Subdomain:    cfg.Tenant.DefaultSubdomain,
			Features:     model.DefaultFeatures(),
			Limits:       model.DefaultLimits(),
			Subscription: model.Subscription{Plan: model.PlanFree, Status: "active"},
			Active:       true,
		}
		if err := db.Where("subdomain = ?", cfg.Tenant.DefaultSubdomain).
			FirstOrCreate(&defaultTenant).Error; err != nil {
			log.Fatal("Failed to seed default tenant", zap.Error(err))
		}
	}

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)

	// Wire services
	llmClient := llm.NewClient(&cfg.LLM)
	extraction := service.NewExtractionService(llmClient, log)
	aggregator := service.NewAggregator(db, extraction, log)
	snapshots := service.NewEmotionSnapshotService(db, log)
	conversations := service.NewConversationService(db, extraction, aggregator, snapshots, log)
	surveys := service.NewSurveyService(db, extraction, log)
	dashboard := service.NewDashboardService(db, log)

	// Handlers
	authHandler := handler.NewAuthHandler(db)
	tenantHandler := handler.NewTenantHandler(db)
	conversationHandler := handler.NewConversationHandler(conversations)
	analyticsHandler := handler.NewConversationAnalyticsHandler(dashboard, aggregator, conversations)
	emotionHandler := handler.NewEmotionAnalyticsHandler(snapshots)
	surveyHandler := handler.NewSurveyHandler(db, surveys)

	// Middleware
	tenantResolver := middleware.NewTenantResolver(db, cfg.Server.Env, cfg.Tenant.DefaultSubdomain)
	authGate := middleware.NewAuthGate(db)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no tenant or authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Everything else is tenant-scoped
	tenanted := e.Group("", tenantResolver.Middleware())

	// Authentication routes - tenant-scoped but no token required
	auth := tenanted.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Feature gates per tenant
	conversationsEnabled := middleware.RequireFeature("emotion conversations",
		func(f model.FeatureToggles) bool { return f.EmotionConversations })
	surveysEnabled := middleware.RequireFeature("voice surveys",
		func(f model.FeatureToggles) bool { return f.VoiceSurveys })
	analyticsEnabled := middleware.RequireFeature("analytics",
		func(f model.FeatureToggles) bool { return f.Analytics })

	// Public survey submission - anonymous allowed, user attributed if present
	tenanted.POST("/api/surveys/:id/responses", surveyHandler.SubmitResponse, surveysEnabled, authGate.OptionalMiddleware())

	// API routes - all require authentication
	api := tenanted.Group("/api", authGate.Middleware())

	// Current user
	users := api.Group("/users")
	users.GET("/profile", authHandler.GetProfile)
	users.PATCH("/profile", authHandler.UpdateProfile)
	users.POST("/change-password", authHandler.ChangePassword)

	// Tenant management. Creating tenants is reserved for admins of an
	// existing tenant; the dev default tenant bootstraps a fresh install.
	tenants := api.Group("/tenants")
	tenants.POST("", tenantHandler.CreateTenant, middleware.RequireRole(model.RoleAdmin))
	tenants.GET("/current", tenantHandler.GetCurrentTenant)
	tenants.PATCH("/current/settings", tenantHandler.UpdateTenantSettings, middleware.RequireRole(model.RoleAdmin))

	// Emotion conversations
	convs := api.Group("/emotion-conversations", conversationsEnabled)
	convs.POST("/start", conversationHandler.Start)
	convs.GET("", conversationHandler.List)
	convs.GET("/:session_id", conversationHandler.Get)
	convs.POST("/:session_id/respond", conversationHandler.Respond)
	convs.POST("/:session_id/complete", conversationHandler.Complete)

	// Conversation analytics
	analytics := api.Group("/conversation-analytics", analyticsEnabled)
	analytics.GET("/dashboard", analyticsHandler.Dashboard, middleware.RequireRole(model.RoleAnalyst))
	analytics.GET("/user/:user_id", analyticsHandler.UserAnalytics)
	analytics.POST("/analyze/:conversation_id", analyticsHandler.Analyze, middleware.RequireRole(model.RoleManager))

	// Per-user emotion snapshots
	emotions := api.Group("/emotion-analytics", analyticsEnabled)
	emotions.GET("/overview", emotionHandler.Overview)
	emotions.GET("/trends", emotionHandler.Trends)
	emotions.GET("/insights", emotionHandler.Insights)
	emotions.GET("/heatmap", emotionHandler.Heatmap)

	// Surveys
	surveyRoutes := api.Group("/surveys", surveysEnabled)
	surveyRoutes.GET("", surveyHandler.List)
	surveyRoutes.GET("/:id", surveyHandler.Get)
	surveyRoutes.POST("", surveyHandler.Create, middleware.RequireRole(model.RoleManager))
	surveyRoutes.PUT("/:id", surveyHandler.Update, middleware.RequireRole(model.RoleManager))
	surveyRoutes.DELETE("/:id", surveyHandler.Delete, middleware.RequireRole(model.RoleManager))
	surveyRoutes.GET("/:id/responses", surveyHandler.ListResponses, middleware.RequireRole(model.RoleAnalyst))

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
