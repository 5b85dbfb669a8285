package api

import (
	"log/slog"

	"kidsafe/internal/api/handlers"
	"kidsafe/internal/api/middleware"
	"kidsafe/internal/auth"
	"kidsafe/internal/core"
	"kidsafe/internal/insights"
	"kidsafe/internal/notify"
	"kidsafe/internal/otp"
	"kidsafe/internal/storage"

	"github.com/gin-gonic/gin"
)

// RouterConfig holds dependencies for the API router
type RouterConfig struct {
	Storage        storage.Storage
	Calculator     *core.DashboardCalculator
	OTPStore       *otp.Store
	Tokens         *auth.Tokens
	Mailer         handlers.OTPMailer
	Notifier       *notify.Notifier
	Insights       *insights.Provider
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter creates and configures the Gin router
func NewRouter(config RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(config.Logger))
	router.Use(middleware.Logging(config.Logger))
	router.Use(middleware.CORS(config.AllowedOrigins))
	router.Use(middleware.ContentType())

	// Health check (no auth)
	healthHandler := handlers.NewHealthHandler()
	router.GET("/health", healthHandler.GetHealth)

	authHandler := handlers.NewAuthHandler(
		config.Storage,
		config.OTPStore,
		config.Tokens,
		config.Mailer,
		config.Logger,
	)

	// Public auth endpoints
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/child-login", authHandler.ChildLogin)
		authGroup.POST("/send-otp", authHandler.SendOTP)
		authGroup.POST("/verify-otp", authHandler.VerifyOTP)
		authGroup.GET("/profile", middleware.Auth(config.Tokens), authHandler.GetProfile)
	}

	authed := middleware.Auth(config.Tokens)

	// Child profile management
	childrenHandler := handlers.NewChildrenHandler(
		config.Storage,
		config.Notifier,
		config.Logger,
	)
	profile := router.Group("/profile", authed)
	{
		profile.GET("/children", childrenHandler.ListChildren)
		profile.POST("/children", childrenHandler.CreateChild)
		profile.GET("/children/:id", childrenHandler.GetChild)
		profile.PATCH("/children/:id", childrenHandler.UpdateChild)
		profile.DELETE("/children/:id", childrenHandler.DeleteChild)
		profile.POST("/children/:id/device-token", childrenHandler.RegisterDeviceToken)
	}

	// Activity ingestion and querying
	activitiesHandler := handlers.NewActivitiesHandler(
		config.Storage,
		config.Calculator,
		config.Notifier,
		config.Logger,
	)
	activity := router.Group("/activity", authed)
	{
		activity.POST("", activitiesHandler.CreateActivity)
		activity.POST("/batch", activitiesHandler.CreateActivitiesBatch)
		activity.GET("/child/:id", activitiesHandler.ListActivities)
		activity.GET("/child/:id/summary", activitiesHandler.GetSummary)
		activity.GET("/child/:id/time-series", activitiesHandler.GetTimeSeries)
	}

	// Parent dashboard
	dashboardHandler := handlers.NewDashboardHandler(
		config.Storage,
		config.Calculator,
		config.Insights,
		config.Logger,
	)
	dashboard := router.Group("/dashboard", authed)
	{
		dashboard.GET("/child/:id/stats", dashboardHandler.GetChildStats)
		dashboard.GET("/child/:id/weekly", dashboardHandler.GetWeeklyData)
		dashboard.GET("/child/:id/ai-insights", dashboardHandler.GetAiInsights)
		dashboard.POST("/activity", activitiesHandler.CreateActivity)
	}

	return router
}
