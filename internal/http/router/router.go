package router

import (
	"github.com/gin-gonic/gin"

	"github.com/campusbooks/bookcycle-backend/internal/config"
	"github.com/campusbooks/bookcycle-backend/internal/http/handlers"
	"github.com/campusbooks/bookcycle-backend/internal/http/middleware"
	"github.com/campusbooks/bookcycle-backend/internal/models"
	"github.com/campusbooks/bookcycle-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	studentHandler *handlers.StudentHandler,
	collectorHandler *handlers.CollectorHandler,
	adminHandler *handlers.AdminHandler,
	healthHandler *handlers.HealthHandler,
	tokens *service.TokenService,
	profiles *service.ProfileDirectory,
	reputation *service.ReputationService,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register/student", authHandler.RegisterStudent)
		authGroup.POST("/register/collector", authHandler.RegisterCollector)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	protectedAuth := api.Group("/auth")
	protectedAuth.Use(middleware.AuthMiddleware(tokens))
	{
		protectedAuth.POST("/logout", authHandler.Logout)
	}

	// Операции студента. Заблокированный аккаунт не проходит дальше
	// middleware независимо от валидности токена.
	student := api.Group("/student")
	student.Use(middleware.AuthMiddleware(tokens))
	student.Use(middleware.RequireRole(models.RoleStudent))
	student.Use(middleware.RequireActiveStudent(profiles, reputation))
	{
		student.POST("/sealed-books", studentHandler.AddSealedBook)
		student.GET("/sealed-books", studentHandler.ListSealedBooks)
		student.POST("/orders", studentHandler.CreateOrder)
		student.GET("/orders", studentHandler.ListMyOrders)
		student.POST("/reports", studentHandler.SubmitReport)
		student.GET("/reputation", studentHandler.GetReputation)
		student.GET("/reputation/history", studentHandler.GetReputationHistory)
		student.GET("/profile", studentHandler.GetProfile)
		student.PUT("/profile", studentHandler.UpdateProfile)
	}

	collector := api.Group("/collector")
	collector.Use(middleware.AuthMiddleware(tokens))
	collector.Use(middleware.RequireRole(models.RoleCollector))
	collector.Use(middleware.RequireCollector(profiles))
	{
		collector.GET("/orders/pending", collectorHandler.ListPendingOrders)
		collector.GET("/orders", collectorHandler.ListMyOrders)
		collector.POST("/orders/:id/accept", middleware.UUIDValidator("id"), collectorHandler.AcceptOrder)
		collector.POST("/orders/:id/complete", middleware.UUIDValidator("id"), collectorHandler.CompleteOrder)
		collector.GET("/profile", collectorHandler.GetProfile)
		collector.PUT("/profile", collectorHandler.UpdateContact)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokens))
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/reports", adminHandler.ListReports)
		admin.GET("/reports/:id", middleware.UUIDValidator("id"), adminHandler.GetReport)
		admin.POST("/reports/:id/handle", middleware.UUIDValidator("id"), adminHandler.HandleReport)
		admin.POST("/reports/:id/revert", middleware.UUIDValidator("id"), adminHandler.RevertReport)
		admin.POST("/reports/batch", adminHandler.BatchHandleReports)
		admin.POST("/students/:studentId/reputation/deduct", adminHandler.DeductReputation)
		admin.POST("/students/:studentId/reputation/increase", adminHandler.IncreaseReputation)
		admin.POST("/students/:studentId/suspend", adminHandler.SuspendStudent)
		admin.POST("/students/:studentId/reinstate", adminHandler.ReinstateStudent)
	}

	return r
}
