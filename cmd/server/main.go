package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campusbooks/bookcycle-backend/internal/cache"
	"github.com/campusbooks/bookcycle-backend/internal/config"
	"github.com/campusbooks/bookcycle-backend/internal/db"
	httpHandlers "github.com/campusbooks/bookcycle-backend/internal/http/handlers"
	httpRouter "github.com/campusbooks/bookcycle-backend/internal/http/router"
	"github.com/campusbooks/bookcycle-backend/internal/logger"
	"github.com/campusbooks/bookcycle-backend/internal/repository"
	"github.com/campusbooks/bookcycle-backend/internal/service"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Сессионный кэш. В production без Redis не стартуем: на нём держится
	// отзыв токенов. В development падаем обратно на кэш в памяти.
	var sessionCache cache.Cache
	redisCache, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		if cfg.Env == "production" {
			log.Fatalf("main: ошибка подключения к Redis: %v", err)
		}
		log.Printf("main: Redis недоступен, используется кэш в памяти: %v", err)
		sessionCache = cache.NewMemory()
	} else {
		sessionCache = redisCache
		defer redisCache.Close()
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	studentRepo := repository.NewStudentRepository(dbConn)
	collectorRepo := repository.NewCollectorRepository(dbConn)
	sealedBookRepo := repository.NewSealedBookRepository(dbConn)
	orderRepo := repository.NewOrderRepository(dbConn)
	reportRepo := repository.NewReportRepository(dbConn)

	// Сервисы.
	tokenService := service.NewTokenService(sessionCache, cfg.JWTSecret, cfg.TokenTTL)
	reputationService := service.NewReputationService(studentRepo, tokenService, sessionCache)
	reportService := service.NewReportService(reportRepo, reputationService)
	orderService := service.NewOrderService(orderRepo, sealedBookRepo, sessionCache)
	sealedBookService := service.NewSealedBookService(sealedBookRepo)
	authService := service.NewAuthService(userRepo, studentRepo, collectorRepo, tokenService)
	profileDirectory := service.NewProfileDirectory(studentRepo, collectorRepo, sessionCache)

	// Учётная запись администратора создаётся на старте из окружения.
	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatalf("main: ошибка создания администратора: %v", err)
		}
	} else {
		log.Printf("main: ADMIN_USERNAME/ADMIN_PASSWORD не заданы, администратор не создаётся")
	}

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	studentHandler := httpHandlers.NewStudentHandler(sealedBookService, orderService, reportService, reputationService, profileDirectory)
	collectorHandler := httpHandlers.NewCollectorHandler(orderService, profileDirectory)
	adminHandler := httpHandlers.NewAdminHandler(reportService, reputationService)
	healthHandler := httpHandlers.NewHealthHandler(dbConn, sessionCache)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, studentHandler, collectorHandler, adminHandler, healthHandler, tokenService, profileDirectory, reputationService)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
