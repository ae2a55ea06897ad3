package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"jobportal_backend/internal/auth"
	"jobportal_backend/internal/config"
	"jobportal_backend/internal/esewa"
	"jobportal_backend/internal/handlers"
	"jobportal_backend/internal/logger"
	"jobportal_backend/internal/metrics"
	"jobportal_backend/internal/middleware"
	"jobportal_backend/internal/repositories"
	"jobportal_backend/internal/routes"
	"jobportal_backend/internal/services"
	"jobportal_backend/internal/validator"
	"jobportal_backend/internal/workers"
	"jobportal_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 15 * time.Second

// Application - собранное приложение: роутер, сервисы и фоновые задачи
type Application struct {
	Config   *config.Config
	DB       *gorm.DB
	Router   *gin.Engine
	Services *services.ServiceContainer
	Worker   *workers.SubscriptionWorker

	limiter *middleware.IPRateLimiter
}

// Run поднимает HTTP-сервер и воркеры, останавливается по SIGINT/SIGTERM
func Run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormDB, err := OpenDB(cfg)
	if err != nil {
		return err
	}

	application := New(cfg, gormDB, nil)
	return application.Serve(ctx)
}

// OpenDB подключается к PostgreSQL и проверяет соединение
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	logger.Info("Connecting to database...")

	gormConfig := &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
	if !cfg.IsDevelopment() {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}

	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get *sql.DB from GORM: %w", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database unavailable: %w", err)
	}

	logger.Info("Database connected")
	return gormDB, nil
}

// New собирает приложение. gateway == nil означает настоящий клиент eSewa.
func New(cfg *config.Config, gormDB *gorm.DB, gateway services.StatusChecker) *Application {
	apperrors.SetDebug(cfg.IsDevelopment())
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	if gateway == nil {
		gateway = esewa.NewClient(cfg.Esewa.StatusCheckURL, cfg.Esewa.StatusTimeout)
	}

	// 1. Репозитории и сервисы
	txRepo := repositories.NewTransactionRepository()
	serviceContainer := initializeServices(cfg, gateway, txRepo)

	// 2. Хэндлеры и middleware маршрутов
	appHandlers := initializeHandlers(cfg, serviceContainer)
	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	tokens := auth.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.TTLMinutes)*time.Minute)
	guards := handlers.Guards{
		Auth:               middleware.AuthMiddleware(tokens, cfg.JWT.CookieName),
		RateLimit:          limiter.Middleware(),
		ActiveSubscription: middleware.RequireActiveSubscription(serviceContainer.SubscriptionService),
	}

	// 3. Gin и маршруты
	ginRouter := initializeGinRouter(cfg, gormDB)
	routes.RegisterRoutes(ginRouter, appHandlers, guards, gormDB)

	worker := workers.NewSubscriptionWorker(
		gormDB,
		cfg.Workers,
		serviceContainer.SubscriptionService,
		serviceContainer.PaymentService,
		txRepo,
	)

	return &Application{
		Config:   cfg,
		DB:       gormDB,
		Router:   ginRouter,
		Services: serviceContainer,
		Worker:   worker,
		limiter:  limiter,
	}
}

// Serve блокируется до отмены ctx, затем корректно останавливает сервер и воркеры
func (a *Application) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.Config.Workers.Enabled {
		a.Worker.Start(ctx)
		logger.Info("Background workers started",
			"expiry_interval", a.Config.Workers.ExpiryInterval,
			"reconcile_interval", a.Config.Workers.ReconcileInterval,
		)
	}
	go a.limiter.RunCleanup(ctx, 10*time.Minute)

	srv := &http.Server{
		Addr:              a.Config.Addr(),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("🚀 Server starting on %s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server startup error: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	err := srv.Shutdown(shutdownCtx)
	cancel()
	a.Worker.Wait()

	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func initializeServices(cfg *config.Config, gateway services.StatusChecker, txRepo repositories.TransactionRepository) *services.ServiceContainer {
	// --- Репозитории ---
	userRepo := repositories.NewUserRepository()
	planRepo := repositories.NewPlanRepository()
	subscriptionRepo := repositories.NewSubscriptionRepository()
	callbackLogRepo := repositories.NewCallbackLogRepository()

	// --- Сервисы ---
	planService := services.NewPlanService(planRepo)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, userRepo)
	paymentService := services.NewPaymentService(
		cfg,
		gateway,
		planService,
		subscriptionService,
		txRepo,
		userRepo,
		planRepo,
		callbackLogRepo,
	)

	return &services.ServiceContainer{
		PlanService:         planService,
		SubscriptionService: subscriptionService,
		PaymentService:      paymentService,
	}
}

func initializeHandlers(cfg *config.Config, services *services.ServiceContainer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		PlanHandler:         handlers.NewPlanHandler(baseHandler, services.PlanService),
		PaymentHandler:      handlers.NewPaymentHandler(baseHandler, services.PaymentService, cfg),
		SubscriptionHandler: handlers.NewSubscriptionHandler(baseHandler, services.SubscriptionService),
	}
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(metrics.Middleware())
	router.Use(middleware.CORSMiddleware(cfg.Frontend.URL))
	router.Use(middleware.DBMiddleware(db))
	return router
}
