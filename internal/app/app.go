package app

import (
	"context"
	"fmt"

	"etaca_backend/database"
	"etaca_backend/internal/config"
	"etaca_backend/internal/email"
	"etaca_backend/internal/handlers"
	"etaca_backend/internal/logger"
	"etaca_backend/internal/middleware"
	"etaca_backend/internal/repositories"
	"etaca_backend/internal/routes"
	"etaca_backend/internal/services"
	"etaca_backend/internal/services/payment"
	"etaca_backend/internal/validator"
	"etaca_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := database.ConnectGorm()
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("AutoMigrate failed", "error", err)
	}

	ginRouter, worker, authService := SetupRouter(cfg, gormDB)

	if err := authService.SeedAdmin(gormDB, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info(fmt.Sprintf("🚀 Server starting on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter собирает все зависимости и возвращает роутер, воркер
// и auth-сервис (для сидинга админа).
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) (*gin.Engine, *workers.WebhookWorker, services.AuthService) {
	v := validator.New()

	// --- Репозитории ---
	userRepo := repositories.NewUserRepository()
	orgRepo := repositories.NewOrganizationRepository()
	goalRepo := repositories.NewDonationGoalRepository()
	donationRepo := repositories.NewDonationRepository()
	eventRepo := repositories.NewWebhookEventRepository()

	// --- Email ---
	var emailProvider email.Provider
	if cfg.Email.SMTPHost != "" {
		sender, err := email.NewGomailSender(email.Config{
			Host:      cfg.Email.SMTPHost,
			Port:      cfg.Email.SMTPPort,
			Username:  cfg.Email.SMTPUsername,
			Password:  cfg.Email.SMTPPassword,
			FromEmail: cfg.Email.FromEmail,
			FromName:  cfg.Email.FromName,
		})
		if err != nil {
			logger.Fatal("Failed to initialize SMTP sender", "error", err)
		}
		emailProvider = sender
	} else {
		logger.Warn("SMTP is not configured, using mock email provider")
		emailProvider = &email.MockProvider{}
	}

	// --- Ядро реконсиляции ---
	verifier := payment.NewFiservVerifier(orgRepo)
	deduplicator := payment.NewDeduplicator(eventRepo)
	machine := payment.NewStateMachine(donationRepo)
	accumulator := payment.NewAccumulator(orgRepo, goalRepo, donationRepo)
	notifier := services.NewNotificationService(emailProvider, orgRepo)
	reconciler := payment.NewReconciler(donationRepo, eventRepo, verifier, deduplicator, machine, accumulator, notifier)

	// --- Сервисы ---
	authService := services.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.TTL)
	orgService := services.NewOrganizationService(orgRepo, userRepo)
	goalService := services.NewGoalService(goalRepo)
	donationService := services.NewDonationService(donationRepo, orgRepo, goalRepo, services.FiservConfig{
		Endpoint:   cfg.Fiserv.Endpoint,
		SuccessURL: cfg.Fiserv.SuccessURL,
		FailURL:    cfg.Fiserv.FailURL,
		NotifyURL:  cfg.Fiserv.NotifyURL,
	})
	exportService := services.NewExportService(donationRepo)
	qrService := services.NewQRService(cfg.Server.PublicURL)

	// --- Хэндлеры ---
	authHandler := handlers.NewAuthHandler(v, authService)
	orgHandler := handlers.NewOrganizationHandler(v, orgService, qrService)
	goalHandler := handlers.NewGoalHandler(v, goalService)
	donationHandler := handlers.NewDonationHandler(v, donationService, exportService, reconciler)

	// --- Gin ---
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	ginRouter := gin.New()
	ginRouter.Use(
		middleware.RequestIDMiddleware(),
		middleware.LoggingMiddleware(),
		middleware.DBMiddleware(gormDB),
		gin.Recovery(),
	)

	routes.SetupRoutes(ginRouter, authService, authHandler, orgHandler, goalHandler, donationHandler)

	worker := workers.NewWebhookWorker(gormDB, eventRepo, donationRepo, goalRepo, reconciler, accumulator, notifier)

	return ginRouter, worker, authService
}
