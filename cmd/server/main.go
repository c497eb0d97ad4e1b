package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	httpapi "bloodbridge-backend/internal/api/http"
	"bloodbridge-backend/internal/config"
	"bloodbridge-backend/internal/jobs"
	"bloodbridge-backend/internal/logger"
	"bloodbridge-backend/internal/otp"
	"bloodbridge-backend/internal/push"
	"bloodbridge-backend/internal/repository/postgres"
	"bloodbridge-backend/internal/scheduler"
	"bloodbridge-backend/internal/security"
	"bloodbridge-backend/internal/service"
	"bloodbridge-backend/internal/storage"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting BloodBridge Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize OTP store (Redis)
	otpStore, err := otp.NewStore(cfg.Redis.URL, otp.DefaultTTL)
	if err != nil {
		logger.Error("Failed to connect to redis", "error", err)
		log.Fatalf("Failed to connect to redis: %v", err)
	}

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.ResetTokenExpiry)

	// Initialize Push Sender
	var sender push.Sender
	if cfg.FCM.CredentialsFile != "" {
		sender, err = push.NewFCMSender(context.Background(), cfg.FCM.CredentialsFile)
		if err != nil {
			logger.Error("Failed to initialize FCM", "error", err)
			log.Fatalf("Failed to initialize FCM: %v", err)
		}
	} else {
		logger.Warn("FCM credentials not configured, push notifications disabled")
		sender = push.NoopSender{}
	}

	// Initialize Storage Service
	var storageService storage.Interface
	var localFiles *storage.MockStorage
	if cfg.Storage.Type == "" || cfg.Storage.Type == "mock" {
		logger.Info("Using mock storage (local filesystem)", "upload_dir", cfg.Storage.UploadDir)
		localFiles, err = storage.NewMockStorage(cfg.Storage.BaseURL, cfg.Storage.UploadDir)
		if err != nil {
			logger.Error("Failed to initialize mock storage", "error", err)
			log.Fatalf("Failed to initialize mock storage: %v", err)
		}
		storageService = localFiles
	} else {
		storageService, err = storage.NewS3Storage(context.Background(), cfg.Storage.Bucket, cfg.Storage.Region)
		if err != nil {
			logger.Error("Failed to initialize S3 storage", "error", err)
			log.Fatalf("Failed to initialize S3 storage: %v", err)
		}
	}

	// Initialize Email Service
	emailSvc := service.NewEmailService(cfg.Email.APIKey, cfg.Email.From, cfg.Email.FromName)

	matching := service.MatchingOptions{
		RadiusMeters:      cfg.Matching.DefaultRadiusMeters,
		EligibilityWindow: time.Duration(cfg.Matching.EligibilityWindowDays) * 24 * time.Hour,
		SendTimeout:       time.Duration(cfg.FCM.SendTimeoutSeconds) * time.Second,
	}

	// Initialize Services
	authSvc := service.NewAuthService(
		store.UserRepository,
		store.OrganizationRepository,
		store.AdminRepository,
		otpStore,
		emailSvc,
		tokenManager,
		cfg.Email.ResetBaseURL,
	)
	userSvc := service.NewUserService(store.UserRepository, store.OrganizationRepository, store.ResponseRepository, matching)
	requestSvc := service.NewRequestService(store.RequestRepository, store.ResponseRepository, store.UserRepository, sender, matching)
	orgSvc := service.NewOrganizationService(store.OrganizationRepository, store.UserRepository)
	bannerSvc := service.NewBannerService(store.BannerRepository, storageService)
	ratingSvc := service.NewRatingService(store.RatingRepository)

	// Initialize HTTP router
	router := httpapi.NewRouter(httpapi.RouterDeps{
		AuthSvc:        authSvc,
		UserSvc:        userSvc,
		RequestSvc:     requestSvc,
		OrgSvc:         orgSvc,
		BannerSvc:      bannerSvc,
		RatingSvc:      ratingSvc,
		MaxUploadBytes: cfg.Storage.MaxFileSize << 20,
		LocalFiles:     localFiles,
	})

	// Initialize Scheduler
	jobRunner := jobs.NewJobRunner(db, store, cfg)
	cronScheduler := scheduler.NewScheduler(jobRunner)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}
