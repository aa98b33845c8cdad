package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"rumor-trust-system/internal/config"
	"rumor-trust-system/internal/fingerprint"
	"rumor-trust-system/internal/handler"
	"rumor-trust-system/internal/models"
	"rumor-trust-system/internal/ratelimit"
	"rumor-trust-system/internal/repository"
	"rumor-trust-system/internal/scheduler"
	"rumor-trust-system/internal/scoring"
	"rumor-trust-system/internal/service"
	"rumor-trust-system/pkg/logger"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	// 盐值缺失在这里直接终止进程，绝不降级到默认盐
	fingerprinter, err := fingerprint.New(cfg.Vote.Salt)
	if err != nil {
		logger.Fatal("Failed to init fingerprint generator:", err)
	}

	db, err := initDatabase(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer closeDatabase(db)

	if err := migrate(db); err != nil {
		logger.Fatal("Failed to migrate database:", err)
	}

	claimRepo := repository.NewClaimRepository(db)
	evidenceRepo := repository.NewEvidenceRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	reputationRepo := repository.NewReputationRepository(db)

	resolver := scoring.NewResolver(
		cfg.Resolution.VerifyThreshold,
		cfg.Resolution.DebunkThreshold,
		cfg.Resolution.SustainedHours,
		cfg.Resolution.InconclusiveDays,
	)
	feedCache := gocache.New(service.FeedCacheTTL, time.Minute)

	reputationSvc := service.NewReputationService(reputationRepo, voteRepo, &cfg.Reputation)
	claimSvc := service.NewClaimService(claimRepo, evidenceRepo, voteRepo, auditRepo, feedCache)
	voteSvc := service.NewVoteService(
		db, claimRepo, evidenceRepo, voteRepo, auditRepo,
		reputationSvc, fingerprinter, resolver, feedCache,
		&cfg.Scoring, &cfg.Resolution,
	)
	resolutionSvc := service.NewResolutionService(claimRepo, voteSvc, &cfg.Resolution)

	resolutionScheduler := scheduler.NewResolutionScheduler(resolutionSvc, cfg.Resolution.SweepCron)
	if err := resolutionScheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler:", err)
	}
	defer resolutionScheduler.Stop()

	limiter := ratelimit.New(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	router := setupHTTPRouter(claimSvc, voteSvc, reputationSvc, resolutionScheduler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler.RateLimit(limiter, router),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Server starting on port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error:", err)
	}

	logger.Info("Server stopped")
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	// TranslateError让指纹唯一索引冲突以gorm.ErrDuplicatedKey暴露
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	return db, nil
}

func closeDatabase(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get database instance:", err)
		return
	}
	sqlDB.Close()
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Claim{},
		&models.Evidence{},
		&models.EvidenceVote{},
		&models.AuditEntry{},
		&models.ReputationAccount{},
		&models.VoteStake{},
	)
}

func setupHTTPRouter(
	claimSvc *service.ClaimService,
	voteSvc *service.VoteService,
	reputationSvc *service.ReputationService,
	resolutionScheduler *scheduler.ResolutionScheduler,
) http.Handler {
	router := http.NewServeMux()

	claimHandler := handler.NewClaimHandler(claimSvc)
	voteHandler := handler.NewVoteHandler(voteSvc)
	reputationHandler := handler.NewReputationHandler(reputationSvc)
	adminHandler := handler.NewAdminHandler(resolutionScheduler)

	router.HandleFunc("/api/claims", claimHandler.HandleClaims)
	router.HandleFunc("/api/claims/", claimHandler.HandleClaimByID)
	router.HandleFunc("/api/evidence/", voteHandler.HandleVote)
	router.HandleFunc("/api/user/stats", reputationHandler.HandleStats)
	router.HandleFunc("/api/admin/sweep", adminHandler.HandleSweep)
	router.HandleFunc("/health", handler.HandleHealth)

	return router
}
