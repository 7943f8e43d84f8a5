package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hawltrack/internal/config"
	"hawltrack/internal/crypto"
	"hawltrack/internal/database"
	"hawltrack/internal/hawl"
	"hawltrack/internal/logger"
	"hawltrack/internal/pricing"
	"hawltrack/internal/services"

	"github.com/redis/go-redis/v9"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	loop := flag.Bool("loop", false, "run continuously at SCAN_INTERVAL instead of once")
	flag.Parse()

	if err := run(*loop); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run(loop bool) error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	var cipher *crypto.FieldCipher
	if appConfig.FieldKey != "" {
		cipher, err = crypto.NewFieldCipher(appConfig.FieldKey)
		if err != nil {
			return fmt.Errorf("invalid FIELD_ENCRYPTION_KEY: %w", err)
		}
	} else {
		cipher = crypto.NewDevFieldCipher(appConfig.JWTSecret)
	}

	var rdb *redis.Client
	if opts, err := redis.ParseURL(appConfig.RedisURL); err == nil {
		rdb = redis.NewClient(opts)
	}

	provider := pricing.NewMetalsAPIProvider(
		&http.Client{Timeout: appConfig.PriceTimeout},
		appConfig.PriceAPIURL,
		appConfig.PriceAPIKey,
	)
	prices := pricing.NewService(provider, rdb,
		appConfig.ReportingCurrency, appConfig.PriceTimeout, appConfig.PriceCacheTTL)

	db := dbManager.DB()
	audit := services.NewAuditService(db, cipher)
	agg := services.NewAggregationService(db)
	lifecycle := services.NewLifecycleService(db, audit, agg, cipher)

	scanner := hawl.NewScanner(db, prices, agg, lifecycle, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !loop {
		return scanOnce(ctx, scanner)
	}

	log.Infof("Scanning every %s", appConfig.ScanInterval)
	ticker := time.NewTicker(appConfig.ScanInterval)
	defer ticker.Stop()

	for {
		if err := scanOnce(ctx, scanner); err != nil {
			log.Errorw("scan cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			log.Info("Shutting down")
			return nil
		case <-ticker.C:
		}
	}
}

func scanOnce(ctx context.Context, scanner *hawl.Scanner) error {
	result, err := scanner.Run(ctx)
	if err != nil {
		return err
	}

	logger.Get().Infow("scan completed",
		"users_scanned", result.UsersScanned,
		"drafts_created", result.DraftsCreated,
		"interruptions", result.Interruptions,
		"errors", len(result.Errors),
		"duration", result.Duration.String(),
	)
	for _, scanErr := range result.Errors {
		logger.Get().Warnw("user scan failed",
			"user_id", scanErr.UserID,
			"error", scanErr.Err.Error(),
		)
	}
	return nil
}
