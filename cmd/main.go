package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gabnunesdev/futmais-app/backup"
	"github.com/gabnunesdev/futmais-app/config"
	"github.com/gabnunesdev/futmais-app/db"
	"github.com/gabnunesdev/futmais-app/handlers"
	"github.com/gabnunesdev/futmais-app/matchplay"
	"github.com/gabnunesdev/futmais-app/repositories"
	api "github.com/gabnunesdev/futmais-app/routes"
	"github.com/gabnunesdev/futmais-app/services"
	"github.com/gabnunesdev/futmais-app/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

const (
	janitorInterval = time.Hour
	staleMatchAfter = 24 * time.Hour
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.AvatarStorageConfigured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("avatar storage initialized")
	} else {
		logger.Warn("avatar storage not configured, uploads disabled")
	}

	hub := matchplay.NewHub(logger)
	go hub.Run()

	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	appStateRepo := repositories.NewPostgresAppStateRepository(dbConn)

	backups := backup.NewStore(cfg.BackupDir, logger)

	lobbyService := services.NewLobbyService(appStateRepo)
	playerService := services.NewPlayerService(playerRepo, uploader)
	statsService := services.NewStatsService(eventRepo, matchRepo, playerRepo)
	sessionService := services.NewSessionService(
		matchplay.Config{
			TeamSize:          cfg.TeamSize,
			GoalLimit:         cfg.GoalLimit,
			DurationSeconds:   cfg.MatchDurationSeconds,
			SuspensionSeconds: cfg.SuspensionSeconds,
		},
		matchRepo, eventRepo, playerRepo,
		lobbyService, backups, hub, logger,
	)

	// Close abandoned matches first so recovery does not resurrect them.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if n, err := matchRepo.FinishStale(startupCtx, staleMatchAfter); err != nil {
		logger.Error("failed to close stale matches", slog.Any("error", err))
	} else if n > 0 {
		logger.Info("closed stale matches", slog.Int64("count", n))
	}
	if err := sessionService.Recover(startupCtx); err != nil {
		logger.Error("session recovery failed", slog.Any("error", err))
		cancelStartup()
		os.Exit(1)
	}
	cancelStartup()

	tickCtx, stopTickers := context.WithCancel(context.Background())
	defer stopTickers()
	go sessionService.Run(tickCtx)
	go func() {
		ticker := time.NewTicker(janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticker.C:
				if n, err := matchRepo.FinishStale(context.Background(), staleMatchAfter); err != nil {
					logger.Error("failed to close stale matches", slog.Any("error", err))
				} else if n > 0 {
					logger.Info("closed stale matches", slog.Int64("count", n))
				}
			}
		}
	}()

	playerHandler := handlers.NewPlayerHandler(playerService)
	lobbyHandler := handlers.NewLobbyHandler(lobbyService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	statsHandler := handlers.NewStatsHandler(statsService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, sessionService, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		logger,
		cfg.CORSAllowedOrigins,
		playerHandler,
		lobbyHandler,
		sessionHandler,
		statsHandler,
		webSocketHandler,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		stopTickers()
		sessionService.Shutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
