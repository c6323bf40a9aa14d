// @title Hockey Madness API
// @version 1.0
// @description Scoreboard backend: sessions, navigation guard, matches and tournaments.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
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

	"github.com/Dosada05/hockey-madness/config"
	"github.com/Dosada05/hockey-madness/db"
	"github.com/Dosada05/hockey-madness/events"
	"github.com/Dosada05/hockey-madness/guard"
	"github.com/Dosada05/hockey-madness/handlers"
	"github.com/Dosada05/hockey-madness/realtime"
	"github.com/Dosada05/hockey-madness/repositories"
	api "github.com/Dosada05/hockey-madness/routes"
	"github.com/Dosada05/hockey-madness/services"
	"github.com/Dosada05/hockey-madness/session"
	"github.com/Dosada05/hockey-madness/storage"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const sweepInterval = time.Minute // How often idle client sessions are evicted

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)
	handlers.SetLogger(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	if err := db.Migrate(dbConn, logger); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database connection established")

	// Redis необязателен: без него токены и настройки живут в памяти процесса
	var (
		redisClient *redis.Client
		tokenStore  services.TokenStore       = services.NewMemoryTokenStore()
		prefsStore  services.PreferencesStore = services.NewMemoryPreferencesStore()
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		defer redisClient.Close()
		tokenStore = services.NewRedisTokenStore(redisClient)
		prefsStore = services.NewRedisPreferencesStore(redisClient)
		logger.Info("redis stores enabled", slog.String("addr", cfg.RedisAddr))
	}

	// Шина событий: NATS между инстансами или память внутри процесса
	var bus events.Bus
	if cfg.NATSURL != "" {
		natsBus, err := events.NewNATSBus(cfg.NATSURL)
		if err != nil {
			logger.Error("failed to connect to NATS", slog.Any("error", err))
			os.Exit(1)
		}
		bus = natsBus
		logger.Info("NATS event bus connected", slog.String("url", cfg.NATSURL))
	} else {
		bus = events.NewMemoryBus(logger)
	}
	defer bus.Close()

	// Архив отчетов о матчах в Cloudflare R2
	var (
		archiver services.MatchArchiver
		r2Ping   handlers.Pinger
	)
	if cfg.R2.Enabled() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.Bucket,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		archiver = storage.NewMatchArchiver(uploader)
		if p, ok := uploader.(storage.Pinger); ok {
			r2Ping = p
		}
		logger.Info("Cloudflare R2 uploader initialized")
	}

	checks := map[string]handlers.Pinger{
		"database": handlers.PingFunc(dbConn.PingContext),
		"storage":  r2Ping,
	}
	if redisClient != nil {
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}
	if err := startupChecks(ctx, checks); err != nil {
		logger.Error("startup dependency check failed", slog.Any("error", err))
		os.Exit(1)
	}

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	boosterRepo := repositories.NewPostgresBoosterRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo, tokenStore, bus, services.AuthConfig{
		Secret:   []byte(cfg.JWTSecretKey),
		TokenTTL: cfg.TokenTTL,
	}, logger)
	adminService := services.NewAdminUserService(userRepo, teamRepo, bus, logger)
	matchService := services.NewMatchService(matchRepo, boosterRepo, bus, archiver, logger)
	teamService := services.NewTeamService(teamRepo)
	boosterService := services.NewBoosterService(boosterRepo)
	tournamentService := services.NewTournamentService(tournamentRepo, teamRepo, matchRepo, logger)
	dashboardService := services.NewDashboardService(userRepo, teamRepo, tournamentRepo, matchRepo)
	prefsService := services.NewPreferencesService(prefsStore, logger)
	logger.Info("Services initialized")

	// Сессии клиентов и guard навигации
	registry := session.NewRegistry(authService, authService, session.RegistryOptions{
		InitTimeout: cfg.SessionInitTimeout,
		IdleTTL:     cfg.SessionIdleTTL,
		Logger:      logger,
	})
	defer registry.Close()
	go registry.Run(ctx, sweepInterval)

	table := guard.DefaultTable()
	if cfg.RoutesFile != "" {
		table, err = guard.LoadTable(cfg.RoutesFile)
		if err != nil {
			logger.Error("failed to load route table", slog.String("file", cfg.RoutesFile), slog.Any("error", err))
			os.Exit(1)
		}
	}
	navGuard := guard.New(table, guard.Options{WaitTimeout: cfg.GuardWaitTimeout, Logger: logger})

	// Инициализация WebSocket Hub и ретрансляции событий матчей
	wsHub := realtime.NewHub(logger)
	go wsHub.Run(ctx)
	relay, err := realtime.NewRelay(bus, wsHub)
	if err != nil {
		logger.Error("failed to subscribe to match events", slog.Any("error", err))
		os.Exit(1)
	}
	go relay.Run(ctx)
	logger.Info("WebSocket Hub started")

	// Инициализация обработчиков HTTP
	secureCookies := cfg.SecureCookies
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Deps{
		Logger:         logger,
		Registry:       registry,
		Guard:          navGuard,
		Authenticator:  authService,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		SecureCookies:  secureCookies,

		Auth:        handlers.NewAuthHandler(authService, registry, prefsService, cfg.GuardWaitTimeout, secureCookies),
		Navigation:  handlers.NewNavigationHandler(navGuard, prefsService),
		Pages:       handlers.NewPageHandler(table, cfg.StaticDir),
		Matches:     handlers.NewMatchHandler(matchService),
		Teams:       handlers.NewTeamHandler(teamService),
		Boosters:    handlers.NewBoosterHandler(boosterService),
		Tournaments: handlers.NewTournamentHandler(tournamentService),
		Admin:       handlers.NewAdminUserHandler(adminService),
		Dashboard:   handlers.NewDashboardHandler(dashboardService),
		Preferences: handlers.NewPreferencesHandler(prefsService),
		WebSocket:   handlers.NewWebSocketHandler(wsHub, matchService, cfg.CORSAllowedOrigins, logger),
		Health:      handlers.NewHealthHandler(checks, 3*time.Second),
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера. WriteTimeout не ставим: вебсокеты табло живут долго.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			stop()
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		// Останавливаем hub, relay и sweep до закрытия HTTP, чтобы вебсокеты не держали Shutdown.
		stop()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}

// startupChecks pings every configured dependency concurrently; the first failure aborts startup.
func startupChecks(ctx context.Context, checks map[string]handlers.Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	for name, check := range checks {
		if check == nil {
			continue
		}
		g.Go(func() error {
			if err := check.Ping(gCtx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
