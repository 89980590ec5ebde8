package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/avoronov/hearth/internal/api"
	"github.com/avoronov/hearth/internal/auth"
	"github.com/avoronov/hearth/internal/config"
	"github.com/avoronov/hearth/internal/database"
	redisclient "github.com/avoronov/hearth/internal/redis"
	"github.com/avoronov/hearth/internal/service"
	"github.com/avoronov/hearth/internal/snowflake"
	"github.com/avoronov/hearth/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Infrastructure ---

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb, err := redisclient.NewClient(cfg.RedisURL)
	if err != nil {
		logger.Error("redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	sf, err := snowflake.NewGenerator(cfg.NodeID)
	if err != nil {
		logger.Error("snowflake", "error", err)
		os.Exit(1)
	}
	tokenSvc := auth.NewTokenService(cfg.JWTSecret)

	// --- Repositories ---

	users := database.NewUserRepository(pool)
	servers := database.NewServerRepository(pool)
	channels := database.NewChannelRepository(pool)
	roles := database.NewRoleRepository(pool)
	members := database.NewMemberRepository(pool)
	overwrites := database.NewOverwriteRepository(pool)
	messages := database.NewMessageRepository(pool)
	reactions := database.NewReactionRepository(pool)

	// --- Services ---

	perms := service.NewPermissionChecker(servers, members, roles, overwrites, rdb)

	authSvc := service.NewAuthService(users, tokenSvc, rdb, sf)
	userSvc := service.NewUserService(users)
	serverSvc := service.NewServerService(servers, channels, members, roles, sf, perms)
	channelSvc := service.NewChannelService(channels, members, overwrites, sf, perms)
	memberSvc := service.NewMemberService(members, servers, roles, perms)
	roleSvc := service.NewRoleService(servers, roles, members, channels, overwrites, sf, perms)
	messageSvc := service.NewMessageService(messages, channels, sf, perms)
	reactionSvc := service.NewReactionService(reactions, messages, channels, perms)

	var uploadHandler *api.UploadHandler
	if cfg.MinIOEndpoint != "" {
		store, err := storage.NewAttachmentStore(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket)
		if err != nil {
			logger.Error("minio", "error", err)
			os.Exit(1)
		}
		uploadHandler = api.NewUploadHandler(service.NewUploadService(channels, store, perms))
	} else {
		logger.Warn("MINIO_ENDPOINT not set, attachment uploads disabled")
	}

	// --- Handlers ---

	deps := &api.Dependencies{
		Auth:      api.NewAuthHandler(authSvc),
		Servers:   api.NewServerHandler(serverSvc),
		Channels:  api.NewChannelHandler(channelSvc, perms),
		Members:   api.NewMemberHandler(memberSvc),
		Users:     api.NewUserHandler(userSvc),
		Messages:  api.NewMessageHandler(messageSvc),
		Reactions: api.NewReactionHandler(reactionSvc),
		Roles:     api.NewRoleHandler(roleSvc),
		Uploads:   uploadHandler,

		TokenService: tokenSvc,
		Redis:        rdb,
	}

	// --- Echo ---

	e := echo.New()
	e.HidePort = true
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	api.SetupRouter(e, deps)

	// --- Start ---

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("hearth starting", "addr", cfg.ServerAddr)
		if err := e.Start(cfg.ServerAddr); err != nil && err != http.ErrServerClosed {
			logger.Error("server", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCtx.Done()
	logger.Info("shutting down")
	if err := e.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown", "error", err)
		os.Exit(1)
	}
}
