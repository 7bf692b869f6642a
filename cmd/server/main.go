package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	_ "stockpilot/docs" // swagger docs

	"stockpilot/internal/auth"
	"stockpilot/internal/cache"
	"stockpilot/internal/config"
	"stockpilot/internal/db"
	"stockpilot/internal/handler"
	"stockpilot/internal/logger"
	"stockpilot/internal/mail"
	"stockpilot/internal/repository"
	"stockpilot/internal/router"
	"stockpilot/internal/service"
)

// @title StockPilot API
// @version 1.0
// @description Inventory API with JWT authentication and owner-scoped products.
// @host localhost:8000
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet; fall back to stderr.
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN, db.GormLogLevel(cfg.LogLevel))
	if err != nil {
		log.Fatal("database init", zap.Error(err))
	}

	if cfg.ResetDB {
		log.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			log.Fatal("reset database", zap.Error(err))
		}
	} else if err := db.Migrate(gormDB); err != nil {
		log.Fatal("auto-migrate", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, log)
	defer cacheClient.Close()
	if err := cacheClient.Ping(context.Background()); err != nil {
		log.Warn("redis unavailable, running without cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	otpStore := auth.NewOTPStore(cacheClient, cfg.VerificationCodeTTL)
	mailer := mail.New(cfg, log)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, otpStore, mailer, log)
	userService := service.NewUserService(userRepo)
	productService := service.NewProductService(productRepo, cacheClient, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(
		e,
		cfg,
		log,
		jwtService,
		userService,
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(userService),
		handler.NewProductHandler(productService),
	)

	addr := ":" + cfg.ServerPort
	go func() {
		log.Info("server listening", zap.String("addr", addr), zap.String("swagger", swaggerURL(cfg)))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown", zap.Error(err))
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}
