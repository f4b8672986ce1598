package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/swiftserve/swiftserve-backend/internal/api"
	"github.com/swiftserve/swiftserve-backend/internal/auth"
	"github.com/swiftserve/swiftserve-backend/internal/config"
	"github.com/swiftserve/swiftserve-backend/internal/database"
	"github.com/swiftserve/swiftserve-backend/internal/lifecycle"
	"github.com/swiftserve/swiftserve-backend/internal/middleware"
	"github.com/swiftserve/swiftserve-backend/internal/services"
	"github.com/swiftserve/swiftserve-backend/pkg/utils"
)

func main() {
	configPath := flag.String("config", "swiftserve.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	setupLogging(cfg)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if _, err := database.EnsureAdmin(db, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Fatalf("Failed to create admin account: %v", err)
		}
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		log.Warn("JWT_SECRET not set, using an insecure development secret")
		secret = "swiftserve-development-secret"
	}
	sessions, err := auth.NewService(secret, cfg.Auth.SessionTTL)
	if err != nil {
		log.Fatalf("Failed to initialize sessions: %v", err)
	}

	storage, err := services.NewStorage(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	deps := api.Deps{
		DB:       db,
		Sessions: sessions,
		Images:   storage,
		Mailer: utils.NewMailer(utils.MailerConfig{
			From:     cfg.Email.From,
			Password: cfg.Email.Password,
			SMTPHost: cfg.Email.SMTPHost,
			SMTPPort: cfg.Email.SMTPPort,
			BaseURL:  cfg.Storage.BaseURL,
		}),
		Cookies:      middleware.CookieOptions{Secure: cfg.Auth.CookieSecure, Domain: cfg.Auth.CookieDomain},
		AllowOrigins: cfg.CORS.AllowOrigins,
		AdminEmail:   cfg.Email.AdminEmail,
		UploadDir:    storage.LocalDir(),
	}

	// Redis is optional. Without it events are not published, the garage
	// list is not cached and login attempts are counted per instance.
	var events lifecycle.EventPublisher
	redisCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	rdb, err := services.NewRedis(redisCtx, cfg.Redis.URL)
	cancel()
	if err != nil {
		log.Warnf("Redis unavailable, continuing without it: %v", err)
		deps.LoginLimiter = services.NewMemoryRateLimiter(cfg.Auth.LoginLimit, cfg.Auth.LoginWindow)
	} else {
		defer rdb.Close()
		events = rdb
		deps.GarageCache = rdb
		deps.LoginLimiter = services.NewRedisRateLimiter(rdb, "login", cfg.Auth.LoginLimit, cfg.Auth.LoginWindow)
	}
	deps.Engine = lifecycle.NewEngine(db, events)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(log.Fields{"port": cfg.Port, "env": cfg.Env}).Info("swiftserve api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Graceful shutdown failed: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info("stopped")
}

func setupLogging(cfg *config.Config) {
	if cfg.IsDevelopment() {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&log.JSONFormatter{})
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
