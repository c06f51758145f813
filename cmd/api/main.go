package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voicemail-platform/internal/auth"
	"voicemail-platform/internal/config"
	"voicemail-platform/internal/lookup"
	"voicemail-platform/internal/notify"
	"voicemail-platform/internal/voicemail"
	"voicemail-platform/pkg/logger"
	"voicemail-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Missing .env is fine; process env wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	limiter := auth.NewRedisLimiter(rdb, cfg.Dashboard.MaxAttempts, cfg.Dashboard.Window, cfg.Dashboard.Lockout)
	guard := auth.NewGuard(cfg.Dashboard.Secret, limiter, cfg.Dashboard.MaxAttempts, log)

	var lookups voicemail.LookupProvider
	if cfg.LookupActive() {
		lookups = &lookup.Service{
			Client: &lookup.TwilioClient{
				AccountSID: cfg.Twilio.AccountSID,
				AuthToken:  cfg.Twilio.AuthToken,
			},
			Cache: lookup.NewRedisCache(rdb),
			Log:   log,
		}
	} else {
		log.Info("caller lookup disabled")
	}

	dispatcher := &notify.Dispatcher{Log: log}
	if cfg.Notify.ResendAPIKey != "" {
		dispatcher.Channels = append(dispatcher.Channels, &notify.EmailChannel{
			APIKey: cfg.Notify.ResendAPIKey,
			From:   cfg.Notify.EmailFrom,
			To:     cfg.Notify.EmailTo,
		})
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		dispatcher.Channels = append(dispatcher.Channels, &notify.DiscordChannel{
			WebhookURL: cfg.Notify.DiscordWebhookURL,
		})
	}
	if len(dispatcher.Channels) == 0 {
		log.Info("notifications disabled")
	}

	svc := &voicemail.Service{
		Store:    voicemail.NewRedisStore(rdb),
		Lookups:  lookups,
		Notifier: dispatcher,
		BaseURL:  cfg.App.PublicBaseURL,
		Log:      log,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, cfg, svc, guard)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
