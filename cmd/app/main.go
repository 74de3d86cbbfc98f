package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"giveaway_bot/internal/api"
	"giveaway_bot/internal/events"
	"giveaway_bot/internal/metrics"
	"giveaway_bot/internal/middleware"
	"giveaway_bot/internal/repository"
	"giveaway_bot/internal/service"
	"giveaway_bot/internal/sheets"
	"giveaway_bot/internal/telegram"
	"giveaway_bot/pkg/auth"
	"giveaway_bot/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := repository.RunMigrations(cfg.Database.GetDatabaseURL()); err != nil {
		zapLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		zapLogger.Fatal("Failed to connect to Telegram", zap.Error(err))
	}
	botAPI.Debug = cfg.Telegram.Debug
	if cfg.Telegram.BotUsername == "" {
		cfg.Telegram.BotUsername = botAPI.Self.UserName
	}
	zapLogger.Info("Authorized on Telegram", zap.String("username", cfg.Telegram.BotUsername))

	client := telegram.NewClient(botAPI)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)
	hub := events.NewHub(0)

	rule := service.NewParticipationRule(cfg.Giveaway.RequiredReferrals)
	svc := service.NewService(
		service.NewReferralService(repo),
		service.NewSubscriptionService(repo, rule, cfg.Giveaway.SubscriptionCooldown),
		service.NewContactService(repo, repo),
		service.NewAdminService(repo, client, rate.Limit(cfg.Telegram.BroadcastRate)),
	)

	deps := telegram.Deps{
		Referrals:     svc.ReferralService,
		Subscriptions: svc.SubscriptionService,
		Contacts:      svc.ContactService,
		Admin:         svc.AdminService,
		Metrics:       collector,
		Events:        hub,
	}

	if cfg.Sheets.Enabled {
		sheetsAPI, err := sheets.NewGoogleAPI(ctx, cfg.Sheets.SpreadsheetID, cfg.Sheets.CredentialsPath)
		if err != nil {
			zapLogger.Fatal("Failed to initialize Google Sheets client", zap.Error(err))
		}
		dispatcher := sheets.NewDispatcher(
			sheets.NewMirror(sheetsAPI, cfg.Sheets.Worksheet),
			collector,
			sheets.Options{QueueSize: cfg.Sheets.QueueSize, Workers: cfg.Sheets.Workers},
		)
		defer dispatcher.Close()
		deps.Sheets = dispatcher
	}

	channelURL := telegram.ResolveChannelURL(ctx, client, cfg.Telegram.ChannelID, cfg.Telegram.ChannelURL)
	bot := telegram.NewBot(client, deps, telegram.Config{
		ChannelID:   cfg.Telegram.ChannelID,
		ChannelURL:  channelURL,
		BotUsername: cfg.Telegram.BotUsername,
		AdminIDs:    cfg.Telegram.AdminIDs,
	})

	telegramAuth := auth.NewTelegramAuth(cfg.Telegram.BotToken, false)
	authz := middleware.NewAuthorization(cfg.Telegram.AdminIDs)

	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
	}
	config.AllowHeaders = []string{"*"}
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	api.NewHealthRoutes(router, repo, registry)
	if cfg.Telegram.Mode == telegram.ModeWebhook {
		api.NewWebhookRoutes(router, bot, cfg.Telegram.WebhookSecret)
	}

	a := router.Group("/api/v1")
	api.NewAdminRoutes(a, svc.AdminService, svc.ContactService, hub, telegramAuth, authz)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("Starting server", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()

	switch cfg.Telegram.Mode {
	case telegram.ModeWebhook:
		if err := telegram.SetWebhook(ctx, botAPI, cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
			zapLogger.Error("Failed to register webhook", zap.Error(err))
			stop()
		}
		zapLogger.Info("Receiving updates via webhook", zap.String("url", cfg.Telegram.WebhookURL))
		<-ctx.Done()
	default:
		zapLogger.Info("Receiving updates via long polling")
		if err := telegram.Poll(ctx, botAPI, bot); err != nil {
			zapLogger.Error("Long polling stopped", zap.Error(err))
		}
	}

	zapLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shut down server", zap.Error(err))
	}
	bot.Wait()
}
