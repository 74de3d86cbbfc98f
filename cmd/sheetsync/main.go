package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"giveaway_bot/internal/repository"
	"giveaway_bot/internal/sheets"
	"giveaway_bot/pkg/logger"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Rewrites the spreadsheet from the database. Reads the same config.yaml and
// APP_* variables as the bot.
func main() {
	configDir := flag.String("config", "./", "directory holding config.yaml")
	flag.Parse()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(*configDir)
	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetDefault("logLevel", "info")
	v.SetDefault("sheets.worksheet", sheets.DefaultWorksheet)

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	var cfg struct {
		Database repository.Config
		Sheets   struct {
			SpreadsheetID   string
			Worksheet       string
			CredentialsPath string
		}
		LogLevel string
	}
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("Failed to unmarshal config: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	api, err := sheets.NewGoogleAPI(ctx, cfg.Sheets.SpreadsheetID, cfg.Sheets.CredentialsPath)
	if err != nil {
		zapLogger.Fatal("Failed to initialize Google Sheets client", zap.Error(err))
	}

	report, err := sheets.Resync(ctx, repo, sheets.NewMirror(api, cfg.Sheets.Worksheet))
	if err != nil {
		zapLogger.Fatal("Resync aborted", zap.Error(err))
	}
	if report.Failed > 0 {
		zapLogger.Warn("Resync finished with failures", zap.String("run_id", report.RunID), zap.Int("failed", report.Failed))
		os.Exit(1)
	}
}
