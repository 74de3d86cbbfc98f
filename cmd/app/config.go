package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"giveaway_bot/internal/repository"
	"giveaway_bot/internal/service"
	"giveaway_bot/internal/sheets"
	"giveaway_bot/internal/telegram"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database repository.Config `yaml:"database"`
	Server   ServerConfig      `yaml:"server"`
	Telegram TelegramConfig    `yaml:"telegram"`
	Giveaway GiveawayConfig    `yaml:"giveaway"`
	Sheets   SheetsConfig      `yaml:"sheets"`

	LogLevel string `yaml:"logLevel"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type TelegramConfig struct {
	BotToken      string  `yaml:"botToken"`
	ChannelID     int64   `yaml:"channelID"`
	ChannelURL    string  `yaml:"channelURL"`
	BotUsername   string  `yaml:"botUsername"`
	AdminIDs      []int64 `yaml:"adminIDs"`
	Mode          string  `yaml:"mode"`
	WebhookURL    string  `yaml:"webhookURL"`
	WebhookSecret string  `yaml:"webhookSecret"`
	BroadcastRate float64 `yaml:"broadcastRate"`
	Debug         bool    `yaml:"debug"`
}

type GiveawayConfig struct {
	RequiredReferrals    int           `yaml:"requiredReferrals"`
	SubscriptionCooldown time.Duration `yaml:"subscriptionCooldown"`
}

type SheetsConfig struct {
	Enabled         bool   `yaml:"enabled"`
	SpreadsheetID   string `yaml:"spreadsheetID"`
	Worksheet       string `yaml:"worksheet"`
	CredentialsPath string `yaml:"credentialsPath"`
	Workers         int    `yaml:"workers"`
	QueueSize       int    `yaml:"queueSize"`
}

func LoadConfig() (*Config, error) {
	return loadConfig(configPath)
}

func loadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.AddConfigPath(path)
	v.SetConfigType(configFormat)

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Telegram.Mode == telegram.ModeWebhook && cfg.Telegram.WebhookSecret == "" {
		cfg.Telegram.WebhookSecret = telegram.DefaultWebhookSecret(cfg.Telegram.BotToken)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Every key needs a default so that AutomaticEnv can override it without a
// config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "giveaway")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 10)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")

	v.SetDefault("telegram.botToken", "")
	v.SetDefault("telegram.channelID", 0)
	v.SetDefault("telegram.channelURL", "")
	v.SetDefault("telegram.botUsername", "")
	v.SetDefault("telegram.adminIDs", []int64{})
	v.SetDefault("telegram.mode", telegram.ModeLongPoll)
	v.SetDefault("telegram.webhookURL", "")
	v.SetDefault("telegram.webhookSecret", "")
	v.SetDefault("telegram.broadcastRate", float64(service.DefaultBroadcastRate))
	v.SetDefault("telegram.debug", false)

	v.SetDefault("giveaway.requiredReferrals", service.DefaultRequiredReferrals)
	v.SetDefault("giveaway.subscriptionCooldown", service.DefaultSubscriptionCooldown)

	v.SetDefault("sheets.enabled", false)
	v.SetDefault("sheets.spreadsheetID", "")
	v.SetDefault("sheets.worksheet", sheets.DefaultWorksheet)
	v.SetDefault("sheets.credentialsPath", "")
	v.SetDefault("sheets.workers", 1)
	v.SetDefault("sheets.queueSize", 256)

	v.SetDefault("logLevel", "info")
}

func (c *Config) Validate() error {
	var problems []string

	if c.Telegram.BotToken == "" {
		problems = append(problems, "telegram.botToken is required")
	}
	if !strings.HasPrefix(strconv.FormatInt(c.Telegram.ChannelID, 10), "-100") {
		problems = append(problems, "telegram.channelID must start with -100")
	}
	if len(c.Telegram.AdminIDs) == 0 {
		problems = append(problems, "telegram.adminIDs must list at least one admin")
	}

	switch c.Telegram.Mode {
	case telegram.ModeLongPoll:
	case telegram.ModeWebhook:
		if c.Telegram.WebhookURL == "" {
			problems = append(problems, "telegram.webhookURL is required in webhook mode")
		}
	default:
		problems = append(problems, fmt.Sprintf("telegram.mode %q is not supported", c.Telegram.Mode))
	}

	if c.Sheets.Enabled {
		if c.Sheets.SpreadsheetID == "" {
			problems = append(problems, "sheets.spreadsheetID is required when sheets are enabled")
		}
		if c.Sheets.CredentialsPath == "" {
			problems = append(problems, "sheets.credentialsPath is required when sheets are enabled")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
