package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/hazard-impact-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Grid loading and assessment defaults.
	GridRoot      string
	GridCacheSize int
	StyleClasses  int
	NeedsProfile  string
	MinimumNeeds  []domain.MinimumNeed

	// Telegram evacuation alerts.
	TelegramToken        string
	TelegramChatID       string
	TelegramEnabled      bool
	TelegramMinEvacuated int64
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	gridCacheSize, err := parsePositiveInt("GRID_CACHE_SIZE", 16)
	if err != nil {
		return nil, err
	}

	styleClasses, err := parsePositiveInt("STYLE_CLASSES", domain.DefaultClasses)
	if err != nil {
		return nil, err
	}

	minEvacuated, err := parsePositiveInt("TELEGRAM_MIN_EVACUATED", 1)
	if err != nil {
		return nil, err
	}

	needsProfile := os.Getenv("NEEDS_PROFILE")
	needs := domain.DefaultMinimumNeeds()
	if needsProfile != "" {
		needs, err = LoadNeedsProfile(needsProfile)
		if err != nil {
			return nil, fmt.Errorf("NEEDS_PROFILE: %w", err)
		}
	}

	telegramToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	telegramEnabled := telegramToken != ""
	if v := os.Getenv("TELEGRAM_ENABLED"); v != "" {
		telegramEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "impact-assessment-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "impact-assessments"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "hazard-impact"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		GridRoot:      sharedcfg.EnvOrDefault("GRID_ROOT", "."),
		GridCacheSize: gridCacheSize,
		StyleClasses:  styleClasses,
		NeedsProfile:  needsProfile,
		MinimumNeeds:  needs,

		TelegramToken:        telegramToken,
		TelegramChatID:       os.Getenv("TELEGRAM_CHAT_ID"),
		TelegramEnabled:      telegramEnabled,
		TelegramMinEvacuated: int64(minEvacuated),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if info, err := os.Stat(cfg.GridRoot); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("GRID_ROOT %q is not a directory", cfg.GridRoot)
	}
	cfg.GridRoot = filepath.Clean(cfg.GridRoot)
	if cfg.TelegramEnabled && cfg.TelegramToken == "" {
		return nil, errors.New("TELEGRAM_ENABLED is true but TELEGRAM_BOT_TOKEN is not set")
	}
	if cfg.TelegramEnabled && cfg.TelegramChatID == "" {
		return nil, errors.New("TELEGRAM_ENABLED is true but TELEGRAM_CHAT_ID is not set")
	}

	return cfg, nil
}

func parsePositiveInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", name, s)
	}
	return n, nil
}
