package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken  string         `yaml:"discord_token" validate:"required"`
	DevGuildID    string         `yaml:"dev_guild_id" validate:"omitempty,numeric"`
	DatabaseURL   string         `yaml:"database_url" validate:"required"`
	LogLevel      string         `yaml:"log_level" validate:"oneof=debug info warn error"`
	PremiumGuilds []string       `yaml:"premium_guilds" validate:"dive,numeric"`
	Cache         CacheConfig    `yaml:"cache"`
	Questions     QuestionConfig `yaml:"questions"`
	Cooldown      CooldownConfig `yaml:"cooldown"`
	Health        HealthConfig   `yaml:"health"`
}

type CacheConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval" validate:"min=1m"`
}

type QuestionConfig struct {
	PageSize int    `yaml:"page_size" validate:"min=1,max=1000"`
	SeedFile string `yaml:"seed_file"`
}

// CooldownConfig limits commands per user: Burst uses, one more every Every.
// A zero Every turns the cooldown off.
type CooldownConfig struct {
	Every time.Duration `yaml:"every" validate:"min=0"`
	Burst int           `yaml:"burst" validate:"min=1"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" validate:"required_if=Enabled true"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel:  "info",
		Cache:     CacheConfig{SweepInterval: 6 * time.Hour},
		Questions: QuestionConfig{PageSize: 100},
		Cooldown:  CooldownConfig{Every: 3 * time.Second, Burst: 2},
		Health:    HealthConfig{Enabled: false, Addr: ":8080"},
	}
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	// Variables already set in the environment win over .env.
	_ = godotenv.Load()
	applyEnv(&cfg)

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	err := validator.New().Struct(cfg)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	return err
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.DevGuildID = envString("DEV_GUILD_ID", cfg.DevGuildID)
	cfg.DatabaseURL = envString("DATABASE_URL", cfg.DatabaseURL)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.PremiumGuilds = envList("PREMIUM_GUILDS", cfg.PremiumGuilds)
	cfg.Cache.SweepInterval = envDuration("CACHE_SWEEP_INTERVAL", cfg.Cache.SweepInterval)
	cfg.Questions.PageSize = envInt("QUESTION_PAGE_SIZE", cfg.Questions.PageSize)
	cfg.Questions.SeedFile = envString("QUESTION_SEED_FILE", cfg.Questions.SeedFile)
	cfg.Cooldown.Every = envDuration("COOLDOWN_EVERY", cfg.Cooldown.Every)
	cfg.Cooldown.Burst = envInt("COOLDOWN_BURST", cfg.Cooldown.Burst)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(strings.ToLower(level)))
	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
