package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config — все настройки процесса из переменных окружения.
type Config struct {
	TelegramToken       string     `env:"TELEGRAM_BOT_TOKEN,required,notEmpty"`
	SpotifyClientID     string     `env:"SPOTIFY_CLIENT_ID,required,notEmpty"`
	SpotifyClientSecret string     `env:"SPOTIFY_CLIENT_SECRET,required,notEmpty"`
	RegistryDSN         string     `env:"REGISTRY_SQLITE_DSN" envDefault:"radar.db"`
	PollInterval        int        `env:"POLL_INTERVAL_SECONDS" envDefault:"1800"`
	ReconcileInterval   int        `env:"RECONCILE_INTERVAL_SECONDS" envDefault:"21600"`
	AdminChatIDs        []int64    `env:"ADMIN_CHAT_IDS" envSeparator:","`
	LogLevel            slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	HealthAddr          string     `env:"HEALTH_ADDR" envDefault:":8080"`
}

func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) PollDuration() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

func (c Config) ReconcileDuration() time.Duration {
	return time.Duration(c.ReconcileInterval) * time.Second
}

// AdminSet возвращает идентификаторы админов множеством для быстрых проверок.
func (c Config) AdminSet() map[int64]struct{} {
	ids := make(map[int64]struct{}, len(c.AdminChatIDs))
	for _, id := range c.AdminChatIDs {
		ids[id] = struct{}{}
	}
	return ids
}
