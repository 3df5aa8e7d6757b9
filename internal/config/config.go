package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App      App
	Database Database
	Redis    Redis
	Telegram Telegram
	Auth     Auth
}

type App struct {
	Port string `env:"PORT" env-required:"true"`
}

type Telegram struct {
	BotToken string `env:"TELEGRAM_BOT_TOKEN"`
}

type Auth struct {
	// Strict disables the insecure fallbacks: with Strict on, a missing
	// bot token is a startup error and pre-parsed identity headers are
	// rejected.
	Strict        bool     `env:"AUTH_STRICT" env-default:"true"`
	AdminIDs      []string `env:"ADMIN_IDS"`
	TicketSecret  string   `env:"WS_TICKET_SECRET" env-required:"true"`
	TicketExpMin  int      `env:"WS_TICKET_EXP_MIN" env-default:"5"`
}

type Redis struct {
	Host string `env:"REDIS_HOST" env-required:"true"`
	Port string `env:"REDIS_PORT" env-required:"true"`
}

type Database struct {
	Host     string `env:"POSTGRES_HOST" env-required:"true"`
	Port     string `env:"POSTGRES_PORT" env-required:"true"`
	User     string `env:"POSTGRES_USER" env-required:"true"`
	DBName   string `env:"POSTGRES_DB" env-required:"true"`
	Password string `env:"POSTGRES_PASSWORD" env-required:"true"`
	SSLMode  string `env:"POSTGRES_SSLMODE" env-required:"true"`
}

func (d Database) DSN() string {
	return fmt.Sprintf(
		`host=%s port=%s user=%s password=%s dbname=%s sslmode=%s`,
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read environment variables: %w", err)
	}

	if cfg.Auth.Strict && cfg.Telegram.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required when AUTH_STRICT is enabled")
	}
	return cfg, nil
}
