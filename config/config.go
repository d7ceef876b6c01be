package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime setting. Keys mirror the .env file, e.g. DB_HOST or APP_PORT.
type Config struct {
	App         AppConfig      `envconfig:"APP"`
	DB          DatabaseConfig `envconfig:"DB"`
	JWT         JWTConfig      `envconfig:"JWT"`
	Redis       RedisConfig    `envconfig:"REDIS"`
	Rabbit      RabbitConfig   `envconfig:"RABBIT"`
	SMTP        SMTPConfig     `envconfig:"SMTP"`
	Storage     StorageConfig  `envconfig:"STORAGE"`
	Gemini      GeminiConfig   `envconfig:"GEMINI"`
	Log         LogConfig      `envconfig:"LOG"`
	FrontendURL string         `envconfig:"FRONTEND_URL" default:"*"`
	// PublicKeyURL serves the identity provider's RSA key as {"key": "<PEM>"}.
	PublicKeyURL string `envconfig:"PUBLIC_KEY_URL"`
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

type AppConfig struct {
	Name            string        `envconfig:"NAME" default:"facility-booking"`
	Env             string        `envconfig:"ENV" default:"development"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	Port            string        `envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	BodyLimitMB     int           `envconfig:"BODY_LIMIT_MB" default:"20"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	// Timezone used for permit months and facility day schedules.
	Timezone string `envconfig:"TIMEZONE" default:"Asia/Jakarta"`
}

type DatabaseConfig struct {
	Driver          string        `envconfig:"DRIVER" default:"postgres"`
	Host            string        `envconfig:"HOST" default:"localhost"`
	Port            string        `envconfig:"PORT" default:"5432"`
	Database        string        `envconfig:"DATABASE" default:"facility_booking"`
	Username        string        `envconfig:"USERNAME" default:"postgres"`
	Password        string        `envconfig:"PASSWORD"`
	SSLMode         string        `envconfig:"SSLMODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"5m"`
}

type JWTConfig struct {
	Secret string `envconfig:"SECRET"`
}

type RedisConfig struct {
	Addr     string        `envconfig:"ADDR"`
	Password string        `envconfig:"PASSWORD"`
	DB       int           `envconfig:"DB" default:"0"`
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"10m"`
}

type RabbitConfig struct {
	URL      string `envconfig:"URL"`
	Exchange string `envconfig:"EXCHANGE" default:"facility-booking.notifications"`
	Queue    string `envconfig:"QUEUE" default:"facility-booking.mailer"`
}

type SMTPConfig struct {
	Host     string `envconfig:"HOST"`
	Port     int    `envconfig:"PORT" default:"587"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
	From     string `envconfig:"FROM" default:"no-reply@facility-booking.local"`
}

type StorageConfig struct {
	Dir string `envconfig:"DIR" default:"storage"`
}

type GeminiConfig struct {
	APIKey string `envconfig:"API_KEY"`
	Model  string `envconfig:"MODEL" default:"gemini-2.5-flash-lite"`
}

type LogConfig struct {
	Level string `envconfig:"LEVEL" default:"info"`
	Dir   string `envconfig:"DIR" default:"log/app"`
}

// Load reads an optional .env file and decodes the environment into a Config.
func Load() (*Config, error) {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if cfg.DB.Driver != "postgres" && cfg.DB.Driver != "memory" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}
	return &cfg, nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Address is the host:port pair the HTTP server listens on.
func (c *Config) Address() string {
	return c.App.Host + ":" + c.App.Port
}

// DSN builds the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.Username, d.Password, d.Database, d.SSLMode)
}
