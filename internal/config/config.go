package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the API server configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	JWT      JWTConfig
	Mail     MailConfig
	Log      LogConfig
	Leads    LeadsConfig
}

type ServerConfig struct {
	Port               string
	CORSAllowedOrigins []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
}

type DatabaseConfig struct {
	URL         string
	Driver      string
	AutoMigrate bool
}

// RedisConfig: URL vazia desliga o cache de listagem.
type RedisConfig struct {
	URL         string
	LeadListTTL time.Duration
}

// RabbitMQConfig: URL vazia desliga a publicação de eventos.
type RabbitMQConfig struct {
	URL string
}

type JWTConfig struct {
	Secret string
}

type MailConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	From        string
	ClinicInbox string
	AdminURL    string
}

type LogConfig struct {
	Level  string
	Format string
}

type LeadsConfig struct {
	StaleAfter           time.Duration
	DigestPreviewLimit   int
	CaptureRatePerMinute int
}

// ClientConfig configures the leadsctl command.
type ClientConfig struct {
	APIURL         string
	Token          string
	StateDir       string
	PollInterval   time.Duration
	RequestTimeout time.Duration
}

var ErrDatabaseURLRequired = errors.New("DATABASE_URL is required")

func newViper() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	return v
}

// Load reads the server configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	v := newViper()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("LEAD_LIST_CACHE_TTL", "5m")
	v.SetDefault("MAIL_PORT", 587)
	v.SetDefault("ADMIN_URL", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("STALE_LEAD_AFTER", "24h")
	v.SetDefault("DIGEST_PREVIEW_LIMIT", 5)
	v.SetDefault("CAPTURE_RATE_PER_MINUTE", 5)

	cfg := &Config{
		Server: ServerConfig{
			Port:               v.GetString("SERVER_PORT"),
			CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       30 * time.Second,
		},
		Database: DatabaseConfig{
			URL:         v.GetString("DATABASE_URL"),
			Driver:      v.GetString("DATABASE_DRIVER"),
			AutoMigrate: v.GetBool("AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			URL:         v.GetString("REDIS_URL"),
			LeadListTTL: v.GetDuration("LEAD_LIST_CACHE_TTL"),
		},
		RabbitMQ: RabbitMQConfig{
			URL: v.GetString("RABBITMQ_URL"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		Mail: MailConfig{
			Host:        v.GetString("MAIL_HOST"),
			Port:        v.GetInt("MAIL_PORT"),
			User:        v.GetString("MAIL_USER"),
			Password:    v.GetString("MAIL_PASS"),
			From:        v.GetString("MAIL_FROM"),
			ClinicInbox: v.GetString("CLINIC_INBOX"),
			AdminURL:    v.GetString("ADMIN_URL"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Leads: LeadsConfig{
			StaleAfter:           v.GetDuration("STALE_LEAD_AFTER"),
			DigestPreviewLimit:   v.GetInt("DIGEST_PREVIEW_LIMIT"),
			CaptureRatePerMinute: v.GetInt("CAPTURE_RATE_PER_MINUTE"),
		},
	}

	if cfg.Database.URL == "" {
		return nil, ErrDatabaseURLRequired
	}

	return cfg, nil
}

// LoadClient reads the leadsctl configuration.
func LoadClient() (*ClientConfig, error) {
	v := newViper()

	v.SetDefault("CRM_API_URL", "http://localhost:8080")
	v.SetDefault("CRM_STATE_DIR", "~/.leadsctl")
	v.SetDefault("CRM_POLL_INTERVAL", "30m")
	v.SetDefault("CRM_REQUEST_TIMEOUT", "10s")

	return &ClientConfig{
		APIURL:         strings.TrimRight(v.GetString("CRM_API_URL"), "/"),
		Token:          v.GetString("CRM_API_TOKEN"),
		StateDir:       v.GetString("CRM_STATE_DIR"),
		PollInterval:   v.GetDuration("CRM_POLL_INTERVAL"),
		RequestTimeout: v.GetDuration("CRM_REQUEST_TIMEOUT"),
	}, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
