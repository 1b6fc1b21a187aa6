package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Identity IdentityConfig
	Backend  BackendConfig
	AWS      AWSConfig
	Logging  LoggingConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port string `env:"SERVER_PORT" envDefault:"8080"`
	// ConsoleURL is the public SPA origin, used in invitation emails.
	ConsoleURL string `env:"CONSOLE_URL" envDefault:"http://localhost:5173"`
}

type DatabaseConfig struct {
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     string `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER" envDefault:"postgres"`
	Password string `env:"POSTGRES_PASSWORD"`
	DBName   string `env:"POSTGRES_DB" envDefault:"safeguard"`
	SSLMode  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type JWTConfig struct {
	SigningKey string        `env:"JWT_SIGNING_KEY" envDefault:"default-signing-key-change-in-production"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"safeguard-console"`
	Expiry     time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
}

type AuthConfig struct {
	// DirectoryTimeout bounds every user-directory call made during
	// session resolution. A timed-out lookup is treated as not-found.
	DirectoryTimeout time.Duration `env:"AUTH_DIRECTORY_TIMEOUT" envDefault:"6s"`
	// FallbackAdminEmails decide the role when the directory is
	// unreachable: listed emails resolve to admin, everyone else to
	// viewer. Client-visible allow-lists are a known smell; keeping it
	// server-side here is already an improvement over the original.
	FallbackAdminEmails []string `env:"AUTH_FALLBACK_ADMIN_EMAILS" envSeparator:","`
	// MaxStaffAccounts caps role=staff records. Zero means the
	// rbac default.
	MaxStaffAccounts int           `env:"AUTH_MAX_STAFF_ACCOUNTS" envDefault:"5"`
	SessionExpiry    time.Duration `env:"AUTH_SESSION_EXPIRY" envDefault:"24h"`
}

type IdentityConfig struct {
	Issuer   string `env:"IDENTITY_ISSUER" envDefault:"https://accounts.google.com"`
	Audience string `env:"IDENTITY_AUDIENCE"`
	JWKSURL  string `env:"IDENTITY_JWKS_URL" envDefault:"https://www.googleapis.com/oauth2/v3/certs"`
}

type BackendConfig struct {
	// BaseURL of the external PPE detection service, including /api.
	BaseURL string `env:"CV_BACKEND_URL" envDefault:"http://localhost:5000/api"`
	// RequestTimeout bounds each individual backend call.
	RequestTimeout time.Duration `env:"CV_BACKEND_TIMEOUT" envDefault:"5s"`
	// PollInterval drives the violations/alerts/metrics refresh loop.
	PollInterval time.Duration `env:"CV_BACKEND_POLL_INTERVAL" envDefault:"1s"`
}

type AWSConfig struct {
	Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	EndpointURL     string `env:"AWS_ENDPOINT_URL"`
	Bucket          string `env:"AWS_S3_BUCKET" envDefault:"safeguard-exports"`
	FromEmail       string `env:"AWS_SES_FROM_EMAIL" envDefault:"noreply@safeguard.example.com"`
}

type LoggingConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	Format     string `env:"LOG_FORMAT" envDefault:"text"`
	Filename   string `env:"LOG_FILE" envDefault:"logs/console.log"`
	MaxSize    int    `env:"LOG_MAX_SIZE" envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	MaxAge     int    `env:"LOG_MAX_AGE" envDefault:"28"`
	Compress   bool   `env:"LOG_COMPRESS" envDefault:"true"`
}

type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Accept,Authorization,Content-Type"`
	ExposedHeaders   []string `env:"CORS_EXPOSED_HEADERS" envSeparator:","`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"300"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config from environment: %w", err)
	}
	return cfg, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
