package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds roomsync configuration (shape as the other services' template).
type Config struct {
	AppEnv   string // APP_ENV
	AppHost  string // APP_HOST
	HTTPPort string // APP_PORT or HTTP_PORT
	LogLevel string // LOG_LEVEL

	// PostgreSQL room store (nested as in template)
	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}

	// MySQL academic store
	Academic struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
	}

	// Google Workspace (Calendar + Gmail, domain-wide delegation)
	Google struct {
		CredentialsFile string // GOOGLE_CREDENTIALS_FILE
		Impersonate     string // GOOGLE_IMPERSONATE (user the service account acts as)
		CalendarID      string // GOOGLE_CALENDAR_ID, default "primary"
	}

	// S3 recordings bucket (presigned playback URLs)
	S3 struct {
		Bucket string // S3_BUCKET
		Region string // S3_REGION
	}

	// Public base URL of the meeting frontend (room join links)
	PublicURL string // PUBLIC_URL

	// Reconciliation pass interval; 0 disables the background loop.
	SyncInterval time.Duration // SYNC_INTERVAL_SECONDS
}

// Load loads config from environment (.env if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	syncSecs, _ := strconv.Atoi(getEnv("SYNC_INTERVAL_SECONDS", "0"))

	cfg := &Config{
		AppEnv:       getEnv("APP_ENV", "development"),
		AppHost:      getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:     firstEnv("APP_PORT", "HTTP_PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		PublicURL:    getEnv("PUBLIC_URL", ""),
		SyncInterval: time.Duration(syncSecs) * time.Second,
	}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "roomsync")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Academic.Host = getEnv("ACADEMIC_DB_HOST", "localhost")
	cfg.Academic.Port = getEnv("ACADEMIC_DB_PORT", "3306")
	cfg.Academic.User = getEnv("ACADEMIC_DB_USER", "root")
	cfg.Academic.Password = getEnv("ACADEMIC_DB_PASSWORD", "")
	cfg.Academic.Database = getEnv("ACADEMIC_DB_DATABASE", "academic")

	cfg.Google.CredentialsFile = getEnv("GOOGLE_CREDENTIALS_FILE", "")
	cfg.Google.Impersonate = getEnv("GOOGLE_IMPERSONATE", "")
	cfg.Google.CalendarID = getEnv("GOOGLE_CALENDAR_ID", "primary")

	cfg.S3.Bucket = getEnv("S3_BUCKET", "")
	cfg.S3.Region = getEnv("S3_REGION", "")

	return cfg, nil
}

// Validate checks required fields and production safety.
func (c *Config) Validate() error {
	if c.DB.Host == "" {
		return errors.New("config: DB_HOST is required")
	}
	if c.DB.User == "" {
		return errors.New("config: DB_USER is required")
	}
	if c.DB.Database == "" {
		return errors.New("config: DB_DATABASE is required")
	}
	if c.Academic.Host == "" {
		return errors.New("config: ACADEMIC_DB_HOST is required")
	}
	if c.Academic.Database == "" {
		return errors.New("config: ACADEMIC_DB_DATABASE is required")
	}
	if c.PublicURL == "" {
		return errors.New("config: PUBLIC_URL is required")
	}
	if c.AppEnv == "production" {
		if c.DB.Password == "" {
			return errors.New("config: in production DB_PASSWORD is required")
		}
		if c.Google.CredentialsFile == "" || c.Google.Impersonate == "" {
			return errors.New("config: in production GOOGLE_CREDENTIALS_FILE and GOOGLE_IMPERSONATE are required")
		}
	}
	return nil
}

// DSN returns the PostgreSQL connection string for GORM.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

// DatabaseURL returns a postgres URL for golang-migrate.
func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

// AcademicDSN returns the MySQL DSN for the academic store (go-sql-driver format).
func (c *Config) AcademicDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		c.Academic.User, c.Academic.Password, c.Academic.Host, c.Academic.Port, c.Academic.Database)
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	keys := keysAndDef[:len(keysAndDef)-1]
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
