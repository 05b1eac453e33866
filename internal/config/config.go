package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	StorageLocal = "local"
	StorageS3    = "s3"
)

type (
	// Config is built once at startup and handed to every component that needs it.
	Config struct {
		AppName   string `env:"APP_NAME" envDefault:"receipts_and_insights"`
		Env       string `env:"APP_ENV" envDefault:"development"`
		LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
		LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

		HTTP     HTTPConfig     `envPrefix:"HTTP_"`
		Database DatabaseConfig `envPrefix:"DATABASE_"`
		Session  SessionConfig  `envPrefix:"SESSION_"`
		Auth     AuthConfig     `envPrefix:"AUTH_"`
		Storage  StorageConfig  `envPrefix:"STORAGE_"`
		S3       S3Config       `envPrefix:"S3_"`
	}

	HTTPConfig struct {
		Port         string        `env:"PORT" envDefault:"8000"`
		APIPrefix    string        `env:"API_PREFIX" envDefault:"/api/v1"`
		CORSOrigins  []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
		BodyLimit    int           `env:"BODY_LIMIT" envDefault:"10485760"`
	}

	DatabaseConfig struct {
		Driver   string `env:"DRIVER" envDefault:"postgres"`
		URL      string `env:"URL"`
		MaxConns int32  `env:"MAX_CONNS" envDefault:"10"`
		MinConns int32  `env:"MIN_CONNS" envDefault:"2"`
	}

	SessionConfig struct {
		TTL          time.Duration `env:"TTL" envDefault:"720h"`
		CookieName   string        `env:"COOKIE_NAME" envDefault:"session_token"`
		CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"true"`
	}

	AuthConfig struct {
		BcryptCost int     `env:"BCRYPT_COST" envDefault:"10"`
		LoginRate  float64 `env:"LOGIN_RATE" envDefault:"1"`
		LoginBurst int     `env:"LOGIN_BURST" envDefault:"10"`
	}

	StorageConfig struct {
		Backend        string        `env:"BACKEND" envDefault:"local"`
		UploadDir      string        `env:"UPLOAD_DIR" envDefault:"uploads"`
		ReconcileGrace time.Duration `env:"RECONCILE_GRACE" envDefault:"1h"`
	}

	S3Config struct {
		Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
		AccessKey string `env:"ACCESS_KEY"`
		SecretKey string `env:"SECRET_KEY"`
		Bucket    string `env:"BUCKET"`
		UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
	}
)

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.Database.Driver))
	}

	switch c.Storage.Backend {
	case StorageLocal:
		if strings.TrimSpace(c.Storage.UploadDir) == "" {
			errs = append(errs, errors.New("STORAGE_UPLOAD_DIR must not be empty"))
		}
	case StorageS3:
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 storage backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend))
	}

	for _, origin := range c.HTTP.CORSOrigins {
		if strings.TrimSpace(origin) == "*" {
			errs = append(errs, errors.New("HTTP_CORS_ORIGINS must list explicit origins, not *"))
		}
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME must not be empty"))
	}
	if c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, errors.New("DATABASE_MIN_CONNS exceeds DATABASE_MAX_CONNS"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, errors.New("AUTH_BCRYPT_COST must be between 4 and 31"))
	}
	if c.Auth.LoginBurst < 1 {
		errs = append(errs, errors.New("AUTH_LOGIN_BURST must be at least 1"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
