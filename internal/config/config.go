package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const ReleaseMode = "release"

type Config struct {
	Server   ServerOptions
	Database DatabaseOptions
	Auth     AuthOptions
	Log      LogOptions
	Storage  StorageOptions
	Mail     MailOptions
	Redis    RedisOptions
	Company  CompanyOptions
}

type ServerOptions struct {
	Port        string   `env:"PORT" envDefault:"8080"`
	Mode        string   `env:"GIN_MODE" envDefault:"debug"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://127.0.0.1:5173"`
	AutoMigrate bool     `env:"AUTO_MIGRATE" envDefault:"true"`
}

type DatabaseOptions struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name     string `env:"DB_NAME" envDefault:"fixed_assets"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

func (d DatabaseOptions) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type AuthOptions struct {
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"JWT_TTL" envDefault:"24h"`
}

type LogOptions struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
	Output string `env:"LOG_OUTPUT" envDefault:"stdout"`
}

const (
	StorageS3    = "s3"
	StorageLocal = "local"
)

type StorageOptions struct {
	Driver     string `env:"STORAGE_DRIVER" envDefault:"local"`
	LocalDir   string `env:"STORAGE_LOCAL_DIR" envDefault:"./uploads"`
	Bucket     string `env:"S3_BUCKET" envDefault:"fixed-asset-registry"`
	Region     string `env:"AWS_REGION" envDefault:"us-east-1"`
	Endpoint   string `env:"S3_ENDPOINT"`
	PathStyle  bool   `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`
	PublicBase string `env:"STORAGE_PUBLIC_BASE_URL"`
}

type MailOptions struct {
	Host     string `env:"MAIL_HOST" envDefault:"localhost"`
	Port     int    `env:"MAIL_PORT" envDefault:"587"`
	User     string `env:"MAIL_USER"`
	Password string `env:"MAIL_PASS"`
	FromName string `env:"MAIL_FROM_NAME" envDefault:"Fixed Asset Registry"`
}

type RedisOptions struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	TTL      time.Duration `env:"REPORT_CACHE_TTL" envDefault:"10m"`
}

// CompanyOptions is printed on generated documents.
type CompanyOptions struct {
	Name     string `env:"COMPANY_NAME" envDefault:"Fixed Asset Registry System"`
	Address  string `env:"COMPANY_ADDRESS" envDefault:"Colombo, Sri Lanka"`
	Currency string `env:"COMPANY_CURRENCY" envDefault:"LKR"`
}

// LoadEnv loads whichever of the given dotenv files exist. Missing files are not an error.
func LoadEnv(files ...string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads dotenv files (if present) and parses the environment.
func Load(files ...string) (*Config, error) {
	if _, err := LoadEnv(files...); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		if c.Server.Mode == ReleaseMode {
			return errors.New("JWT_SECRET is required in release mode")
		}
		c.Auth.JWTSecret = "default_super_secret_key"
	}
	switch c.Storage.Driver {
	case StorageS3:
		if c.Storage.Bucket == "" {
			return errors.New("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	case StorageLocal:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Redis.TTL <= 0 {
		return errors.New("REPORT_CACHE_TTL must be positive")
	}
	return nil
}
