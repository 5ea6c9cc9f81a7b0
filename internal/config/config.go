package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Config holds all configuration for the POS api and worker.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Auth        AuthConfig        `yaml:"auth"`
	Orders      OrdersConfig      `yaml:"orders"`
	Events      EventsConfig      `yaml:"events"`
	Idempotency IdempotencyConfig `yaml:"idempotency"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Storage     StorageConfig     `yaml:"storage"`
	Log         LogConfig         `yaml:"log"`
}

type ServerConfig struct {
	Addr     string `yaml:"addr"`
	RunLocal bool   `yaml:"run_local"`
}

// DatabaseConfig holds PostgreSQL connection and pool settings.
type DatabaseConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	Database       string        `yaml:"database"`
	SSLMode        string        `yaml:"sslmode"`
	MaxConns       int32         `yaml:"max_conns"`
	MinConns       int32         `yaml:"min_conns"`
	ConnectRetries int           `yaml:"connect_retries"`
	MigrateOnStart bool          `yaml:"migrate_on_start"`
	QueryTimeout   time.Duration `yaml:"query_timeout"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type OrdersConfig struct {
	// VerifyMenuItems rejects line items whose menu item is missing or unavailable.
	VerifyMenuItems bool `yaml:"verify_menu_items"`
}

// EventsConfig selects where order and payment events go: "sqs", "amqp" or "none".
type EventsConfig struct {
	Backend  string `yaml:"backend"`
	QueueURL string `yaml:"queue_url"`
	AMQPURL  string `yaml:"amqp_url"`
	Exchange string `yaml:"exchange"`
}

type IdempotencyConfig struct {
	Table     string        `yaml:"table"`
	TTLWindow time.Duration `yaml:"ttl_window"`
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// StorageConfig selects where uploaded images are kept: "local" or "s3".
type StorageConfig struct {
	Backend    string `yaml:"backend"`
	UploadDir  string `yaml:"upload_dir"`
	PublicPath string `yaml:"public_path"`
	Bucket     string `yaml:"bucket"`
	BaseURL    string `yaml:"base_url"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// Default returns the configuration used when no file or variable overrides a value.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8000"},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			User:           "postgres",
			Database:       "restaurant_db",
			SSLMode:        "disable",
			MaxConns:       25,
			MinConns:       2,
			ConnectRetries: 5,
			MigrateOnStart: true,
			QueryTimeout:   10 * time.Second,
		},
		Auth:        AuthConfig{TokenTTL: time.Hour},
		Events:      EventsConfig{Backend: "none", Exchange: "pos_events"},
		Idempotency: IdempotencyConfig{TTLWindow: 48 * time.Hour},
		Storage:     StorageConfig{Backend: "local", UploadDir: "uploads", PublicPath: "/uploads"},
		Log:         LogConfig{Level: "info", Service: "pos-api"},
	}
}

// Load reads the YAML file at path (a missing file is not an error) and applies
// environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Addr, "ADDR")
	if err := setBool(&c.Server.RunLocal, "RUN_LOCAL"); err != nil {
		return err
	}

	setString(&c.Database.Host, "DB_HOST")
	if err := setInt(&c.Database.Port, "DB_PORT"); err != nil {
		return err
	}
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Database, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSL_MODE")
	if err := setBool(&c.Database.MigrateOnStart, "DB_MIGRATE"); err != nil {
		return err
	}

	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	if err := setBool(&c.Orders.VerifyMenuItems, "VERIFY_MENU_ITEMS"); err != nil {
		return err
	}

	setString(&c.Events.Backend, "EVENTS_BACKEND")
	setString(&c.Events.QueueURL, "ORDERS_QUEUE_URL")
	setString(&c.Events.AMQPURL, "AMQP_URL")
	setString(&c.Idempotency.Table, "IDEMPOTENCY_TABLE")
	setString(&c.Metrics.Namespace, "METRICS_NAMESPACE")

	setString(&c.Storage.Backend, "STORAGE_BACKEND")
	setString(&c.Storage.UploadDir, "UPLOAD_DIR")
	setString(&c.Storage.Bucket, "UPLOAD_BUCKET")
	setString(&c.Storage.BaseURL, "UPLOAD_BASE_URL")

	setString(&c.Log.Level, "LOG_LEVEL")
	return nil
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	switch c.Events.Backend {
	case "none", "":
	case "sqs":
		if c.Events.QueueURL == "" {
			return errors.New("events.queue_url is required for the sqs backend")
		}
	case "amqp":
		if c.Events.AMQPURL == "" {
			return errors.New("events.amqp_url is required for the amqp backend")
		}
	default:
		return fmt.Errorf("unknown events backend %q", c.Events.Backend)
	}

	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

// DatabaseURL returns a PostgreSQL connection URL.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Database, c.Database.SSLMode)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = b
	return nil
}
