package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/airbrb/booking-client/internal/platform/logger"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMongo  = "mongo"
)

// Config holds all configuration for the client.
type Config struct {
	BackendURL          string        `mapstructure:"BACKEND_URL"`
	RequestTimeout      time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	PollInterval        time.Duration `mapstructure:"POLL_INTERVAL"`
	HostRefreshInterval time.Duration `mapstructure:"HOST_REFRESH_INTERVAL"`
	MaxNotifications    int           `mapstructure:"MAX_NOTIFICATIONS"`

	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	StateDir      string `mapstructure:"STATE_DIR"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	NATSURL string `mapstructure:"NATS_URL"`

	SMTP SMTPConfig `mapstructure:",squash"`

	MinIOEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinIOAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinIOBucket    string `mapstructure:"MINIO_BUCKET"`
	MinIOUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`

	HTTPAddr               string `mapstructure:"HTTP_ADDR"`
	PrometheusMetricsPort  string `mapstructure:"PROMETHEUS_METRICS_PORT"`
	OTExporterOTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	LogLevel               string `mapstructure:"LOG_LEVEL"`
	LogFormat              string `mapstructure:"LOG_FORMAT"`
}

// SMTPConfig configures the optional notification e-mail sink.
type SMTPConfig struct {
	Host        string `mapstructure:"SMTP_HOST"`
	Port        int    `mapstructure:"SMTP_PORT"`
	Username    string `mapstructure:"SMTP_USERNAME"`
	Password    string `mapstructure:"SMTP_PASSWORD"`
	SenderEmail string `mapstructure:"SMTP_SENDER_EMAIL"`
}

// Enabled reports whether enough of the SMTP settings are present to try sending.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.SenderEmail != ""
}

var defaults = map[string]any{
	"BACKEND_URL":                 "http://localhost:5005",
	"REQUEST_TIMEOUT":             "10s",
	"POLL_INTERVAL":               "6s",
	"HOST_REFRESH_INTERVAL":       "60s",
	"MAX_NOTIFICATIONS":           30,
	"STORAGE_DRIVER":              StorageSQLite,
	"STATE_DIR":                   ".airbrb",
	"REDIS_ADDR":                  "localhost:6379",
	"REDIS_PASSWORD":              "",
	"REDIS_DB":                    0,
	"MONGO_URI":                   "mongodb://localhost:27017",
	"MONGO_DATABASE":              "airbrb_client",
	"NATS_URL":                    "",
	"SMTP_HOST":                   "",
	"SMTP_PORT":                   587,
	"SMTP_USERNAME":               "",
	"SMTP_PASSWORD":               "",
	"SMTP_SENDER_EMAIL":           "",
	"MINIO_ENDPOINT":              "",
	"MINIO_ACCESS_KEY":            "",
	"MINIO_SECRET_KEY":            "",
	"MINIO_BUCKET":                "airbrb-media",
	"MINIO_USE_SSL":               false,
	"HTTP_ADDR":                   "127.0.0.1:8089",
	"PROMETHEUS_METRICS_PORT":     "",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"LOG_LEVEL":                   "info",
	"LOG_FORMAT":                  "console",
}

// LoadConfig reads configuration from the environment and an optional
// config.env file in the working directory (or the path given in configFile).
func LoadConfig(appLogger *logger.Logger, configFile string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("env")
		v.AddConfigPath(".")
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
		appLogger.Debug("No config.env found, relying on environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		appLogger.Error("Failed to unmarshal configuration", zap.Error(err))
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	appLogger.Debug("Configuration loaded",
		zap.String("backend_url", cfg.BackendURL),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Duration("host_refresh_interval", cfg.HostRefreshInterval),
		zap.String("storage_driver", cfg.StorageDriver),
		zap.Bool("nats_enabled", cfg.NATSURL != ""),
		zap.Bool("smtp_enabled", cfg.SMTP.Enabled()),
		zap.Bool("minio_enabled", cfg.MinIOEndpoint != ""),
		zap.String("otel_endpoint", cfg.OTExporterOTLPEndpoint),
	)
	return &cfg, nil
}

// Validate checks values that would otherwise fail later in confusing ways.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return errors.New("BACKEND_URL is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.HostRefreshInterval < 0 {
		return fmt.Errorf("HOST_REFRESH_INTERVAL must not be negative, got %s", c.HostRefreshInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.MaxNotifications <= 0 {
		return fmt.Errorf("MAX_NOTIFICATIONS must be positive, got %d", c.MaxNotifications)
	}
	switch c.StorageDriver {
	case StorageSQLite, StorageRedis, StorageMongo:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	return nil
}
