// Package config loads service configuration from config.yaml, .env and the environment.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Data    DataConfig    `yaml:"data" mapstructure:"data"`
	Model   ModelConfig   `yaml:"model" mapstructure:"model"`
	Maps    MapsConfig    `yaml:"maps" mapstructure:"maps"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Predict PredictConfig `yaml:"predict" mapstructure:"predict"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port             int `yaml:"port" mapstructure:"port"`
	WriteTimeoutSecs int `yaml:"write_timeout_secs" mapstructure:"write_timeout_secs"`
}

// DataConfig selects where the delivery snapshot is read from.
type DataConfig struct {
	Source      string `yaml:"source" mapstructure:"source"` // file, sqlite, postgres
	Path        string `yaml:"path" mapstructure:"path"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ModelConfig locates the regression artifact.
type ModelConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
	Warm bool   `yaml:"warm" mapstructure:"warm"`
}

// MapsConfig tunes the map layer.
type MapsConfig struct {
	SampleCap    int     `yaml:"sample_cap" mapstructure:"sample_cap"`
	CellSizeDeg  float64 `yaml:"cell_size_deg" mapstructure:"cell_size_deg"`
	Zoom         int     `yaml:"zoom" mapstructure:"zoom"`
	HotspotsPath string  `yaml:"hotspots_path" mapstructure:"hotspots_path"`
}

// CacheConfig configures the rendered-chart cache.
type CacheConfig struct {
	Driver     string `yaml:"driver" mapstructure:"driver"` // none, redis, sqlite
	RedisAddr  string `yaml:"redis_addr" mapstructure:"redis_addr"`
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	TTLSecs    int    `yaml:"ttl_secs" mapstructure:"ttl_secs"`
}

// PredictConfig rate limits the prediction endpoint.
type PredictConfig struct {
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst      int     `yaml:"burst" mapstructure:"burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config.yaml and environment.
// Environment variables use the DASHBOARD_ prefix, e.g. DASHBOARD_DATA_PATH.
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("DASHBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.write_timeout_secs", 30)
	v.SetDefault("data.source", "file")
	v.SetDefault("data.path", "data/Clean_amazon_delivery.csv")
	v.SetDefault("data.sqlite_path", "data/app.db")
	v.SetDefault("data.database_url", "")
	v.SetDefault("model.path", "data/model.json")
	v.SetDefault("model.warm", true)
	v.SetDefault("maps.sample_cap", 1000)
	v.SetDefault("maps.cell_size_deg", 0.01)
	v.SetDefault("maps.zoom", 10)
	v.SetDefault("maps.hotspots_path", "data/foliumMapping.html")
	v.SetDefault("cache.driver", "none")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.sqlite_path", "data/cache.db")
	v.SetDefault("cache.ttl_secs", 600)
	v.SetDefault("predict.rate_per_sec", 5.0)
	v.SetDefault("predict.burst", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case "file", "sqlite", "postgres":
	default:
		return eris.Errorf("config: unknown data.source %q", c.Data.Source)
	}
	if c.Data.Source == "postgres" && strings.TrimSpace(c.Data.DatabaseURL) == "" {
		return eris.New("config: data.database_url is required for the postgres source")
	}
	switch c.Cache.Driver {
	case "none", "redis", "sqlite":
	default:
		return eris.Errorf("config: unknown cache.driver %q", c.Cache.Driver)
	}
	if c.Maps.SampleCap < 1 {
		return eris.New("config: maps.sample_cap must be positive")
	}
	if c.Maps.CellSizeDeg <= 0 {
		return eris.New("config: maps.cell_size_deg must be positive")
	}
	if c.Predict.RatePerSec <= 0 || c.Predict.Burst < 1 {
		return eris.New("config: predict.rate_per_sec and predict.burst must be positive")
	}
	return nil
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
