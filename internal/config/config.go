// Package config loads application configuration from a YAML file and
// DEDUPE_-prefixed environment variables.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/barstream/catalog-dedupe/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Match  MatchConfig  `yaml:"match" mapstructure:"match"`
	Scan   ScanConfig   `yaml:"scan" mapstructure:"scan"`
	Merge  MergeConfig  `yaml:"merge" mapstructure:"merge"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// MatchConfig configures similarity scoring weights and reasoning thresholds.
type MatchConfig struct {
	BrandWeight            float64 `yaml:"brand_weight" mapstructure:"brand_weight"`
	VolumeWeight           float64 `yaml:"volume_weight" mapstructure:"volume_weight"`
	TokenWeight            float64 `yaml:"token_weight" mapstructure:"token_weight"`
	BrandReasonThreshold   float64 `yaml:"brand_reason_threshold" mapstructure:"brand_reason_threshold"`
	OverlapReasonThreshold float64 `yaml:"overlap_reason_threshold" mapstructure:"overlap_reason_threshold"`
}

// ScanConfig configures scan defaults.
type ScanConfig struct {
	MinConfidence  float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	MaxProducts    int     `yaml:"max_products" mapstructure:"max_products"`
	PairsPerSecond float64 `yaml:"pairs_per_second" mapstructure:"pairs_per_second"`
}

// MergeConfig configures merge step retries.
type MergeConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DEDUPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.pool.max_conns", 10)
	v.SetDefault("store.pool.min_conns", 2)
	v.SetDefault("match.brand_weight", 0.4)
	v.SetDefault("match.volume_weight", 0.3)
	v.SetDefault("match.token_weight", 0.3)
	v.SetDefault("match.brand_reason_threshold", 0.8)
	v.SetDefault("match.overlap_reason_threshold", 0.5)
	v.SetDefault("scan.min_confidence", 0.70)
	v.SetDefault("scan.max_products", 500)
	v.SetDefault("scan.pairs_per_second", 0)
	v.SetDefault("merge.max_attempts", 3)
	v.SetDefault("merge.initial_backoff_ms", 500)
	v.SetDefault("merge.max_backoff_ms", 10000)
	v.SetDefault("merge.multiplier", 2.0)
	v.SetDefault("merge.jitter_fraction", 0.25)
	v.SetDefault("server.port", 8080)
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

	return &cfg, nil
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
