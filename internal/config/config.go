// Package config loads application configuration from config.yaml and the
// environment and owns global logger setup.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Ingest   IngestConfig   `yaml:"ingest" mapstructure:"ingest"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Features FeaturesConfig `yaml:"features" mapstructure:"features"`
	Index    IndexConfig    `yaml:"index" mapstructure:"index"`
	Sink     SinkConfig     `yaml:"sink" mapstructure:"sink"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// IngestConfig configures footprint loading.
type IngestConfig struct {
	Format   string `yaml:"format" mapstructure:"format"`
	IDField  string `yaml:"id_field" mapstructure:"id_field"`
	LonField string `yaml:"lon_field" mapstructure:"lon_field"`
	LatField string `yaml:"lat_field" mapstructure:"lat_field"`
}

// PipelineConfig configures the two-stage feature run.
type PipelineConfig struct {
	Workers             int  `yaml:"workers" mapstructure:"workers"`
	MaxRecordsPerWorker int  `yaml:"max_records_per_worker" mapstructure:"max_records_per_worker"`
	BestEffort          bool `yaml:"best_effort" mapstructure:"best_effort"`
}

// FeaturesConfig configures the neighbor scan.
type FeaturesConfig struct {
	Radii []float64 `yaml:"radii" mapstructure:"radii"`
}

// IndexConfig configures spatial index construction.
type IndexConfig struct {
	// Coords selects which centroid coordinates feed the index:
	// "geographic" (degrees) or "planar" (meters).
	Coords string `yaml:"coords" mapstructure:"coords"`
}

// SinkConfig configures feature output.
type SinkConfig struct {
	Format    string `yaml:"format" mapstructure:"format"`
	Path      string `yaml:"path" mapstructure:"path"`
	DSN       string `yaml:"dsn" mapstructure:"dsn"`
	Schema    string `yaml:"schema" mapstructure:"schema"`
	Table     string `yaml:"table" mapstructure:"table"`
	BatchSize int    `yaml:"batch_size" mapstructure:"batch_size"`
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
	v.SetEnvPrefix("GAUNTLET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ingest.format", "shapefile")
	v.SetDefault("ingest.id_field", "BUILD_ID")
	v.SetDefault("pipeline.workers", 0)
	v.SetDefault("pipeline.max_records_per_worker", 150000)
	v.SetDefault("pipeline.best_effort", false)
	v.SetDefault("features.radii", []float64{50, 100, 250, 500, 1000})
	v.SetDefault("index.coords", "geographic")
	v.SetDefault("sink.format", "csv")
	v.SetDefault("sink.table", "building_features")
	v.SetDefault("sink.batch_size", 50000)
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
