package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/conduit-lang/querymodel/internal/orm/planner"
)

// EnvPrefix prefixes environment overrides, e.g. QUERYMODEL_COMPILER_MAX_FETCH_DEPTH
const EnvPrefix = "QUERYMODEL"

// Config represents the querymodel configuration
type Config struct {
	Model    ModelConfig    `mapstructure:"model"`
	Compiler CompilerConfig `mapstructure:"compiler"`
	Log      LogConfig      `mapstructure:"log"`

	file string
}

// ModelConfig locates the metadata model
type ModelConfig struct {
	Path string `mapstructure:"path"`
}

// CompilerConfig tunes load plan building
type CompilerConfig struct {
	MaxFetchDepth       int `mapstructure:"max_fetch_depth"`
	CollectionJoinLimit int `mapstructure:"collection_join_limit"`
	PlanCacheSize       int `mapstructure:"plan_cache_size"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load loads the configuration from path, or from querymodel.yml in the
// working directory when path is empty. A missing default file is not an
// error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("model.path", "model.yml")
	v.SetDefault("compiler.max_fetch_depth", 3)
	v.SetDefault("compiler.collection_join_limit", 1)
	v.SetDefault("compiler.plan_cache_size", 128)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("querymodel")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.file = v.ConfigFileUsed()

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// File returns the config file that was read, or "" when only defaults and
// environment were used
func (c *Config) File() string {
	return c.file
}

// ModelPath returns the model path. A relative path is taken relative to
// the config file.
func (c *Config) ModelPath() string {
	if c.file == "" || filepath.IsAbs(c.Model.Path) {
		return c.Model.Path
	}
	return filepath.Join(filepath.Dir(c.file), c.Model.Path)
}

// PlannerOptions converts the compiler section into planner options
func (c *Config) PlannerOptions() planner.Options {
	return planner.Options{
		MaxFetchDepth:       c.Compiler.MaxFetchDepth,
		CollectionJoinLimit: c.Compiler.CollectionJoinLimit,
		CacheSize:           c.Compiler.PlanCacheSize,
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Model.Path == "" {
		return fmt.Errorf("model.path must not be empty")
	}
	if cfg.Compiler.MaxFetchDepth < 0 {
		return fmt.Errorf("compiler.max_fetch_depth must be >= 0, got: %d", cfg.Compiler.MaxFetchDepth)
	}
	if cfg.Compiler.CollectionJoinLimit < 0 || cfg.Compiler.CollectionJoinLimit > 1 {
		return fmt.Errorf("compiler.collection_join_limit must be 0 or 1, got: %d", cfg.Compiler.CollectionJoinLimit)
	}
	if cfg.Compiler.PlanCacheSize < 0 {
		return fmt.Errorf("compiler.plan_cache_size must be >= 0, got: %d", cfg.Compiler.PlanCacheSize)
	}
	if _, err := parseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
