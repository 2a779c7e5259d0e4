package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for all settings.
const envPrefix = "FUNCALIGN"

// newViper builds a pre-configured viper instance: YAML file type,
// FUNCALIGN_ env prefix, automatic env binding, and a key replacer that
// maps "." to "_" so nested keys like "log.level" resolve to
// FUNCALIGN_LOG_LEVEL. Defaults are registered here so env-only keys are
// visible to Unmarshal.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("method", "identity")
	v.SetDefault("pieces", 1)
	v.SetDefault("scaling", false)
	v.SetDefault("reg", 1.0)
	v.SetDefault("sinkhorn_iterations", 1000)
	v.SetDefault("ridge_alphas", []float64{0.1, 1, 10, 100, 1000})
	v.SetDefault("ridge_cv_folds", 4)
	v.SetDefault("bags", 1)
	v.SetDefault("seed", 0)
	v.SetDefault("workers", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	return v
}

// Load reads the YAML file at path, merges FUNCALIGN_* environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	return finalize(v)
}

// LoadFromEnv builds a Config from FUNCALIGN_* environment variables and
// defaults alone, with no config file.
func LoadFromEnv() (*Config, error) {
	return finalize(newViper())
}

func finalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
