// Package config loads packet store settings from an optional config file
// and PACKETSTORE_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/0xRadioAc7iv/go-packetstore/internal/logger"
	"github.com/spf13/viper"
)

// EnvPrefix selects the environment variables Load reads.
// PACKETSTORE_AUTOCOMPACTION_INTERVAL maps to autocompaction.interval.
const EnvPrefix = "PACKETSTORE_"

type Config struct {
	// Dir is the manager base directory. Empty selects ~/.mqtt-packetstore.
	Dir     string `mapstructure:"dir"`
	Engine  string `mapstructure:"engine"`
	Bprefix string `mapstructure:"bprefix"`
	Limit   int    `mapstructure:"limit"`

	Autocompaction Autocompaction `mapstructure:"autocompaction"`

	Log logger.Config `mapstructure:"log"`
}

type Autocompaction struct {
	// Interval enables periodic compaction when positive.
	Interval time.Duration `mapstructure:"interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dir", "")
	v.SetDefault("engine", "log")
	v.SetDefault("bprefix", "b:base64:")
	v.SetDefault("limit", 500)
	v.SetDefault("autocompaction.interval", time.Duration(0))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.add_source", false)
}

// Load reads path if given, otherwise packetstore.{yaml,json,toml} from the
// working directory if one exists, then applies environment overrides.
// A missing default config file is not an error; a missing explicit one is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("packetstore")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// PACKETSTORE_LOG_LEVEL -> log.level
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}

		prop := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, EnvPrefix), "_", "."))
		v.Set(strings.TrimPrefix(prop, "."), value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
