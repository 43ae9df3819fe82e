package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. REWARDS_DB_PATH.
const EnvPrefix = "REWARDS"

// #region types
// Config is the application configuration for the rewards CLI and server.
type Config struct {
	DBPath      string    `mapstructure:"db_path"`
	ListenAddr  string    `mapstructure:"listen_addr"`
	MetricsAddr string    `mapstructure:"metrics_addr"`
	ProfilePath string    `mapstructure:"profile"`
	Log         LogConfig `mapstructure:"log"`
}

// LogConfig selects logger level and format.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DBPath:      "rewards.db",
		ListenAddr:  "127.0.0.1:50071",
		MetricsAddr: "127.0.0.1:9471",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// #endregion types

// #region flags
// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"db":           "db_path",
	"listen":       "listen_addr",
	"metrics-addr": "metrics_addr",
	"profile":      "profile",
	"log-level":    "log.level",
	"log-format":   "log.format",
}

// #endregion flags

// #region load
// Load resolves configuration from defaults, an optional YAML file, REWARDS_*
// environment variables and changed flags, in increasing precedence. An
// empty path searches ./rewards.yaml and is not an error when absent.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("rewards")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for flag, key := range flagKeys {
			if f := flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("profile", d.ProfilePath)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// #endregion load

// #region validate
// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks enumerated fields. Empty addresses disable the
// corresponding listener and are allowed.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// #endregion validate
