package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "void-duel"

type ServerConfig struct {
	Port           int      `json:"port" mapstructure:"port"`
	AllowedOrigins []string `json:"allowedOrigins" mapstructure:"allowedOrigins"`
}

type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

// MatchConfig seeds new matches. Seed 0 picks a seed from the clock and an
// empty Scenario uses the built-in layout. Matches untouched for
// IdleTimeout are dropped.
type MatchConfig struct {
	Seed        int64         `json:"seed" mapstructure:"seed"`
	Scenario    string        `json:"scenario" mapstructure:"scenario"`
	IdleTimeout time.Duration `json:"idleTimeout" mapstructure:"idleTimeout"`
}

// StatsConfig selects the results ledger: memory, sqlite or postgres.
type StatsConfig struct {
	Driver string `json:"driver" mapstructure:"driver"`
	DSN    string `json:"dsn" mapstructure:"dsn"`
}

// MetricsConfig controls the OpenTelemetry meter provider. When enabled,
// counters are exported to stdout, to an OTLP endpoint, or both.
type MetricsConfig struct {
	Enabled     bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName string        `json:"serviceName" mapstructure:"serviceName"`
	Interval    time.Duration `json:"interval" mapstructure:"interval"`
	Stdout      bool          `json:"stdout" mapstructure:"stdout"`
	Endpoint    string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure    bool          `json:"insecure" mapstructure:"insecure"`
}

// Settings is the typed view of the loaded configuration.
type Settings struct {
	Server  ServerConfig  `json:"server" mapstructure:"server"`
	Log     LogConfig     `json:"log" mapstructure:"log"`
	Match   MatchConfig   `json:"match" mapstructure:"match"`
	Stats   StatsConfig   `json:"stats" mapstructure:"stats"`
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`
}

// Load sets defaults, reads void-duel.yaml from configDir when present and
// binds VOID_DUEL_* environment variables. A missing file is not an error.
func Load(configDir string) error {
	viper.SetDefault("server.port", 8081)
	viper.SetDefault("server.allowedOrigins", []string{})

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")

	viper.SetDefault("match.seed", 0)
	viper.SetDefault("match.scenario", "")
	viper.SetDefault("match.idleTimeout", "30m")

	viper.SetDefault("stats.driver", "memory")
	viper.SetDefault("stats.dsn", "")

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.serviceName", "void-duel")
	viper.SetDefault("metrics.interval", "30s")
	viper.SetDefault("metrics.stdout", true)
	viper.SetDefault("metrics.endpoint", "")
	viper.SetDefault("metrics.insecure", false)

	viper.SetEnvPrefix("VOID_DUEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.SetConfigType("yaml")
	if configDir != "" {
		viper.AddConfigPath(configDir)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// Current decodes the loaded values into Settings.
func Current() (Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if s.Match.IdleTimeout <= 0 {
		return Settings{}, fmt.Errorf("match.idleTimeout must be positive, got %s", s.Match.IdleTimeout)
	}
	switch s.Stats.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return Settings{}, fmt.Errorf("unknown stats driver %q", s.Stats.Driver)
	}
	return s, nil
}

// ConfigFile is the path of the file that was read, or "" when running on
// defaults.
func ConfigFile() string {
	return viper.ConfigFileUsed()
}
