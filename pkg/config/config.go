package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the NetworkTables client.
//
// Configuration sources, in order of precedence:
//  1. CLI flags (highest priority, bound by the caller)
//  2. Environment variables (NT_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Address is the host:port of the NetworkTables server to dial.
	Address string `mapstructure:"address" validate:"required" yaml:"address"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// KeepAlive is the interval at which the send loop emits a keep-alive
	// message, whether or not other traffic was sent.
	KeepAlive time.Duration `mapstructure:"keep_alive" validate:"required,gt=0" yaml:"keep_alive"`

	// TickInterval is the send loop's poll interval for the outgoing queue.
	TickInterval time.Duration `mapstructure:"tick_interval" validate:"required,gt=0" yaml:"tick_interval"`

	// Telemetry controls OpenTelemetry distributed tracing.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics controls Prometheus metrics collection.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format.
	// Valid values: text, json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing. When enabled,
// span data is exported to an OTLP-compatible collector.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// ServiceName identifies this client in exported spans.
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`

	// Endpoint is the OTLP collector endpoint (host:port).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use a non-TLS connection to the collector.
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0). 1.0 samples
	// every span; anything lower selects a ratio-based sampler.
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
}

// MetricsConfig configures the Prometheus metrics HTTP server. When Enabled
// is false, no metrics are collected and the store's metrics field stays nil.
type MetricsConfig struct {
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled"`
	ListenAddress string `mapstructure:"listen_address" yaml:"listen_address"`
}

// Default returns the configuration a freshly-installed client should use:
// the fixed 20ms/1s cadence spec.md describes, text logging at INFO, and
// telemetry/metrics disabled.
func Default() *Config {
	return &Config{
		Address: "localhost:1735",
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
		KeepAlive:    time.Second,
		TickInterval: 20 * time.Millisecond,
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "ntclient",
			Endpoint:    "localhost:4317",
			Insecure:    true,
			SampleRate:  1.0,
		},
		Metrics: MetricsConfig{
			Enabled:       false,
			ListenAddress: ":9090",
		},
	}
}

// Load loads configuration from defaults, file, and environment, in that
// increasing order of precedence, and validates the result.
//
// An empty configPath searches the default configuration directory (see
// GetDefaultConfigPath). A missing file is not an error: Default() is then
// returned with only NT_ADDRESS applied on top of it.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if !found {
		applyEnv(v, cfg)
		if err := Validate(cfg); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
		return cfg, nil
	}

	if err := v.Unmarshal(cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnv re-reads address via viper so NT_ADDRESS takes effect even when
// no config file is present and Unmarshal was skipped.
func applyEnv(v *viper.Viper, cfg *Config) {
	if addr := v.GetString("address"); addr != "" {
		cfg.Address = addr
	}
}

// Validate checks cfg against its struct tags using go-playground/validator.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// SaveConfig writes cfg to path in YAML format.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variable and config file
// support. Environment variables use the NT_ prefix; nested fields are
// addressed with underscores, e.g. NT_LOGGING_LEVEL=DEBUG. Such a variable
// overrides only a key the configuration file sets; when no file is found,
// NT_ADDRESS is the only variable read.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("NT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. Returns
// (fileFound, error); a missing file is not an error.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// durationDecodeHook converts human-readable duration strings ("30s", "1m")
// to time.Duration during mapstructure decoding.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory, honoring XDG_CONFIG_HOME.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "ntclient")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "ntclient")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
