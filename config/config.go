package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/pitfall"
	"github.com/sagarc03/pitfall/database"
	pitfallhttp "github.com/sagarc03/pitfall/http"
	"github.com/sagarc03/pitfall/userstore"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for pitfall.
type Config struct {
	Env        string                 `mapstructure:"env"`
	Server     ServerConfig           `mapstructure:"server"`
	Files      FilesConfig            `mapstructure:"files"`
	Users      UsersConfig            `mapstructure:"users"`
	Login      LoginConfig            `mapstructure:"login"`
	Counter    CounterConfig          `mapstructure:"counter"`
	Monitor    MonitorConfig          `mapstructure:"monitor"`
	Duplicates DuplicatesConfig       `mapstructure:"duplicates"`
	Metrics    MetricsConfig          `mapstructure:"metrics"`
	CORS       pitfallhttp.CORSConfig `mapstructure:"cors"`
	Log        LogConfig              `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	RateLimit       float64       `mapstructure:"rate_limit" validate:"min=0"`
	RateBurst       int           `mapstructure:"rate_burst" validate:"min=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

// FilesConfig holds the uploads directory configuration.
type FilesConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// UsersConfig selects and seeds the credential store backend.
type UsersConfig struct {
	Backend string               `mapstructure:"backend" validate:"required,oneof=memory sqlite postgres"`
	DSN     string               `mapstructure:"dsn" validate:"required_if=Backend postgres"`
	Table   string               `mapstructure:"table" validate:"required"`
	File    string               `mapstructure:"file"`
	Inline  []pitfall.UserRecord `mapstructure:"inline"`
}

// Database returns the backend connection settings.
func (u UsersConfig) Database() database.Config {
	return database.Config{
		Type:   u.Backend,
		DSN:    u.DSN,
		Tables: pitfall.Tables{Users: u.Table},
	}
}

// Seed returns the records to load on top of the default users.
func (u UsersConfig) Seed() userstore.SeedConfig {
	return userstore.SeedConfig{Inline: u.Inline, File: u.File}
}

// LoginConfig holds login response options.
type LoginConfig struct {
	RedactPassword bool `mapstructure:"redact_password"`
}

// CounterConfig holds the serialized counter timings.
type CounterConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	WorkDuration time.Duration `mapstructure:"work_duration" validate:"min=0"`
}

// MonitorConfig holds monitor task defaults.
type MonitorConfig struct {
	DefaultInterval time.Duration `mapstructure:"default_interval" validate:"gt=0"`
}

// DuplicatesConfig sizes the random sequence searched for duplicates.
type DuplicatesConfig struct {
	Size int `mapstructure:"size" validate:"min=1"`
	Max  int `mapstructure:"max" validate:"min=1"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// ServiceConfig maps the loaded values onto pitfall.ServiceConfig.
func (c *Config) ServiceConfig(logger *slog.Logger) pitfall.ServiceConfig {
	return pitfall.ServiceConfig{
		Counter: pitfall.CounterConfig{
			PollInterval: c.Counter.PollInterval,
			WorkDuration: c.Counter.WorkDuration,
		},
		MonitorInterval: c.Monitor.DefaultInterval,
		SequenceSize:    c.Duplicates.Size,
		SequenceMax:     c.Duplicates.Max,
		Logger:          logger,
	}
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":            "server.port",
	"rate-limit":      "server.rate_limit",
	"rate-burst":      "server.rate_burst",
	"files-path":      "files.path",
	"users-backend":   "users.backend",
	"users-dsn":       "users.dsn",
	"users-file":      "users.file",
	"redact-password": "login.redact_password",
	"metrics":         "metrics.enabled",
	"log-level":       "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// DefaultFilesPath is the uploads directory next to the running executable.
// It falls back to ./uploads when the executable path is unknown.
func DefaultFilesPath() string {
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join(".", "uploads")
	}
	return filepath.Join(filepath.Dir(exe), "uploads")
}

// setDefaults configures default values on the viper instance.
// Every key needs a default for AutomaticEnv to reach it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.rate_limit", 0) // 0 disables rate limiting
	v.SetDefault("server.rate_burst", 0)
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("files.path", DefaultFilesPath())

	v.SetDefault("users.backend", "memory")
	v.SetDefault("users.dsn", "")
	v.SetDefault("users.table", "pitfall_users")
	v.SetDefault("users.file", "")

	v.SetDefault("login.redact_password", false)

	v.SetDefault("counter.poll_interval", pitfall.DefaultPollInterval.String())
	v.SetDefault("counter.work_duration", pitfall.DefaultWorkDuration.String())

	v.SetDefault("monitor.default_interval", pitfall.DefaultMonitorInterval.String())

	v.SetDefault("duplicates.size", pitfall.DefaultSequenceSize)
	v.SetDefault("duplicates.max", pitfall.DefaultSequenceMax)

	v.SetDefault("metrics.enabled", false)

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type"})
	v.SetDefault("cors.exposed_headers", []string{})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("PITFALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err := cfg.Users.Database().Tables.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// The users file is read at startup; inline records are checked against the defaults here.
	if _, err := userstore.Seed(userstore.SeedConfig{Inline: cfg.Users.Inline}); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
