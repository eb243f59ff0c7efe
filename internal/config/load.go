package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. TASKFLOW_DATABASE_URL.
const EnvPrefix = "TASKFLOW"

// LoadOptions controls where Load looks for optional files.
type LoadOptions struct {
	// EnvFile is a dotenv file loaded before reading the environment.
	// Variables already present in the environment are not overridden.
	EnvFile string
	// ConfigPaths are searched for config.yaml.
	ConfigPaths []string
}

// DefaultLoadOptions looks for .env and config.yaml in the working directory.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		EnvFile:     ".env",
		ConfigPaths: []string{"."},
	}
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadWithOptions(DefaultLoadOptions())
}

// LoadWithOptions is Load with explicit file locations.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range opts.ConfigPaths {
		v.AddConfigPath(p)
	}
	if len(opts.ConfigPaths) > 0 {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.app_url", "http://localhost:3000")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")

	v.SetDefault("store.backend", BackendPostgres)
	v.SetDefault("store.firestore_project_id", "")

	v.SetDefault("mail.host", "smtp.gmail.com")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.sender", "")
	v.SetDefault("mail.timeout", "10s")

	v.SetDefault("reminder.concurrency", 1)
	v.SetDefault("reminder.send_timeout", "30s")
}

// Validate checks field constraints and the cross-field backend requirements.
func Validate(cfg *Config) error {
	validate := validator.New()
	validate.RegisterStructValidation(validateBackend, Config{})

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func validateBackend(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)

	switch cfg.Store.Backend {
	case BackendPostgres:
		if cfg.Database.URL == "" {
			sl.ReportError(cfg.Database.URL, "Database.URL", "URL", "required_for_postgres", "")
		}
	case BackendFirestore:
		if cfg.Store.FirestoreProjectID == "" {
			sl.ReportError(cfg.Store.FirestoreProjectID, "Store.FirestoreProjectID", "FirestoreProjectID", "required_for_firestore", "")
		}
	}
}
