package config

import "time"

// Store backends
const (
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Store    StoreConfig    `mapstructure:"store" validate:"required"`
	Mail     MailConfig     `mapstructure:"mail"`
	Reminder ReminderConfig `mapstructure:"reminder" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// AppURL is the public URL of the web client, used for links in emails.
	AppURL string `mapstructure:"app_url" validate:"required,url"`
}

// DatabaseConfig contains PostgreSQL connection settings.
// URL is required when the store backend is postgres.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url" validate:"omitempty,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend            string `mapstructure:"backend" validate:"required,oneof=postgres firestore"`
	FirestoreProjectID string `mapstructure:"firestore_project_id"`
}

// MailConfig holds SMTP settings for outbound reminder emails.
type MailConfig struct {
	Host     string        `mapstructure:"host" validate:"required_with=Username"`
	Port     int           `mapstructure:"port" validate:"gt=0,lt=65536"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Sender   string        `mapstructure:"sender" validate:"required_with=Username"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// Enabled reports whether mail credentials are configured. Reminder scheduling
// is gated on this flag.
func (m MailConfig) Enabled() bool {
	return m.Username != "" && m.Password != ""
}

// ReminderConfig tunes the reminder pass.
type ReminderConfig struct {
	// Concurrency bounds how many candidates are processed at once within a pass.
	Concurrency int `mapstructure:"concurrency" validate:"gte=1,lte=64"`
	// SendTimeout bounds the wait on a single delivery; zero disables it. A
	// delivery that times out may still complete and be sent again next pass.
	SendTimeout time.Duration `mapstructure:"send_timeout" validate:"gte=0"`
}
