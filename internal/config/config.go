// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values for the API server and atobctl.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	CORSOrigins []string

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64

	JWT   JWTConfig
	Links LinkConfig
	Mail  MailConfig
	Vault VaultConfig
}

// JWTConfig configures token signing.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
	Duration time.Duration
}

// LinkConfig holds the front-end pages that emailed tokens point to.
type LinkConfig struct {
	ConfirmEmailURL  string
	ResetPasswordURL string
}

// MailConfig selects and configures the mail transport.
type MailConfig struct {
	Transport    string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	NoReplyName  string
	NoReplyEmail string
	SupportName  string
	SupportEmail string
	KafkaBrokers []string
	KafkaTopic   string
}

// VaultConfig locates the optional KV v2 secret that overrides credentials.
type VaultConfig struct {
	Address  string
	Token    string
	RoleID   string
	SecretID string
	Mount    string
	Path     string
}

// Enabled reports whether a Vault address was configured.
func (v VaultConfig) Enabled() bool { return v.Address != "" }

var defaults = map[string]any{
	"PORT":                   "8080",
	"LOG_LEVEL":              "info",
	"CORS_ORIGINS":           "http://localhost:5173",
	"MAX_BODY_BYTES":         1 << 20,
	"JWT_ISSUER":             "atob-api",
	"JWT_AUDIENCE":           "atob-web",
	"JWT_DURATION_HOURS":     24,
	"CONFIRMATION_EMAIL_URL": "http://localhost:5173/confirm-email",
	"RESET_PASSWORD_URL":     "http://localhost:5173/reset-password",
	"MAIL_TRANSPORT":         "log",
	"SMTP_PORT":              587,
	"MAIL_NOREPLY_NAME":      "A to B",
	"MAIL_NOREPLY_EMAIL":     "no-reply@atob.local",
	"MAIL_SUPPORT_NAME":      "A to B Support",
	"MAIL_SUPPORT_EMAIL":     "support@atob.local",
	"KAFKA_MAIL_TOPIC":       "atob.mail",
	"VAULT_MOUNT":            "secret",
	"VAULT_SECRET_PATH":      "atob",
}

var keys = []string{
	"DATABASE_URL", "JWT_SECRET",
	"SMTP_HOST", "SMTP_USERNAME", "SMTP_PASSWORD", "KAFKA_BROKERS",
	"VAULT_ADDR", "VAULT_TOKEN", "VAULT_ROLE_ID", "VAULT_SECRET_ID",
}

// Load reads configuration from environment variables and returns a Config.
// Empty variables count as unset. Returns an error listing any required
// variables that are missing.
func Load() (Config, error) {
	v := viper.New()
	for key, def := range defaults {
		v.SetDefault(key, def)
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("config.Load: bind %s: %w", key, err)
		}
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("config.Load: bind %s: %w", key, err)
		}
	}
	v.AutomaticEnv()

	cfg := Config{
		Port:         v.GetString("PORT"),
		DatabaseURL:  v.GetString("DATABASE_URL"),
		LogLevel:     v.GetString("LOG_LEVEL"),
		CORSOrigins:  splitCSV(v.GetString("CORS_ORIGINS")),
		MaxBodyBytes: v.GetInt64("MAX_BODY_BYTES"),
		JWT: JWTConfig{
			Secret:   v.GetString("JWT_SECRET"),
			Issuer:   v.GetString("JWT_ISSUER"),
			Audience: v.GetString("JWT_AUDIENCE"),
			Duration: time.Duration(v.GetInt("JWT_DURATION_HOURS")) * time.Hour,
		},
		Links: LinkConfig{
			ConfirmEmailURL:  v.GetString("CONFIRMATION_EMAIL_URL"),
			ResetPasswordURL: v.GetString("RESET_PASSWORD_URL"),
		},
		Mail: MailConfig{
			Transport:    strings.ToLower(v.GetString("MAIL_TRANSPORT")),
			SMTPHost:     v.GetString("SMTP_HOST"),
			SMTPPort:     v.GetInt("SMTP_PORT"),
			SMTPUsername: v.GetString("SMTP_USERNAME"),
			SMTPPassword: v.GetString("SMTP_PASSWORD"),
			NoReplyName:  v.GetString("MAIL_NOREPLY_NAME"),
			NoReplyEmail: v.GetString("MAIL_NOREPLY_EMAIL"),
			SupportName:  v.GetString("MAIL_SUPPORT_NAME"),
			SupportEmail: v.GetString("MAIL_SUPPORT_EMAIL"),
			KafkaBrokers: splitCSV(v.GetString("KAFKA_BROKERS")),
			KafkaTopic:   v.GetString("KAFKA_MAIL_TOPIC"),
		},
		Vault: VaultConfig{
			Address:  v.GetString("VAULT_ADDR"),
			Token:    v.GetString("VAULT_TOKEN"),
			RoleID:   v.GetString("VAULT_ROLE_ID"),
			SecretID: v.GetString("VAULT_SECRET_ID"),
			Mount:    v.GetString("VAULT_MOUNT"),
			Path:     v.GetString("VAULT_SECRET_PATH"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDatabase reads only what atobctl needs: DATABASE_URL and LOG_LEVEL.
func LoadDatabase() (Config, error) {
	v := viper.New()
	v.SetDefault("LOG_LEVEL", "info")
	_ = v.BindEnv("LOG_LEVEL")
	_ = v.BindEnv("DATABASE_URL")

	cfg := Config{DatabaseURL: v.GetString("DATABASE_URL"), LogLevel: v.GetString("LOG_LEVEL")}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("required environment variables not set: DATABASE_URL")
	}
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	// The secret may arrive from Vault after Load.
	if c.JWT.Secret == "" && !c.Vault.Enabled() {
		missing = append(missing, "JWT_SECRET")
	}
	switch c.Mail.Transport {
	case "smtp":
		if c.Mail.SMTPHost == "" {
			missing = append(missing, "SMTP_HOST")
		}
	case "kafka":
		if len(c.Mail.KafkaBrokers) == 0 {
			missing = append(missing, "KAFKA_BROKERS")
		}
	case "log":
	default:
		return fmt.Errorf("MAIL_TRANSPORT must be log, smtp or kafka, got %q", c.Mail.Transport)
	}
	if len(missing) > 0 {
		return fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if c.JWT.Duration <= 0 {
		return errors.New("JWT_DURATION_HOURS must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be positive")
	}
	return nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
