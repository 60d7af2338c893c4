// Package config loads the cinderella configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"cinderella/internal/notify"
)

// EmailConfig holds the mail server failures are reported through.
type EmailConfig struct {
	Server   string   `toml:"server"`
	Port     int      `toml:"port"`
	User     string   `toml:"user"`
	Password string   `toml:"password"`
	From     string   `toml:"from"`
	To       []string `toml:"to"`
}

// Enabled reports whether enough is configured to send mail.
func (e EmailConfig) Enabled() bool {
	return e.Server != "" && e.From != "" && len(e.To) > 0
}

// SMTP converts the section to notifier settings.
func (e EmailConfig) SMTP() notify.SMTPConfig {
	return notify.SMTPConfig{
		Server:   e.Server,
		Port:     e.Port,
		User:     e.User,
		Password: e.Password,
		From:     e.From,
		To:       e.To,
	}
}

// DashboardConfig holds where status icons and build logs are written.
type DashboardConfig struct {
	Directory string `toml:"directory"`
}

// ServerConfig holds the build server settings.
type ServerConfig struct {
	Listen                string `toml:"listen"`
	WebhookSecret         string `toml:"webhook_secret"`
	AllowUnsignedWebhooks bool   `toml:"allow_unsigned_webhooks"`
}

// Config holds all cinderella configuration.
type Config struct {
	Email           EmailConfig     `toml:"email"`
	Dashboard       DashboardConfig `toml:"dashboard"`
	Server          ServerConfig    `toml:"server"`
	WorkRoot        string          `toml:"work_root"`
	SecretsPassword string          `toml:"secrets_password"`
}

const (
	defaultWorkRoot = "/tmp/cinderella"
	defaultListen   = ":8080"
)

// WorkRootOrDefault returns WorkRoot if set, otherwise /tmp/cinderella.
func (c Config) WorkRootOrDefault() string {
	if c.WorkRoot != "" {
		return c.WorkRoot
	}
	return defaultWorkRoot
}

// ListenOrDefault returns Server.Listen if set, otherwise :8080.
func (c Config) ListenOrDefault() string {
	if c.Server.Listen != "" {
		return c.Server.Listen
	}
	return defaultListen
}

// Notifier returns the SMTP notifier when mail is configured and a no-op
// one otherwise.
func (c Config) Notifier() notify.Notifier {
	if !c.Email.Enabled() {
		return notify.Nop{}
	}
	return notify.NewSMTP(c.Email.SMTP())
}

// LoadFrom reads configuration from the given TOML file path.
// If the file does not exist, it returns an empty config without error.
// Environment variables always take precedence over file values:
//   - CINDERELLA_SECRETS_PASSWORD overrides secrets_password
//   - CINDERELLA_EMAIL_PASSWORD   overrides email.password
//   - CINDERELLA_WEBHOOK_SECRET   overrides server.webhook_secret
func LoadFrom(path string) (Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// DefaultConfigPath returns config.toml next to the running executable.
func DefaultConfigPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(filepath.Dir(exe), "config.toml")
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CINDERELLA_SECRETS_PASSWORD"); v != "" {
		cfg.SecretsPassword = v
	}
	if v := os.Getenv("CINDERELLA_EMAIL_PASSWORD"); v != "" {
		cfg.Email.Password = v
	}
	if v := os.Getenv("CINDERELLA_WEBHOOK_SECRET"); v != "" {
		cfg.Server.WebhookSecret = v
	}
}
