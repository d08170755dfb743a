// Package config provides configuration management for the status watcher.
// Configuration is loaded from ~/.config/zulip-status-watcher/config.yaml.
// Zulip credentials may be overridden from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is the default location for the config file.
	DefaultConfigPath = "~/.config/zulip-status-watcher/config.yaml"

	// DefaultRuntimeDir holds the log file and the transition journal.
	DefaultRuntimeDir = "~/.local/state/zulip-status-watcher"

	DefaultSchedule = "@every 60s"
	DefaultTimezone = "Local"
	DefaultLogLevel = "info"
)

// Google authentication modes.
const (
	AuthServiceAccount = "service_account"
	AuthOAuth          = "oauth"
)

// Environment variables that override the Zulip section.
const (
	EnvZulipAPIKey    = "ZULIP_API_KEY"
	EnvZulipEmail     = "ZULIP_EMAIL"
	EnvZulipServerURL = "ZULIP_SERVER_URL"
)

// Config is the top-level configuration.
type Config struct {
	// Schedule is a cron expression or descriptor such as "@every 60s".
	Schedule   string `yaml:"schedule"`
	Timezone   string `yaml:"timezone"`
	RuntimeDir string `yaml:"runtime_dir"`

	Log    LogConfig    `yaml:"log"`
	Zulip  ZulipConfig  `yaml:"zulip"`
	Google GoogleConfig `yaml:"google"`

	// Users are watched unconditionally. Members of Group are added on
	// every tick.
	Users      []UserConfig `yaml:"users"`
	Group      string       `yaml:"group,omitempty"`
	UserFilter string       `yaml:"user_filter,omitempty"`
}

// LogConfig controls the leveled logger.
type LogConfig struct {
	Level string `yaml:"level"`
	// File, when set, receives a copy of everything written to stderr.
	File string `yaml:"file,omitempty"`
}

// ZulipConfig holds the bot credentials used to update statuses.
type ZulipConfig struct {
	ServerURL string `yaml:"server_url"`
	Email     string `yaml:"email"`
	APIKey    string `yaml:"api_key"`
	// AlternateDomains are tried in order when a calendar address is not
	// known to Zulip under its own domain.
	AlternateDomains []string `yaml:"alternate_domains,omitempty"`
}

// GoogleConfig selects how calendars and the group directory are read.
type GoogleConfig struct {
	Auth            string `yaml:"auth"`
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file,omitempty"`
	// AdminEmail is impersonated for directory lookups.
	AdminEmail string `yaml:"admin_email,omitempty"`
	// CalendarID is the calendar read for each user and defaults to
	// "primary". With oauth, "primary" would be the authorizing account's
	// own calendar, so it is read as the user's address instead.
	CalendarID string `yaml:"calendar_id,omitempty"`
}

// UserConfig is one statically watched user. With ICSURL set the user's
// events come from that feed instead of Google Calendar.
type UserConfig struct {
	Email  string `yaml:"email"`
	ICSURL string `yaml:"ics_url,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Schedule:   DefaultSchedule,
		Timezone:   DefaultTimezone,
		RuntimeDir: DefaultRuntimeDir,
		Log:        LogConfig{Level: DefaultLogLevel},
		Google: GoogleConfig{
			Auth:       AuthServiceAccount,
			CalendarID: "primary",
		},
		Users: []UserConfig{},
	}
}

// Normalize fills in missing values with defaults.
func (c *Config) Normalize() {
	if c.Schedule == "" {
		c.Schedule = DefaultSchedule
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.RuntimeDir == "" {
		c.RuntimeDir = DefaultRuntimeDir
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Google.Auth == "" {
		c.Google.Auth = AuthServiceAccount
	}
	if c.Google.CalendarID == "" {
		c.Google.CalendarID = "primary"
	}
	if c.Users == nil {
		c.Users = []UserConfig{}
	}
	c.Zulip.ServerURL = strings.TrimRight(c.Zulip.ServerURL, "/")
}

// ApplyEnv overrides Zulip credentials from the environment.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvZulipAPIKey); ok && v != "" {
		c.Zulip.APIKey = v
	}
	if v, ok := os.LookupEnv(EnvZulipEmail); ok && v != "" {
		c.Zulip.Email = v
	}
	if v, ok := os.LookupEnv(EnvZulipServerURL); ok && v != "" {
		c.Zulip.ServerURL = strings.TrimRight(v, "/")
	}
}

// Validate reports every problem found in the configuration.
func (c *Config) Validate() error {
	var errs []error

	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("schedule %q: %w", c.Schedule, err))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}

	if c.Zulip.ServerURL == "" {
		errs = append(errs, errors.New("zulip.server_url is required"))
	}
	if c.Zulip.Email == "" {
		errs = append(errs, errors.New("zulip.email is required"))
	}
	if c.Zulip.APIKey == "" {
		errs = append(errs, fmt.Errorf("zulip.api_key is required (or set %s)", EnvZulipAPIKey))
	}

	switch c.Google.Auth {
	case AuthServiceAccount, AuthOAuth:
	default:
		errs = append(errs, fmt.Errorf("google.auth must be %q or %q, got %q", AuthServiceAccount, AuthOAuth, c.Google.Auth))
	}

	if len(c.Users) == 0 && c.Group == "" {
		errs = append(errs, errors.New("no users to watch: set users or group"))
	}
	seen := make(map[string]bool)
	for i, u := range c.Users {
		if u.Email == "" {
			errs = append(errs, fmt.Errorf("users[%d]: email is required", i))
			continue
		}
		if seen[u.Email] {
			errs = append(errs, fmt.Errorf("users[%d]: duplicate email %s", i, u.Email))
		}
		seen[u.Email] = true
	}

	if c.NeedsGoogle() && c.Google.CredentialsFile == "" {
		errs = append(errs, errors.New("google.credentials_file is required for Google Calendar users"))
	}
	if c.Google.Auth == AuthOAuth && c.NeedsGoogle() && c.Google.TokenFile == "" {
		errs = append(errs, errors.New("google.token_file is required with oauth auth"))
	}
	if c.Group != "" {
		if c.Google.Auth != AuthServiceAccount {
			errs = append(errs, errors.New("group rosters require service_account auth"))
		}
		if c.Google.AdminEmail == "" {
			errs = append(errs, errors.New("google.admin_email is required to read group members"))
		}
	}

	return errors.Join(errs...)
}

// NeedsGoogle reports whether any watched user reads Google Calendar.
func (c *Config) NeedsGoogle() bool {
	if c.Group != "" {
		return true
	}
	for _, u := range c.Users {
		if u.ICSURL == "" {
			return true
		}
	}
	return false
}

// Location returns the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// ICSURL returns the feed configured for email, if any.
func (c *Config) ICSURL(email string) string {
	for _, u := range c.Users {
		if strings.EqualFold(u.Email, email) {
			return u.ICSURL
		}
	}
	return ""
}

// Load reads the configuration at path, applies defaults and environment
// overrides, and expands ~/ in file paths. A missing file is an error; run
// the init command to create one.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no config at %s, run 'zulip-status-watcher init' first: %w", path, err)
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", path, err)
	}
	cfg.Normalize()
	cfg.ApplyEnv()

	cfg.RuntimeDir = ExpandPath(cfg.RuntimeDir)
	cfg.Log.File = ExpandPath(cfg.Log.File)
	cfg.Google.CredentialsFile = ExpandPath(cfg.Google.CredentialsFile)
	cfg.Google.TokenFile = ExpandPath(cfg.Google.TokenFile)

	return cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions, since the file
// holds an API key.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	path = ExpandPath(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// ExpandPath expands a leading ~/ to the home directory. Other paths are
// returned unchanged.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
