package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/harunnryd/koyomi/internal/pathutil"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Google      GoogleConfig      `koanf:"google"`
	Session     SessionConfig     `koanf:"session"`
	Cache       CacheConfig       `koanf:"cache"`
	Reminders   RemindersConfig   `koanf:"reminders"`
	Maintenance MaintenanceConfig `koanf:"maintenance"`
}

type ServerConfig struct {
	Port            int    `koanf:"port"`
	LogLevel        string `koanf:"log_level"`
	ReadTimeout     string `koanf:"read_timeout"`
	WriteTimeout    string `koanf:"write_timeout"`
	IdleTimeout     string `koanf:"idle_timeout"`
	ShutdownTimeout string `koanf:"shutdown_timeout"`
}

type GoogleConfig struct {
	ClientID             string   `koanf:"client_id"`
	ClientSecret         string   `koanf:"client_secret"`
	RedirectURI          string   `koanf:"redirect_uri"`
	Scopes               []string `koanf:"scopes"`
	Timezone             string   `koanf:"timezone"`
	RequestTimeout       string   `koanf:"request_timeout"`
	DefaultEventStart    string   `koanf:"default_event_start"`
	DefaultEventDuration int      `koanf:"default_event_duration_minutes"`
}

type SessionConfig struct {
	CookieName    string `koanf:"cookie_name"`
	OAuthStateTTL string `koanf:"oauth_state_ttl"`
}

type CacheConfig struct {
	CalendarListTTL     string `koanf:"calendar_list_ttl"`
	VisibleSelectionTTL string `koanf:"visible_selection_ttl"`
	TaskListTTL         string `koanf:"task_list_ttl"`
}

type RemindersConfig struct {
	StorePath    string `koanf:"store_path"`
	LockTimeout  string `koanf:"lock_timeout"`
	LockRetry    string `koanf:"lock_retry"`
	LockMaxRetry int    `koanf:"lock_max_retry"`
}

type MaintenanceConfig struct {
	PruneSchedule string `koanf:"prune_schedule"`
}

const (
	DefaultServerPort                 = 8080
	DefaultServerLogLevel             = "info"
	DefaultServerReadTimeout          = "10s"
	DefaultServerWriteTimeout         = "30s"
	DefaultServerIdleTimeout          = "60s"
	DefaultServerShutdownTimeout      = "5s"
	DefaultGoogleRedirectURI          = "http://localhost:8080/auth/google/callback"
	DefaultGoogleTimezone             = "America/Los_Angeles"
	DefaultGoogleRequestTimeout       = "15s"
	DefaultGoogleEventStart           = "09:00"
	DefaultGoogleEventDurationMinutes = 60
	DefaultSessionCookieName          = "koyomi_session"
	DefaultSessionOAuthStateTTL       = "15m"
	DefaultCacheCalendarListTTL       = "30m"
	DefaultCacheVisibleSelectionTTL   = "168h"
	DefaultCacheTaskListTTL           = "60m"
	DefaultRemindersLockTimeout       = "30s"
	DefaultRemindersLockRetry         = "100ms"
	DefaultRemindersLockMaxRetry      = 300
	DefaultMaintenancePruneSchedule   = "@every 5m"
)

var DefaultGoogleScopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/tasks",
	"openid",
	"email",
}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	// Hardcoded Defaults
	defaults := map[string]interface{}{
		"server.port":                           DefaultServerPort,
		"server.log_level":                      DefaultServerLogLevel,
		"server.read_timeout":                   DefaultServerReadTimeout,
		"server.write_timeout":                  DefaultServerWriteTimeout,
		"server.idle_timeout":                   DefaultServerIdleTimeout,
		"server.shutdown_timeout":               DefaultServerShutdownTimeout,
		"google.redirect_uri":                   DefaultGoogleRedirectURI,
		"google.scopes":                         DefaultGoogleScopes,
		"google.timezone":                       DefaultGoogleTimezone,
		"google.request_timeout":                DefaultGoogleRequestTimeout,
		"google.default_event_start":            DefaultGoogleEventStart,
		"google.default_event_duration_minutes": DefaultGoogleEventDurationMinutes,
		"session.cookie_name":                   DefaultSessionCookieName,
		"session.oauth_state_ttl":               DefaultSessionOAuthStateTTL,
		"cache.calendar_list_ttl":               DefaultCacheCalendarListTTL,
		"cache.visible_selection_ttl":           DefaultCacheVisibleSelectionTTL,
		"cache.task_list_ttl":                   DefaultCacheTaskListTTL,
		"reminders.store_path":                  filepath.Join(os.Getenv("HOME"), ".koyomi", "reminders.json"),
		"reminders.lock_timeout":                DefaultRemindersLockTimeout,
		"reminders.lock_retry":                  DefaultRemindersLockRetry,
		"reminders.lock_max_retry":              DefaultRemindersLockMaxRetry,
		"maintenance.prune_schedule":            DefaultMaintenancePruneSchedule,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".koyomi", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	// Environment Variables
	k.Load(env.Provider("KOYOMI_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "KOYOMI_")), "_", ".", -1)
	}), nil)

	// CLI Flags
	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if err := normalizePathFields(&cfg); err != nil {
		return nil, err
	}

	// Post-Process: Inject standard Env Vars if missing
	if id := os.Getenv("GOOGLE_CLIENT_ID"); id != "" && cfg.Google.ClientID == "" {
		cfg.Google.ClientID = id
	}
	if secret := os.Getenv("GOOGLE_CLIENT_SECRET"); secret != "" && cfg.Google.ClientSecret == "" {
		cfg.Google.ClientSecret = secret
	}

	return &cfg, nil
}

func normalizePathFields(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	storePath, err := expandConfiguredPath(cfg.Reminders.StorePath)
	if err != nil {
		return err
	}
	if storePath != "" {
		cfg.Reminders.StorePath = storePath
	}

	return nil
}

func expandConfiguredPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	expanded, err := pathutil.Expand(trimmed)
	if err != nil {
		return "", err
	}
	return expanded, nil
}
