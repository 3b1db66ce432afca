// Package config loads runtime settings from the environment and an optional
// .env file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"

	"github.com/John-Robertt/subagg-go/internal/rules"
)

// DefaultEnvFile is read when present; a missing file is not an error.
const DefaultEnvFile = ".env"

type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Sources   SourcesConfig
	Template  TemplateConfig
	RateLimit RateLimitConfig
	Store     StoreConfig
	Notify    NotifyConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host              string        `env:"SERVER_HOST" envDefault:"127.0.0.1"`
	Port              int           `env:"SERVER_PORT" envDefault:"25500"`
	ConvertTimeout    time.Duration `env:"CONVERT_TIMEOUT" envDefault:"60s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type AuthConfig struct {
	MainToken  string `env:"MAIN_TOKEN"`
	GuestToken string `env:"GUEST_TOKEN"`
}

type SourcesConfig struct {
	// Default is a JSON array of references or a comma separated list.
	Default     string        `env:"DEFAULT_SOURCES"`
	Timeout     time.Duration `env:"FETCH_TIMEOUT" envDefault:"15s"`
	MaxBytes    int64         `env:"FETCH_MAX_BYTES" envDefault:"5242880"`
	Concurrency int           `env:"FETCH_CONCURRENCY" envDefault:"4"`
	// RatePerSec throttles outbound fetches; 0 disables it.
	RatePerSec float64 `env:"FETCH_RATE" envDefault:"0"`
}

// List parses Default.
func (c *SourcesConfig) List() ([]string, error) {
	return ParseSources(c.Default)
}

// ParseSources accepts `["a","b"]` or `a,b`. Blank entries are dropped.
func ParseSources(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var raw []string
	if strings.HasPrefix(s, "[") {
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return nil, fmt.Errorf("DEFAULT_SOURCES is not a JSON string array: %w", err)
		}
	} else {
		raw = strings.Split(s, ",")
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out, nil
}

// TemplateConfig shapes the groups and rules around the aggregated nodes.
type TemplateConfig struct {
	SelectGroup   string `env:"SELECT_GROUP" envDefault:"回国"`
	FallbackGroup string `env:"FALLBACK_GROUP" envDefault:"Fallback"`
	// Rules replaces the built-in rule template when set: a JSON array or
	// one rule per line.
	Rules string `env:"RULES"`
}

// RuleList returns the validated rule template, or nil for the built-in one.
func (c *TemplateConfig) RuleList() ([]string, error) {
	lines, err := rules.ParseList(c.Rules)
	if err != nil || lines == nil {
		return nil, err
	}
	return rules.ParseTemplate(lines)
}

type RateLimitConfig struct {
	PerMinute int `env:"RATE_PER_MIN" envDefault:"100"`
}

type StoreConfig struct {
	Driver        string `env:"STORE_DRIVER" envDefault:"memory"`
	DSN           string `env:"STORE_DSN"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

type NotifyConfig struct {
	TelegramBotToken string        `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string        `env:"TELEGRAM_CHAT_ID"`
	TelegramAPIBase  string        `env:"TELEGRAM_API_BASE" envDefault:"https://api.telegram.org"`
	Title            string        `env:"NOTIFY_TITLE" envDefault:"subagg"`
	Interval         time.Duration `env:"NOTIFY_INTERVAL" envDefault:"0s"`
}

func (c *NotifyConfig) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

func (c *LogConfig) slogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL %q: %w", c.Level, err)
	}
	return lvl, nil
}

// NewLogger builds the process logger. Call Validate first; an invalid level
// falls back to info.
func (c *LogConfig) NewLogger(w io.Writer) *slog.Logger {
	lvl, err := c.slogLevel()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Load reads envFile (DefaultEnvFile when empty) into the process environment
// without overriding variables that are already set, then parses every group.
// An explicitly named envFile must exist.
func Load(envFile string) (*Config, error) {
	path := envFile
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if envFile != "" || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	cfg := &Config{}
	groups := []struct {
		name string
		dst  any
	}{
		{"server", &cfg.Server},
		{"auth", &cfg.Auth},
		{"sources", &cfg.Sources},
		{"template", &cfg.Template},
		{"rate limit", &cfg.RateLimit},
		{"store", &cfg.Store},
		{"notify", &cfg.Notify},
		{"log", &cfg.Log},
	}
	for _, g := range groups {
		if err := env.Parse(g.dst); err != nil {
			return nil, fmt.Errorf("parsing %s config: %w", g.name, err)
		}
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT %d out of range", c.Server.Port)
	}
	if _, err := c.Sources.List(); err != nil {
		return err
	}
	if c.Sources.MaxBytes <= 0 {
		return fmt.Errorf("FETCH_MAX_BYTES must be > 0")
	}
	if c.Sources.RatePerSec < 0 {
		return fmt.Errorf("FETCH_RATE must be >= 0")
	}
	if strings.TrimSpace(c.Template.SelectGroup) == "" || strings.TrimSpace(c.Template.FallbackGroup) == "" {
		return fmt.Errorf("SELECT_GROUP and FALLBACK_GROUP must not be blank")
	}
	if _, err := c.Template.RuleList(); err != nil {
		return fmt.Errorf("RULES: %w", err)
	}

	switch c.Store.Driver {
	case "memory":
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when STORE_DRIVER=redis")
		}
	case "sqlite3", "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("STORE_DSN is required when STORE_DRIVER=%s", c.Store.Driver)
		}
	default:
		return fmt.Errorf("STORE_DRIVER %q is not one of memory, redis, sqlite3, postgres", c.Store.Driver)
	}

	if (c.Notify.TelegramBotToken == "") != (c.Notify.TelegramChatID == "") {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	if c.Notify.Interval < 0 {
		return fmt.Errorf("NOTIFY_INTERVAL must be >= 0")
	}

	if _, err := c.Log.slogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT %q is not text or json", c.Log.Format)
	}
	return nil
}

// Environ is the list of variables Load understands, for help output.
func Environ() []string {
	return []string{
		"SERVER_HOST", "SERVER_PORT", "CONVERT_TIMEOUT", "READ_HEADER_TIMEOUT", "SHUTDOWN_TIMEOUT",
		"MAIN_TOKEN", "GUEST_TOKEN",
		"DEFAULT_SOURCES", "FETCH_TIMEOUT", "FETCH_MAX_BYTES", "FETCH_CONCURRENCY", "FETCH_RATE",
		"SELECT_GROUP", "FALLBACK_GROUP", "RULES",
		"RATE_PER_MIN",
		"STORE_DRIVER", "STORE_DSN", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "TELEGRAM_API_BASE", "NOTIFY_TITLE", "NOTIFY_INTERVAL",
		"LOG_LEVEL", "LOG_FORMAT",
	}
}
