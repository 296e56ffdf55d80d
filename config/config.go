// Package config resolves newswire settings from flags, the environment and .env files.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robertmeta/newswire/aggregate"
	"github.com/robertmeta/newswire/cache"
	"github.com/robertmeta/newswire/extract"
	"github.com/robertmeta/newswire/feed"
	"github.com/robertmeta/newswire/registry"
	"github.com/robertmeta/newswire/rewrite"
	"github.com/robertmeta/newswire/store"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
)

// Defaults used when neither a flag nor the environment sets a value.
const (
	DefaultTimezone = "Europe/Istanbul"
	DefaultPort     = 5000
	DefaultOrigin   = "local"
)

// Config holds every resolved setting.
type Config struct {
	DBDriver    string
	DBPath      string
	SourcesFile string
	Location    *time.Location

	Workers      int
	FetchTimeout time.Duration
	PageTimeout  time.Duration

	RedisAddr string
	CacheTTL  time.Duration

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	Addr   string
	Origin string

	Schedule           string
	ScheduleCategories []string

	LogLevel  string
	LogFormat string
}

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given) without overriding the environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath returns the SQLite file used when no DSN is configured.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "newswire.db"
	}
	return filepath.Join(home, ".config", "newswire", "newswire.db")
}

// Flags returns the global flags understood by FromCLI.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db-driver",
			Value:   store.DriverSQLite,
			Usage:   "Database driver (sqlite or postgres)",
			EnvVars: []string{"NEWSWIRE_DB_DRIVER"},
		},
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Value:   DefaultDBPath(),
			Usage:   "SQLite file path or PostgreSQL connection string",
			EnvVars: []string{"NEWSWIRE_DB", "DATABASE_URL"},
		},
		&cli.StringFlag{
			Name:    "sources",
			Usage:   "Source registry YAML file (default: built-in registry)",
			EnvVars: []string{"NEWSWIRE_SOURCES"},
		},
		&cli.StringFlag{
			Name:    "timezone",
			Aliases: []string{"tz"},
			Value:   DefaultTimezone,
			Usage:   "Display timezone for naive timestamps",
			EnvVars: []string{"NEWSWIRE_TIMEZONE"},
		},
		&cli.IntFlag{
			Name:    "workers",
			Value:   aggregate.DefaultWorkers,
			Usage:   "Maximum concurrent feed fetches",
			EnvVars: []string{"NEWSWIRE_WORKERS"},
		},
		&cli.DurationFlag{
			Name:    "fetch-timeout",
			Value:   feed.DefaultTimeout,
			Usage:   "Per-feed retrieval timeout",
			EnvVars: []string{"NEWSWIRE_FETCH_TIMEOUT"},
		},
		&cli.DurationFlag{
			Name:    "page-timeout",
			Value:   extract.DefaultTimeout,
			Usage:   "Article page retrieval timeout",
			EnvVars: []string{"NEWSWIRE_PAGE_TIMEOUT"},
		},
		&cli.StringFlag{
			Name:    "redis",
			Usage:   "Redis address for the aggregation cache (disabled when empty)",
			EnvVars: []string{"NEWSWIRE_REDIS_ADDR", "REDIS_ADDR"},
		},
		&cli.DurationFlag{
			Name:    "cache-ttl",
			Value:   cache.DefaultTTL,
			Usage:   "Lifetime of cached aggregations",
			EnvVars: []string{"NEWSWIRE_CACHE_TTL"},
		},
		&cli.StringFlag{
			Name:    "openai-key",
			Usage:   "API key of the rewrite service",
			EnvVars: []string{"OPENAI_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "openai-base-url",
			Value:   rewrite.DefaultBaseURL,
			Usage:   "Base URL of the OpenAI-compatible rewrite service",
			EnvVars: []string{"OPENAI_BASE_URL"},
		},
		&cli.StringFlag{
			Name:    "openai-model",
			Value:   rewrite.DefaultModel,
			Usage:   "Model used for rewriting",
			EnvVars: []string{"OPENAI_MODEL"},
		},
		&cli.StringFlag{
			Name:    "host",
			Value:   "0.0.0.0",
			Usage:   "HTTP listen host",
			EnvVars: []string{"NEWSWIRE_HOST"},
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Value:   DefaultPort,
			Usage:   "HTTP listen port",
			EnvVars: []string{"NEWSWIRE_PORT", "PORT"},
		},
		&cli.StringFlag{
			Name:    "origin",
			Value:   DefaultOrigin,
			Usage:   "Deployment name reported by /rss",
			EnvVars: []string{"NEWSWIRE_ORIGIN", "RAILWAY_STATIC_URL"},
		},
		&cli.StringFlag{
			Name:    "schedule",
			Usage:   "Cron spec for pipeline runs (e.g. \"@every 15m\"; disabled when empty)",
			EnvVars: []string{"NEWSWIRE_SCHEDULE"},
		},
		&cli.StringSliceFlag{
			Name:    "schedule-category",
			Value:   cli.NewStringSlice("all"),
			Usage:   "Category processed by scheduled runs (repeatable)",
			EnvVars: []string{"NEWSWIRE_SCHEDULE_CATEGORIES"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			EnvVars: []string{"NEWSWIRE_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text or json)",
			EnvVars: []string{"NEWSWIRE_LOG_FORMAT"},
		},
	}
}

// FromCLI builds a Config from the flags registered by Flags.
func FromCLI(c *cli.Context) (*Config, error) {
	cfg := &Config{
		DBDriver:           c.String("db-driver"),
		DBPath:             c.String("db"),
		SourcesFile:        c.String("sources"),
		Workers:            c.Int("workers"),
		FetchTimeout:       c.Duration("fetch-timeout"),
		PageTimeout:        c.Duration("page-timeout"),
		RedisAddr:          c.String("redis"),
		CacheTTL:           c.Duration("cache-ttl"),
		OpenAIKey:          c.String("openai-key"),
		OpenAIBaseURL:      c.String("openai-base-url"),
		OpenAIModel:        c.String("openai-model"),
		Addr:               fmt.Sprintf("%s:%d", c.String("host"), c.Int("port")),
		Origin:             c.String("origin"),
		Schedule:           strings.TrimSpace(c.String("schedule")),
		ScheduleCategories: splitList(c.StringSlice("schedule-category")),
		LogLevel:           c.String("log-level"),
		LogFormat:          c.String("log-format"),
	}

	if !c.IsSet("db-driver") && isPostgresDSN(cfg.DBPath) {
		cfg.DBDriver = store.DriverPostgres
	}

	loc, err := time.LoadLocation(c.String("timezone"))
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}
	cfg.Location = loc

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if isSQLite(c.DBDriver) && isPostgresDSN(c.DBPath) {
		return fmt.Errorf("database driver %s cannot open a PostgreSQL URL", c.DBDriver)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.FetchTimeout <= 0 || c.PageTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.CacheTTL <= 0 {
		return errors.New("cache TTL must be positive")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format: %s", c.LogFormat)
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", c.Schedule, err)
		}
		if len(c.ScheduleCategories) == 0 {
			return errors.New("schedule needs at least one category")
		}
	}
	return nil
}

// Registry loads the configured source registry, or the built-in one.
func (c *Config) Registry() (*registry.Registry, error) {
	if c.SourcesFile == "" {
		return registry.Default(), nil
	}
	return registry.Load(c.SourcesFile)
}

// Logger builds the logger described by the configuration.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	return NewLogger(w, c.LogLevel, c.LogFormat)
}

// NewLogger returns a text or JSON slog logger writing to w at level.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", format)
	}
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return lvl, fmt.Errorf("unknown log level: %s", s)
	}
	return lvl, nil
}

func isPostgresDSN(dsn string) bool {
	dsn = strings.ToLower(strings.TrimSpace(dsn))
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func isSQLite(driver string) bool {
	switch driver {
	case "", store.DriverSQLite, "sqlite3":
		return true
	}
	return false
}

// splitList accepts both repeated flags and comma separated environment values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
