// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"
	// Embedded zone database so Asia/Shanghai resolves on minimal images.
	_ "time/tzdata"

	"github.com/spf13/viper"

	"github.com/JakeFAU/dailynews-crawler/internal/extract"
)

// Archive and notification backends.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendLocal  = "local"
	BackendGCS    = "gcs"
	BackendPubSub = "pubsub"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	Layout   extract.Layout `mapstructure:"layout"`
	DB       DBConfig       `mapstructure:"db"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Server   ServerConfig   `mapstructure:"server"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// CrawlerConfig governs requests against the origin.
type CrawlerConfig struct {
	UserAgent      string        `mapstructure:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ArticleDelay   time.Duration `mapstructure:"article_delay"`
	Timezone       string        `mapstructure:"timezone"`
}

// DBConfig controls access to Postgres. An empty DSN selects the in-memory store.
type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// ArchiveConfig selects where rendered documents are copied.
type ArchiveConfig struct {
	Backend string `mapstructure:"backend"`
	BaseDir string `mapstructure:"base_dir"`
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
}

// NotifyConfig holds crawl notification settings.
type NotifyConfig struct {
	Backend   string `mapstructure:"backend"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// BatchConfig paces multi-day crawls.
type BatchConfig struct {
	Gap time.Duration `mapstructure:"gap"`
}

// ScheduleConfig sets the daily run time as HH:MM in the crawler timezone.
type ScheduleConfig struct {
	At string `mapstructure:"at"`
}

// ServerConfig controls the ops HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DAILYNEWS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	layout := extract.DefaultLayout()

	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
	v.SetDefault("crawler.user_agent", "")
	v.SetDefault("crawler.request_timeout", 30*time.Second)
	v.SetDefault("crawler.article_delay", 500*time.Millisecond)
	v.SetDefault("crawler.timezone", "Asia/Shanghai")
	v.SetDefault("layout.index_url", layout.IndexURL)
	v.SetDefault("layout.title_marker", layout.TitleMarker)
	for key, f := range map[string]extract.Field{
		"links":    layout.Links,
		"abstract": layout.Abstract,
		"title":    layout.Title,
		"content":  layout.Content,
	} {
		v.SetDefault("layout."+key+".name", f.Name)
		v.SetDefault("layout."+key+".selector", f.Selector)
		v.SetDefault("layout."+key+".fallback", f.Fallback)
	}
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.table", "news_articles")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("archive.backend", BackendNone)
	v.SetDefault("archive.prefix", "xwlb")
	v.SetDefault("notify.backend", BackendNone)
	v.SetDefault("notify.topic", "dailynews-crawls")
	v.SetDefault("batch.gap", 3*time.Second)
	v.SetDefault("schedule.at", "20:30")
	v.SetDefault("server.port", 8080)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.RequestTimeout <= 0 {
		return fmt.Errorf("crawler.request_timeout must be > 0")
	}
	if c.Crawler.ArticleDelay < 0 {
		return fmt.Errorf("crawler.article_delay must be >= 0")
	}
	if _, err := time.LoadLocation(c.Crawler.Timezone); err != nil {
		return fmt.Errorf("crawler.timezone: %w", err)
	}
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	switch c.Archive.Backend {
	case BackendNone, BackendMemory:
	case BackendLocal:
		if c.Archive.BaseDir == "" {
			return fmt.Errorf("archive.base_dir must be set for the local backend")
		}
	case BackendGCS:
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive.bucket must be set for the gcs backend")
		}
	default:
		return fmt.Errorf("archive.backend %q is not supported", c.Archive.Backend)
	}
	switch c.Notify.Backend {
	case BackendNone, BackendMemory:
	case BackendPubSub:
		if c.Notify.ProjectID == "" || c.Notify.Topic == "" {
			return fmt.Errorf("notify.project_id and notify.topic must be set for the pubsub backend")
		}
	default:
		return fmt.Errorf("notify.backend %q is not supported", c.Notify.Backend)
	}
	if c.Batch.Gap < 0 {
		return fmt.Errorf("batch.gap must be >= 0")
	}
	if _, _, err := c.Schedule.Clock(); err != nil {
		return err
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// Location resolves the crawler timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Crawler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Crawler.Timezone, err)
	}
	return loc, nil
}

// Clock parses At into hour and minute.
func (s ScheduleConfig) Clock() (hour, minute int, err error) {
	t, err := time.Parse("15:04", s.At)
	if err != nil {
		return 0, 0, fmt.Errorf("schedule.at must be HH:MM, got %q", s.At)
	}
	return t.Hour(), t.Minute(), nil
}
