package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/watch"
)

// Config represents the application configuration. Only the main section
// is required in the file; the others fall back to NewDefaultConfig.
type Config struct {
	Main  models.Site       `ini:"main" yaml:"main" json:"main"`
	App   ApplicationConfig `ini:"app" yaml:"app" json:"app"`
	Index IndexConfig       `ini:"index" yaml:"index" json:"index"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Main.Validate(); err != nil {
		return fmt.Errorf("main: %w", err)
	}
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Index.Validate(); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	return nil
}

// ApplicationConfig holds settings of the dev server and the watch loop.
type ApplicationConfig struct {
	LogLevel     string        `ini:"log_level" yaml:"log_level" json:"log_level"`
	Port         int           `ini:"port" yaml:"port" json:"port"`
	WatchMode    string        `ini:"watch_mode" yaml:"watch_mode" json:"watch_mode"`
	PollInterval time.Duration `ini:"poll_interval" yaml:"poll_interval" json:"poll_interval"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.By(func(any) error {
			_, err := c.Level()
			return err
		})),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.WatchMode, validation.Required, validation.In(watch.ModePoll, watch.ModeNotify)),
		validation.Field(&c.PollInterval, validation.Required, validation.Min(10*time.Millisecond)),
	)
}

// Level parses LogLevel. An empty level means info.
func (c *ApplicationConfig) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return lvl, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return lvl, nil
}

// Address returns the dev server listen address.
func (c *ApplicationConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// IndexConfig holds the SQLite search index location.
type IndexConfig struct {
	Path string `ini:"path" yaml:"path" json:"path"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:     "info",
			Port:         8000,
			WatchMode:    watch.ModePoll,
			PollInterval: time.Second,
		},
		Index: IndexConfig{
			Path: ".quire/index.db",
		},
	}
}
