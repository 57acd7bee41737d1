package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgconfig "github.com/starford/quire/pkg/config"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadINI(t *testing.T) {
	path := writeConfig(t, "config.ini", `[main]
base_url = https://example.com
title = Blog
description = a blog
author = Jo

[app]
port = 9000
watch_mode = notify
poll_interval = 250ms
`)
	cfg := NewDefaultConfig()
	require.NoError(t, pkgconfig.Load(path, cfg))

	assert.Equal(t, "https://example.com/", cfg.Main.BaseURL)
	assert.Equal(t, "Jo", cfg.Main.Author)
	assert.Equal(t, ":9000", cfg.App.Address())
	assert.Equal(t, "notify", cfg.App.WatchMode)
	assert.Equal(t, 250*time.Millisecond, cfg.App.PollInterval)
	assert.Equal(t, ".quire/index.db", cfg.Index.Path)
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("QUIRE_TEST_AUTHOR", "Sam")
	path := writeConfig(t, "config.yaml", `main:
  base_url: https://example.com/blog/
  title: Blog
  description: a blog
  author: ${QUIRE_TEST_AUTHOR}
index:
  path: /tmp/quire.db
`)
	cfg := NewDefaultConfig()
	require.NoError(t, pkgconfig.Load(path, cfg))

	assert.Equal(t, "https://example.com/blog/", cfg.Main.BaseURL)
	assert.Equal(t, "Sam", cfg.Main.Author)
	assert.Equal(t, 8000, cfg.App.Port)
	assert.Equal(t, "/tmp/quire.db", cfg.Index.Path)
}

func TestLoad_MissingKeyNamesKeyAndFile(t *testing.T) {
	path := writeConfig(t, "config.ini", "[main]\nbase_url = https://example.com/\ntitle = Blog\ndescription = a blog\n")

	err := pkgconfig.Load(path, NewDefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.Contains(t, err.Error(), "main: author")
}

func TestLoad_MissingMainSection(t *testing.T) {
	path := writeConfig(t, "config.ini", "[app]\nport = 8001\n")

	err := pkgconfig.Load(path, NewDefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestApplicationConfig_Validate(t *testing.T) {
	cases := map[string]func(*ApplicationConfig){
		"port":       func(c *ApplicationConfig) { c.Port = 70000 },
		"watch mode": func(c *ApplicationConfig) { c.WatchMode = "inotify" },
		"interval":   func(c *ApplicationConfig) { c.PollInterval = time.Millisecond },
		"log level":  func(c *ApplicationConfig) { c.LogLevel = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := NewDefaultConfig().App
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestApplicationConfig_Level(t *testing.T) {
	cfg := ApplicationConfig{LogLevel: "debug"}
	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	cfg.LogLevel = ""
	lvl, err = cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)
}
