package internal

import (
	"github.com/starford/quire/internal/site"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	dirs    site.Dirs
	verbose bool
	version string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithDirs sets the input, output, template and static directories.
func WithDirs(dirs site.Dirs) Option {
	return func(a *application) {
		a.dirs = dirs
	}
}

// WithVerbose forces debug logging regardless of app.log_level.
func WithVerbose(v bool) Option {
	return func(a *application) {
		a.verbose = v
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}
