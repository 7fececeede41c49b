package internal

import (
	"fmt"
	"time"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config          *Config
	version         string
	focusThrottle   time.Duration
	shutdownTimeout time.Duration
}

func newApplication(opts ...Option) (*application, error) {
	app := &application{
		version:         "dev",
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithFocusThrottle sets the minimum gap between focus.updated SSE events.
// Zero keeps the broker default.
func WithFocusThrottle(d time.Duration) Option {
	return func(a *application) {
		a.focusThrottle = d
	}
}

// WithShutdownTimeout bounds graceful HTTP shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(a *application) {
		if d > 0 {
			a.shutdownTimeout = d
		}
	}
}
