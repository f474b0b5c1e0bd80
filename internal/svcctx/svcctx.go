// Package svcctx carries process-wide services through context so commands
// and the pipeline can pull what they need.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/Malay-RB/Document-parsing/internal/config"
	"github.com/Malay-RB/Document-parsing/internal/home"
	"github.com/Malay-RB/Document-parsing/internal/metrics"
	"github.com/Malay-RB/Document-parsing/internal/providers"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Config   *config.Manager
	Registry *providers.Registry
	Logger   *slog.Logger
	Home     *home.Dir
	Metrics  *metrics.Recorder
	RunID    string
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// RegistryFrom extracts the provider registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// LoggerFrom extracts the logger from context, falling back to
// slog.Default.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// MetricsFrom extracts the run's metrics recorder from context. A nil
// recorder discards metrics.
func MetricsFrom(ctx context.Context) *metrics.Recorder {
	if s := ServicesFrom(ctx); s != nil {
		return s.Metrics
	}
	return nil
}

// RunIDFrom extracts the run ID from context.
func RunIDFrom(ctx context.Context) string {
	if s := ServicesFrom(ctx); s != nil {
		return s.RunID
	}
	return ""
}
