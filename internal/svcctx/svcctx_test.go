package svcctx

import (
	"context"
	"log/slog"
	"testing"

	"github.com/Malay-RB/Document-parsing/internal/metrics"
	"github.com/Malay-RB/Document-parsing/internal/providers"
)

func TestServices(t *testing.T) {
	t.Run("empty context", func(t *testing.T) {
		ctx := context.Background()
		if ServicesFrom(ctx) != nil || RegistryFrom(ctx) != nil || MetricsFrom(ctx) != nil {
			t.Error("expected nil services")
		}
		if LoggerFrom(ctx) != slog.Default() {
			t.Error("expected default logger fallback")
		}
		if RunIDFrom(ctx) != "" {
			t.Error("expected empty run id")
		}
	})

	t.Run("attached services", func(t *testing.T) {
		logger := slog.New(slog.DiscardHandler)
		reg := providers.NewRegistry()
		rec := metrics.NewRecorder("run-1")
		ctx := WithServices(context.Background(), &Services{
			Logger: logger, Registry: reg, Metrics: rec, RunID: "run-1",
		})
		if LoggerFrom(ctx) != logger || RegistryFrom(ctx) != reg || MetricsFrom(ctx) != rec {
			t.Error("services not returned")
		}
		if RunIDFrom(ctx) != "run-1" {
			t.Errorf("RunIDFrom() = %q", RunIDFrom(ctx))
		}
		if ConfigFrom(ctx) != nil || HomeFrom(ctx) != nil {
			t.Error("unset services should be nil")
		}
	})
}
