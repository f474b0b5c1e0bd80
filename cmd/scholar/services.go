package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Malay-RB/Document-parsing/internal/config"
	"github.com/Malay-RB/Document-parsing/internal/home"
	"github.com/Malay-RB/Document-parsing/internal/logging"
	"github.com/Malay-RB/Document-parsing/internal/metrics"
	"github.com/Malay-RB/Document-parsing/internal/output"
	"github.com/Malay-RB/Document-parsing/internal/pdfsource"
	"github.com/Malay-RB/Document-parsing/internal/pipeline"
	"github.com/Malay-RB/Document-parsing/internal/providers"
	"github.com/Malay-RB/Document-parsing/internal/svcctx"
)

// loadConfig resolves the config file, preferring --config, then the home
// directory's config, then the manager's own search path.
func loadConfig(h *home.Dir) (*config.Manager, error) {
	file := cfgFile
	if file == "" && homeDir != "" && h.ConfigExists() {
		file = h.ConfigPath()
	}
	cm, err := config.NewManager(file)
	if err != nil {
		return nil, err
	}
	if sandbox {
		if err := cm.Set("sandbox.enabled", true); err != nil {
			return nil, err
		}
	}
	return cm, nil
}

// setupServices builds the services a pipeline command needs and attaches
// them to the command context. The returned function releases log files.
func setupServices(cmd *cobra.Command) (context.Context, func(), error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, nil, err
	}
	cm, err := loadConfig(h)
	if err != nil {
		return nil, nil, err
	}
	cfg := cm.Get()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logOpts := logging.Options{Level: cfg.Log.Level, Console: cmd.ErrOrStderr()}
	if cfg.Log.Files {
		logOpts.Dir = cfg.Log.Dir
		if logOpts.Dir == "" {
			logOpts.Dir = h.LogsPath()
		}
	}
	lg, err := logging.Setup(logOpts)
	if err != nil {
		return nil, nil, err
	}
	cm.OnChange(func(c *config.Config) {
		lg.SetLevel(c.Log.Level)
		lg.Info("configuration reloaded", "log_level", c.Log.Level)
	})
	cm.WatchConfig()

	runID := uuid.NewString()
	svc := &svcctx.Services{
		Config:   cm,
		Registry: providers.NewRegistryFromConfig(cfg.ToRegistryConfig(), lg.Logger),
		Logger:   lg.Logger,
		Home:     h,
		Metrics:  metrics.NewRecorder(runID),
		RunID:    runID,
	}
	if f := cm.ConfigFile(); f != "" {
		lg.Debug("config loaded", "file", f)
	}

	cleanup := func() {
		if err := lg.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log files: %v\n", err)
		}
	}
	return svcctx.WithServices(cmd.Context(), svc), cleanup, nil
}

// newOrchestrator assembles the pipeline from the services in ctx.
func newOrchestrator(ctx context.Context) (*pipeline.Orchestrator, error) {
	svc := svcctx.ServicesFrom(ctx)
	if svc == nil {
		return nil, fmt.Errorf("services not initialized")
	}
	cfg := svc.Config.Get()

	models, err := svc.Registry.Models(cfg.Pipeline.OCR, cfg.Pipeline.Math)
	if err != nil {
		return nil, err
	}
	classifier, err := cfg.Classifier()
	if err != nil {
		return nil, err
	}
	strategy, err := cfg.Strategy()
	if err != nil {
		return nil, err
	}
	rules, err := cfg.TOCRules()
	if err != nil {
		return nil, err
	}
	src, err := pdfsource.New(cfg.PDF.Renderer, cfg.PDF.DPI)
	if err != nil {
		return nil, err
	}

	return pipeline.New(pipeline.Options{
		Source:           src,
		Models:           models,
		Classifier:       classifier,
		Strategy:         strategy,
		Keywords:         cfg.Pipeline.Keywords,
		TOCRules:         rules,
		TOCRowTolerance:  cfg.TOC.RowTolerance,
		ScoutLimit:       cfg.Pipeline.ScoutLimit,
		SyncLimit:        cfg.Pipeline.SyncLimit,
		GCInterval:       cfg.Pipeline.GCInterval,
		OverlapThreshold: cfg.Pipeline.OverlapThreshold,
		RowTolerance:     cfg.Pipeline.RowTolerance,
		Debug:            cfg.Pipeline.Debug,
		Validate:         cfg.PDF.Validate,
		RunID:            svc.RunID,
		Metrics:          svc.Metrics,
		Logger:           svc.Logger,
	})
}

// resolvePaths returns the input PDF and output root for a command
// argument, honouring sandbox mode and an explicit output override.
func resolvePaths(ctx context.Context, name, outOverride string) (string, string) {
	cfg := svcctx.ConfigFrom(ctx).Get()
	_, out := cfg.ActivePaths()
	if outOverride != "" {
		out = outOverride
	}
	return cfg.ResolveInput(name), out
}

func printResult(cmd *cobra.Command, v any) error {
	return output.NewPrinter(cmd.OutOrStdout(), output.ParseFormat(outputFormat)).Print(v)
}
