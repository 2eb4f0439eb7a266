package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/aurakai/genesis/internal/config"
	"github.com/aurakai/genesis/internal/core"
	"github.com/aurakai/genesis/internal/dispatch"
	"github.com/aurakai/genesis/internal/model"
	"github.com/aurakai/genesis/internal/orchestrator"
	"github.com/aurakai/genesis/internal/tool"
	"github.com/aurakai/genesis/internal/tool/builtin"
	"github.com/aurakai/genesis/internal/tool/external"
)

const platformShutdownTimeout = 10 * time.Second

// setup loads the configuration and initializes the global logger.
func setup(opts *rootOptions) (*config.GenesisConfig, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// CLI flag wins; otherwise config
	pretty := opts.prettyLog || cfg.LogFormat == config.GenesisLogFormatPretty
	if err := core.Init(core.LogOptions{Pretty: pretty, Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// newRegistry builds the stock tool catalog with the configured
// authorization overrides plus any executables in the external tools
// directory, exporting metrics to the default registerer.
func newRegistry(cfg *config.GenesisConfig) (*tool.Registry, error) {
	metrics, err := tool.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("failed to register tool metrics: %w", err)
	}

	reg := tool.NewRegistry(
		tool.WithHistoryCapacity(cfg.Tool.HistoryCapacity),
		tool.WithMetrics(metrics),
	)
	builtin.RegisterAll(reg, cfg.Tool.Authorizations)

	dir, err := config.ExternalToolsDir(cfg)
	if err != nil {
		return nil, err
	}
	executor := external.NewExecutor(time.Duration(cfg.Tool.ExternalTimeoutSeconds) * time.Second)
	if _, err := external.Register(reg, dir, executor, cfg.Tool.ExternalCallers...); err != nil {
		return nil, err
	}
	return reg, nil
}

// newCatalyst builds the primary and secondary engines the configuration names.
func newCatalyst(cfg *config.GenesisConfig) (*dispatch.Catalyst, error) {
	engineOpts := model.EngineOptions{
		Host:    cfg.Dispatch.OllamaHost,
		Timeout: time.Duration(cfg.Dispatch.TimeoutSeconds) * time.Second,
	}

	primary, err := model.NewEngine(cfg.Dispatch.PrimaryModel, engineOpts)
	if err != nil {
		return nil, fmt.Errorf("primary engine: %w", err)
	}
	secondary, err := model.NewEngine(cfg.Dispatch.SecondaryModel, engineOpts)
	if err != nil {
		return nil, fmt.Errorf("secondary engine: %w", err)
	}

	return dispatch.NewCatalyst(primary, secondary,
		dispatch.WithRetry(cfg.Dispatch.MaxRetries, time.Duration(cfg.Dispatch.InitialDelayMs)*time.Millisecond),
	), nil
}

// newPlatform wires the registry, the engines and the default crew.
func newPlatform(cfg *config.GenesisConfig) (*orchestrator.Orchestrator, error) {
	reg, err := newRegistry(cfg)
	if err != nil {
		return nil, err
	}
	catalyst, err := newCatalyst(cfg)
	if err != nil {
		return nil, err
	}

	platform := orchestrator.New(
		orchestrator.WithRegistry(reg),
		orchestrator.WithEngine(catalyst),
		orchestrator.WithSubscriberBuffer(cfg.Bus.SubscriberBuffer),
	)
	reg.Register(builtin.AgentStatusTool(func() builtin.StatusReport {
		return statusReport(platform)
	}))
	return platform, nil
}

func statusReport(platform *orchestrator.Orchestrator) builtin.StatusReport {
	report := builtin.StatusReport{Platform: string(platform.State())}
	for _, a := range platform.Agents() {
		report.Agents = append(report.Agents, builtin.AgentStatus{
			Name:   a.Name(),
			Active: platform.Active(a.Name()),
		})
	}
	return report
}

// withPlatform initializes a platform, runs fn and always shuts the platform
// down. A shutdown failure is logged; fn's error wins.
func withPlatform(ctx context.Context, cfg *config.GenesisConfig, fn func(*orchestrator.Orchestrator) error) error {
	platform, err := newPlatform(cfg)
	if err != nil {
		return err
	}

	initErr := platform.InitializePlatform(ctx)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), platformShutdownTimeout)
		defer cancel()
		if err := platform.ShutdownPlatform(shutdownCtx); err != nil {
			zap.L().Error("Platform shutdown failed", zap.Error(err))
		}
	}()

	if initErr != nil {
		return fmt.Errorf("failed to initialize platform: %w", initErr)
	}
	return fn(platform)
}
