package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Runner drives the orchestrator either once or on a fixed interval. Runs
// never overlap: the next tick waits until the previous run returns, which
// keeps the cumulative dataset's single-writer precondition intact.
type Runner struct {
	name         string
	orchestrator *Orchestrator
	interval     time.Duration
	runOnce      bool
	mu           sync.RWMutex
	running      bool
	stopCh       chan struct{}
	shutdownFn   func() error
}

type RunnerConfig struct {
	Name         string
	Orchestrator *Orchestrator
	Interval     time.Duration
	RunOnce      bool
	ShutdownFn   func() error
}

func NewRunner(config RunnerConfig) *Runner {
	if config.Interval == 0 {
		config.Interval = 24 * time.Hour
	}

	return &Runner{
		name:         config.Name,
		orchestrator: config.Orchestrator,
		interval:     config.Interval,
		runOnce:      config.RunOnce,
		stopCh:       make(chan struct{}),
		shutdownFn:   config.ShutdownFn,
	}
}

func (r *Runner) Name() string {
	return r.name
}

func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("runner already running")
	}
	r.running = true
	r.mu.Unlock()

	defer r.markStopped()

	if err := r.orchestrator.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	if r.runOnce {
		return r.executeRun(ctx)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	if err := r.executeRun(ctx); err != nil {
		slog.Error("pipeline run failed", "runner", r.name, "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.stopCh:
			return nil
		case <-ticker.C:
			if err := r.executeRun(ctx); err != nil {
				slog.Error("pipeline run failed", "runner", r.name, "error", err)
			}
		}
	}
}

func (r *Runner) executeRun(ctx context.Context) error {
	result, err := r.orchestrator.Run(ctx)
	if err != nil {
		return err
	}

	slog.Info("pipeline run finished", "runner", r.name, "workflow", result.Workflow, "date", result.RunDate)
	fmt.Println(result.Summary)
	return nil
}

func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	close(r.stopCh)

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := r.orchestrator.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("pipeline shutdown failed: %w", err)
	}

	if r.shutdownFn != nil {
		if err := r.shutdownFn(); err != nil {
			return fmt.Errorf("custom shutdown failed: %w", err)
		}
	}

	return nil
}

func (r *Runner) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

func (r *Runner) markStopped() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}
