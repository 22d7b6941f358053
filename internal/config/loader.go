package config

import (
	"fmt"
	"time"

	"etfpulse/internal/analyzer"
	"etfpulse/internal/core"
	"etfpulse/internal/notify"
	"etfpulse/internal/sources"
	"etfpulse/internal/store"
	"etfpulse/internal/store/sqlite"
	"etfpulse/internal/types"
)

// LoadAndBuild loads the config at path and assembles the runner from it.
func LoadAndBuild(path string) (*core.Runner, error) {
	config, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Build(config)
}

// Build assembles the runner from a validated config: sources, dataset
// store, run journal, analyzer and notifiers.
func Build(config *Config) (*core.Runner, error) {
	primary, err := buildTableSource("primary", config.Sources["primary"])
	if err != nil {
		return nil, err
	}

	var secondary sources.TableSource
	if src, ok := config.Sources["secondary"]; ok {
		secondary, err = buildTableSource("secondary", src)
		if err != nil {
			return nil, err
		}
	}

	datasets, err := store.New(config.Storage.DatasetDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset store: %w", err)
	}

	journal, err := sqlite.NewJournal(config.Storage.JournalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open run journal: %w", err)
	}

	trendAnalyzer, err := buildAnalyzer(config.Analyzer)
	if err != nil {
		return nil, err
	}

	notifiers := buildNotifiers(config.Notify)

	retryDelay, _ := time.ParseDuration(config.Pipeline.RetryDelay)
	analyzeDelay, _ := time.ParseDuration(config.Pipeline.AnalyzeDelay)
	interval, _ := time.ParseDuration(config.Pipeline.Interval)

	orchestrator, err := core.NewOrchestrator(core.Config{
		Workflow:          core.Workflow(config.Pipeline.Workflow),
		Primary:           primary,
		Secondary:         secondary,
		Time:              sources.NewWorldTimeSource("worldtime", config.Time.URL),
		Store:             datasets,
		Journal:           journal,
		Analyzer:          trendAnalyzer,
		Notifiers:         notifiers,
		CumulativeDataset: config.Pipeline.CumulativeDataset,
		FilterOffset: types.DateFilterSpec{
			OffsetDays:  config.Pipeline.OffsetDays,
			OffsetWeeks: config.Pipeline.OffsetWeeks,
		},
		MaxAttempts:  config.Pipeline.MaxAttempts,
		RetryDelay:   retryDelay,
		AnalyzeDelay: analyzeDelay,
	})
	if err != nil {
		journal.Close()
		return nil, err
	}

	return core.NewRunner(core.RunnerConfig{
		Name:         config.Pipeline.Name,
		Orchestrator: orchestrator,
		Interval:     interval,
		RunOnce:      config.Pipeline.RunOnce,
		ShutdownFn:   journal.Close,
	}), nil
}

func buildTableSource(name string, src SourceConfig) (sources.TableSource, error) {
	switch src.Type {
	case "etfdb":
		return sources.NewETFDBSource(name, src.URL, src.MaxRows, src.MinRows), nil
	case "yahoo":
		return sources.NewYahooSource(name, src.URL, src.MaxRows, src.MinRows), nil
	case "lua":
		schema := sources.Schema{
			Header:          src.Header,
			MinRows:         src.MinRows,
			VolumeColumn:    src.VolumeColumn,
			AveragingWindow: src.AveragingWindow,
		}
		return sources.NewLuaSource(name, src.ScriptPath, schema, src.MaxRows, src.Settings)
	default:
		return nil, fmt.Errorf("source %s: unknown type %q", name, src.Type)
	}
}

func buildAnalyzer(config AnalyzerConfig) (analyzer.TrendAnalyzer, error) {
	switch config.Backend {
	case "ollama":
		return analyzer.NewOllamaAnalyzer("ollama", config.Model)
	case "openai":
		return analyzer.NewOpenAIAnalyzer("openai", config.Model)
	case "anthropic":
		return analyzer.NewAnthropicAnalyzer("anthropic", config.Model)
	default:
		return nil, fmt.Errorf("unknown analyzer backend: %s", config.Backend)
	}
}

func buildNotifiers(config NotifyConfig) []notify.Notifier {
	var notifiers []notify.Notifier

	if config.Discord.Enabled {
		discord, err := notify.NewDiscordNotifier("discord", config.Discord.BotToken, config.Discord.ChannelID)
		if err != nil {
			// A broken notifier never blocks the pipeline.
			fmt.Printf("skipping discord notifier: %v\n", err)
		} else {
			notifiers = append(notifiers, discord)
		}
	}

	if config.Feed.Enabled {
		notifiers = append(notifiers, notify.NewFeedNotifier("feed", notify.FeedConfig{
			Port:     config.Feed.Port,
			FeedSize: config.Feed.FeedSize,
		}))
	}

	return notifiers
}
