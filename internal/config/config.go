// Package config loads the TOML configuration and assembles the pipeline
// from it.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Pipeline PipelineConfig          `toml:"pipeline"`
	Storage  StorageConfig           `toml:"storage"`
	Sources  map[string]SourceConfig `toml:"sources"`
	Time     TimeConfig              `toml:"time"`
	Analyzer AnalyzerConfig          `toml:"analyzer"`
	Notify   NotifyConfig            `toml:"notify"`
}

type PipelineConfig struct {
	Name              string `toml:"name"`
	Workflow          string `toml:"workflow"`
	RunOnce           bool   `toml:"run_once"`
	Interval          string `toml:"interval"`
	MaxAttempts       int    `toml:"max_attempts"`
	RetryDelay        string `toml:"retry_delay"`
	AnalyzeDelay      string `toml:"analyze_delay"`
	CumulativeDataset string `toml:"cumulative_dataset"`

	// The historical comparison distance. Required for the historical
	// workflow: there is no default offset.
	OffsetDays  int `toml:"offset_days"`
	OffsetWeeks int `toml:"offset_weeks"`
}

type StorageConfig struct {
	DatasetDir  string `toml:"dataset_dir"`
	JournalPath string `toml:"journal_path"`
}

type SourceConfig struct {
	Type    string `toml:"type"`
	URL     string `toml:"url"`
	MaxRows int    `toml:"max_rows"`
	MinRows int    `toml:"min_rows"`

	// Lua sources only.
	ScriptPath      string                 `toml:"script_path"`
	Header          []string               `toml:"header"`
	VolumeColumn    string                 `toml:"volume_column"`
	AveragingWindow string                 `toml:"averaging_window"`
	Settings        map[string]interface{} `toml:"settings"`
}

type TimeConfig struct {
	URL string `toml:"url"`
}

type AnalyzerConfig struct {
	Backend string `toml:"backend"`
	Model   string `toml:"model"`
}

type NotifyConfig struct {
	Discord DiscordNotifyConfig `toml:"discord"`
	Feed    FeedNotifyConfig    `toml:"feed"`
}

type DiscordNotifyConfig struct {
	Enabled   bool   `toml:"enabled"`
	BotToken  string `toml:"bot_token"`
	ChannelID string `toml:"channel_id"`
}

type FeedNotifyConfig struct {
	Enabled  bool   `toml:"enabled"`
	Port     string `toml:"port"`
	FeedSize int    `toml:"feed_size"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func validateConfig(config *Config) error {
	if config.Pipeline.Name == "" {
		config.Pipeline.Name = "etfpulse"
	}

	if config.Pipeline.Workflow == "" {
		config.Pipeline.Workflow = "historical"
	}
	switch config.Pipeline.Workflow {
	case "historical", "compare":
	default:
		return fmt.Errorf("unknown workflow: %s", config.Pipeline.Workflow)
	}

	if config.Pipeline.Interval == "" {
		config.Pipeline.Interval = "24h"
	}
	if _, err := time.ParseDuration(config.Pipeline.Interval); err != nil {
		return fmt.Errorf("invalid interval: %w", err)
	}

	if config.Pipeline.MaxAttempts == 0 {
		config.Pipeline.MaxAttempts = 3
	}
	if config.Pipeline.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1")
	}

	if config.Pipeline.RetryDelay == "" {
		config.Pipeline.RetryDelay = "1s"
	}
	if _, err := time.ParseDuration(config.Pipeline.RetryDelay); err != nil {
		return fmt.Errorf("invalid retry_delay: %w", err)
	}

	if config.Pipeline.AnalyzeDelay == "" {
		config.Pipeline.AnalyzeDelay = "2s"
	}
	if _, err := time.ParseDuration(config.Pipeline.AnalyzeDelay); err != nil {
		return fmt.Errorf("invalid analyze_delay: %w", err)
	}

	if config.Pipeline.Workflow == "historical" {
		if config.Pipeline.CumulativeDataset == "" {
			config.Pipeline.CumulativeDataset = "etf_volume"
		}
		if config.Pipeline.OffsetDays == 0 && config.Pipeline.OffsetWeeks == 0 {
			return fmt.Errorf("historical workflow requires offset_days or offset_weeks")
		}
		if config.Pipeline.OffsetDays < 0 || config.Pipeline.OffsetWeeks < 0 {
			return fmt.Errorf("offsets must be positive")
		}
	}

	if config.Storage.DatasetDir == "" {
		config.Storage.DatasetDir = "./data"
	}
	if config.Storage.JournalPath == "" {
		config.Storage.JournalPath = "./etfpulse.db"
	}

	if _, ok := config.Sources["primary"]; !ok {
		return fmt.Errorf("a [sources.primary] section is required")
	}
	if config.Pipeline.Workflow == "compare" {
		if _, ok := config.Sources["secondary"]; !ok {
			return fmt.Errorf("the compare workflow requires a [sources.secondary] section")
		}
	}

	for name, src := range config.Sources {
		switch src.Type {
		case "etfdb", "yahoo":
		case "lua":
			if src.ScriptPath == "" {
				return fmt.Errorf("source %s: script_path is required for lua sources", name)
			}
			if len(src.Header) == 0 {
				return fmt.Errorf("source %s: header is required for lua sources", name)
			}
		default:
			return fmt.Errorf("source %s: unknown type %q", name, src.Type)
		}
	}

	if config.Analyzer.Backend == "" {
		config.Analyzer.Backend = "ollama"
	}
	switch config.Analyzer.Backend {
	case "ollama", "openai", "anthropic":
	default:
		return fmt.Errorf("unknown analyzer backend: %s", config.Analyzer.Backend)
	}
	if config.Analyzer.Model == "" {
		return fmt.Errorf("analyzer model is required")
	}

	if config.Notify.Discord.Enabled {
		if config.Notify.Discord.BotToken == "" || config.Notify.Discord.ChannelID == "" {
			return fmt.Errorf("discord notifier requires bot_token and channel_id")
		}
	}

	return nil
}
