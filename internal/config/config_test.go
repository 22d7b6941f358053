package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
[pipeline]
offset_weeks = 1

[sources.primary]
type = "etfdb"

[analyzer]
model = "qwen3:8b"
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	require.Equal(t, "etfpulse", cfg.Pipeline.Name)
	require.Equal(t, "historical", cfg.Pipeline.Workflow)
	require.Equal(t, "24h", cfg.Pipeline.Interval)
	require.Equal(t, 3, cfg.Pipeline.MaxAttempts)
	require.Equal(t, "1s", cfg.Pipeline.RetryDelay)
	require.Equal(t, "2s", cfg.Pipeline.AnalyzeDelay)
	require.Equal(t, "etf_volume", cfg.Pipeline.CumulativeDataset)
	require.Equal(t, "./data", cfg.Storage.DatasetDir)
	require.Equal(t, "ollama", cfg.Analyzer.Backend)
}

func TestLoadRejectsMissingOffset(t *testing.T) {
	_, err := Load(writeConfig(t, `
[pipeline]
workflow = "historical"

[sources.primary]
type = "etfdb"

[analyzer]
model = "qwen3:8b"
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "offset")
}

func TestLoadRejectsUnknownWorkflow(t *testing.T) {
	_, err := Load(writeConfig(t, `
[pipeline]
workflow = "nightly"

[sources.primary]
type = "etfdb"

[analyzer]
model = "qwen3:8b"
`))
	require.Error(t, err)
}

func TestLoadCompareRequiresSecondary(t *testing.T) {
	_, err := Load(writeConfig(t, `
[pipeline]
workflow = "compare"

[sources.primary]
type = "etfdb"

[analyzer]
model = "qwen3:8b"
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "secondary")
}

func TestLoadRejectsLuaSourceWithoutScript(t *testing.T) {
	_, err := Load(writeConfig(t, `
[pipeline]
offset_weeks = 1

[sources.primary]
type = "lua"

[analyzer]
model = "qwen3:8b"
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "script_path")
}

func TestLoadRejectsUnknownAnalyzerBackend(t *testing.T) {
	_, err := Load(writeConfig(t, `
[pipeline]
offset_weeks = 1

[sources.primary]
type = "etfdb"

[analyzer]
backend = "bard"
model = "bard-1"
`))
	require.Error(t, err)
}

func TestLoadRejectsEnabledDiscordWithoutCredentials(t *testing.T) {
	_, err := Load(writeConfig(t, `
[pipeline]
offset_weeks = 1

[sources.primary]
type = "etfdb"

[analyzer]
model = "qwen3:8b"

[notify.discord]
enabled = true
`))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
