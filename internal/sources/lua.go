package sources

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"etfpulse/internal/lua"
	"etfpulse/internal/types"
)

// LuaSource runs a user-supplied script through the sandboxed interpreter.
// The script defines `scrape(config)` and returns
// { url = "...", header = {...}, rows = {{...}, ...} }; the result goes
// through the same validation gates as the built-in fetchers, so a buggy
// script cannot push a malformed table past the orchestrator.
type LuaSource struct {
	name       string
	scriptPath string
	schema     Schema
	maxRows    int
	config     map[string]interface{}
	runtime    *lua.Runtime
}

func NewLuaSource(name, scriptPath string, schema Schema, maxRows int, config map[string]interface{}) (*LuaSource, error) {
	if scriptPath == "" {
		return nil, fmt.Errorf("script_path is required for a lua source")
	}
	if len(schema.Header) == 0 {
		return nil, fmt.Errorf("an expected header is required for a lua source")
	}
	if config == nil {
		config = make(map[string]interface{})
	}
	if maxRows > 0 {
		config["max_rows"] = maxRows
	}

	return &LuaSource{
		name:       name,
		scriptPath: scriptPath,
		schema:     schema,
		maxRows:    maxRows,
		config:     config,
	}, nil
}

func (s *LuaSource) Name() string {
	return s.name
}

func (s *LuaSource) Schema() Schema {
	return s.schema
}

func (s *LuaSource) Initialize(ctx context.Context) error {
	script, err := os.ReadFile(s.scriptPath)
	if err != nil {
		return fmt.Errorf("failed to read scraper script: %w", err)
	}

	s.runtime = lua.NewRuntime()
	if err := s.runtime.LoadScript(string(script)); err != nil {
		return err
	}

	slog.Info("lua source initialized", "source", s.name, "script", s.scriptPath)
	return nil
}

func (s *LuaSource) Fetch(ctx context.Context) (types.Table, types.Provenance, error) {
	prov := types.Provenance{Source: s.name, URL: s.scriptPath}

	results, err := s.runtime.Execute("scrape", s.config)
	if err != nil {
		return types.Table{}, prov, types.NewFetchError(s.name, s.scriptPath, err)
	}
	if len(results) == 0 {
		return types.Table{}, prov, types.NewFetchError(s.name, s.scriptPath,
			fmt.Errorf("script returned no result"))
	}

	resultMap, ok := results[0].(map[string]interface{})
	if !ok {
		return types.Table{}, prov, types.NewFetchError(s.name, s.scriptPath,
			fmt.Errorf("expected result table, got %T", results[0]))
	}

	if url, ok := resultMap["url"].(string); ok && url != "" {
		prov.URL = url
	}

	table, err := tableFromResult(resultMap, s.maxRows)
	if err != nil {
		return types.Table{}, prov, types.NewFetchError(s.name, prov.URL, err)
	}

	slog.Debug("lua source fetched table", "source", s.name, "rows", table.NumRows())
	return table, prov, nil
}

func tableFromResult(result map[string]interface{}, maxRows int) (types.Table, error) {
	header, err := stringSlice(result["header"])
	if err != nil {
		return types.Table{}, fmt.Errorf("bad header: %w", err)
	}

	rawRows, ok := result["rows"].([]interface{})
	if !ok {
		return types.Table{}, fmt.Errorf("bad rows: expected array, got %T", result["rows"])
	}

	rows := make([][]string, 0, len(rawRows))
	for i, raw := range rawRows {
		if maxRows > 0 && len(rows) >= maxRows {
			break
		}
		row, err := stringSlice(raw)
		if err != nil {
			return types.Table{}, fmt.Errorf("bad row %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}

	return types.NewTable(header, rows), nil
}

func stringSlice(v interface{}) ([]string, error) {
	raw, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected array, got %T", v)
	}
	out := make([]string, len(raw))
	for i, cell := range raw {
		switch c := cell.(type) {
		case string:
			out[i] = c
		case float64:
			out[i] = fmt.Sprintf("%v", c)
		default:
			return nil, fmt.Errorf("cell %d has unsupported type %T", i+1, cell)
		}
	}
	return out, nil
}

func (s *LuaSource) Shutdown(ctx context.Context) error {
	if s.runtime != nil {
		return s.runtime.Close()
	}
	return nil
}
