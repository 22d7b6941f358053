// Package core sequences the pipeline: fetch, validate, transform, persist,
// filter, analyze. Each validation gate runs inside a bounded retry budget;
// exhausting a budget fails the whole run. Execution is single-threaded and
// strictly sequential, and the orchestrator assumes at most one run at a
// time against each dataset: callers launching concurrent runs must
// serialize them.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"etfpulse/internal/analyzer"
	"etfpulse/internal/filter"
	"etfpulse/internal/notify"
	"etfpulse/internal/retry"
	"etfpulse/internal/sources"
	"etfpulse/internal/store"
	"etfpulse/internal/transform"
	"etfpulse/internal/types"
	"etfpulse/internal/validate"
)

type Config struct {
	Workflow Workflow

	Primary   sources.TableSource
	Secondary sources.TableSource // compare workflow only
	Time      sources.TimeSource

	Store    *store.Store
	Journal  Journal
	Analyzer analyzer.TrendAnalyzer

	Notifiers []notify.Notifier

	// CumulativeDataset is the append-mode store of the historical
	// workflow. Snapshot datasets are derived from source names.
	CumulativeDataset string

	// FilterOffset must be explicit; there is no default comparison
	// distance.
	FilterOffset types.DateFilterSpec

	MaxAttempts  int
	RetryDelay   time.Duration
	AnalyzeDelay time.Duration
}

type Orchestrator struct {
	cfg   Config
	state State
}

func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Primary == nil {
		return nil, fmt.Errorf("orchestrator requires a primary source")
	}
	if cfg.Time == nil {
		return nil, fmt.Errorf("orchestrator requires a time source")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("orchestrator requires a dataset store")
	}
	if cfg.Analyzer == nil {
		return nil, fmt.Errorf("orchestrator requires an analyzer")
	}

	switch cfg.Workflow {
	case WorkflowHistorical:
		if cfg.CumulativeDataset == "" {
			return nil, fmt.Errorf("historical workflow requires a cumulative dataset name")
		}
		if !cfg.FilterOffset.HasOffset() {
			return nil, fmt.Errorf("historical workflow requires an explicit filter offset")
		}
	case WorkflowCompare:
		if cfg.Secondary == nil {
			return nil, fmt.Errorf("compare workflow requires a secondary source")
		}
	default:
		return nil, fmt.Errorf("unknown workflow %q", cfg.Workflow)
	}

	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.AnalyzeDelay == 0 {
		cfg.AnalyzeDelay = 2 * time.Second
	}

	return &Orchestrator{cfg: cfg, state: StateIdle}, nil
}

func (o *Orchestrator) State() State {
	return o.state
}

func (o *Orchestrator) Initialize(ctx context.Context) error {
	if err := o.cfg.Primary.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize source %s: %w", o.cfg.Primary.Name(), err)
	}
	if o.cfg.Secondary != nil {
		if err := o.cfg.Secondary.Initialize(ctx); err != nil {
			return fmt.Errorf("failed to initialize source %s: %w", o.cfg.Secondary.Name(), err)
		}
	}
	for _, n := range o.cfg.Notifiers {
		if err := n.Initialize(ctx); err != nil {
			return fmt.Errorf("failed to initialize notifier %s: %w", n.Name(), err)
		}
	}
	return nil
}

// Run drives one pipeline run to Done or Failed.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	runID := o.beginRun(ctx)

	var (
		result *Result
		err    error
	)

	switch o.cfg.Workflow {
	case WorkflowHistorical:
		result, err = o.runHistorical(ctx, runID)
	case WorkflowCompare:
		result, err = o.runCompare(ctx, runID)
	}

	if err != nil {
		o.setState(StateFailed)
		o.finishRun(ctx, runID, string(StateFailed), err.Error())
		return nil, err
	}

	o.setState(StateDone)
	o.finishRun(ctx, runID, string(StateDone), "")
	o.notifyAll(ctx, result)

	return result, nil
}

func (o *Orchestrator) runHistorical(ctx context.Context, runID int64) (*Result, error) {
	table, prov, err := o.fetchGate(ctx, runID, StateFetchPrimary, StateValidatePrimary, o.cfg.Primary)
	if err != nil {
		return nil, types.NewPipelineError(string(StateValidatePrimary), "table gate exhausted", err)
	}

	stamp, err := o.timestampGate(ctx, runID)
	if err != nil {
		return nil, types.NewPipelineError(string(StateValidateTimestamp), "timestamp gate exhausted", err)
	}

	o.setState(StateTransform)
	stamped := transform.StandardizeHeaders(transform.AddDateColumn(table, stamp))

	o.setState(StatePersist)
	rawDataset := o.cfg.Primary.Name() + "_raw"
	if err := o.cfg.Store.Write(ctx, rawDataset, table, store.Overwrite); err != nil {
		return nil, types.NewPipelineError(string(StatePersist), "raw snapshot write failed", err)
	}
	if err := o.cfg.Store.Write(ctx, o.cfg.CumulativeDataset, stamped, store.Append); err != nil {
		return nil, types.NewPipelineError(string(StatePersist), "cumulative append failed", err)
	}

	o.setState(StateFilter)
	cumulative, err := o.cfg.Store.Read(ctx, o.cfg.CumulativeDataset)
	if err != nil {
		return nil, types.NewPipelineError(string(StateFilter), "cumulative read failed", err)
	}

	anchor, err := time.Parse(types.TimestampLayout, stamp.Value)
	if err != nil {
		return nil, types.NewPipelineError(string(StateFilter), "stamp unparseable", err)
	}
	spec := o.cfg.FilterOffset
	spec.Anchor = anchor

	present, earlier, filterErr := filter.ByDate(cumulative, spec)
	presentDay, earlierDay := spec.Targets()

	o.setState(StateAnalyze)
	if filterErr != nil {
		// Soft condition: one or both target dates have no rows. The
		// analysis step is told there is nothing to compare; the run
		// still completes.
		slog.Warn("historical filter found no comparison data",
			"dataset", o.cfg.CumulativeDataset, "reason", filterErr)
		return &Result{
			Workflow:   o.cfg.Workflow,
			RunDate:    presentDay,
			Summary:    fmt.Sprintf("%s (%v)", analyzer.NoComparisonData, filterErr),
			Provenance: []types.Provenance{prov, stamp.Provenance},
		}, nil
	}

	schema := o.cfg.Primary.Schema()
	note := analyzer.HistoricalNote(
		schema.Describe(),
		presentDay,
		earlierDay,
		analyzer.ColumnStats(present, schema.VolumeColumn),
		analyzer.ColumnStats(earlier, schema.VolumeColumn),
	)

	prose, err := o.analyze(ctx, runID, present, earlier, note)
	if err != nil {
		return nil, types.NewPipelineError(string(StateAnalyze), "analysis exhausted", err)
	}

	return &Result{
		Workflow:   o.cfg.Workflow,
		RunDate:    presentDay,
		Summary:    prose,
		Provenance: []types.Provenance{prov, stamp.Provenance},
	}, nil
}

func (o *Orchestrator) runCompare(ctx context.Context, runID int64) (*Result, error) {
	primary, primaryProv, err := o.fetchGate(ctx, runID, StateFetchPrimary, StateValidatePrimary, o.cfg.Primary)
	if err != nil {
		return nil, types.NewPipelineError(string(StateValidatePrimary), "primary table gate exhausted", err)
	}

	secondary, secondaryProv, err := o.fetchGate(ctx, runID, StateFetchSecondary, StateValidateSecondary, o.cfg.Secondary)
	if err != nil {
		return nil, types.NewPipelineError(string(StateValidateSecondary), "secondary table gate exhausted", err)
	}

	stamp, err := o.timestampGate(ctx, runID)
	if err != nil {
		return nil, types.NewPipelineError(string(StateValidateTimestamp), "timestamp gate exhausted", err)
	}

	o.setState(StateTransform)
	stampedPrimary := transform.StandardizeHeaders(transform.AddDateColumn(primary, stamp))
	stampedSecondary := transform.StandardizeHeaders(transform.AddDateColumn(secondary, stamp))

	o.setState(StatePersist)
	if err := o.cfg.Store.Write(ctx, o.cfg.Primary.Name()+"_output", stampedPrimary, store.Overwrite); err != nil {
		return nil, types.NewPipelineError(string(StatePersist), "primary snapshot write failed", err)
	}
	if err := o.cfg.Store.Write(ctx, o.cfg.Secondary.Name()+"_output", stampedSecondary, store.Overwrite); err != nil {
		return nil, types.NewPipelineError(string(StatePersist), "secondary snapshot write failed", err)
	}

	o.setState(StateAnalyze)
	note := analyzer.ComparisonNote(o.cfg.Primary.Schema().Describe(), o.cfg.Secondary.Schema().Describe())

	prose, err := o.analyze(ctx, runID, stampedPrimary, stampedSecondary, note)
	if err != nil {
		return nil, types.NewPipelineError(string(StateAnalyze), "analysis exhausted", err)
	}

	return &Result{
		Workflow:   o.cfg.Workflow,
		RunDate:    stamp.DateOnly(),
		Summary:    prose,
		Provenance: []types.Provenance{primaryProv, secondaryProv, stamp.Provenance},
	}, nil
}

// fetchGate runs fetch-then-validate as one retried operation: a failed
// validation re-runs the whole fetch. The gate's success provenance is
// journaled.
func (o *Orchestrator) fetchGate(ctx context.Context, runID int64, fetchState, validateState State, src sources.TableSource) (types.Table, types.Provenance, error) {
	type fetched struct {
		table types.Table
		prov  types.Provenance
	}

	schema := src.Schema()
	expectation := validate.TableExpectation{Header: schema.Header, MinRows: schema.MinRows}

	cfg := retry.Config{
		Stage:       string(validateState),
		MaxAttempts: o.cfg.MaxAttempts,
		Delay:       o.cfg.RetryDelay,
		OnAttempt:   o.journalAttempt(ctx, runID, string(validateState)),
	}

	result, err := retry.Execute(ctx, cfg, func(ctx context.Context) (fetched, error) {
		o.setState(fetchState)
		table, prov, err := src.Fetch(ctx)
		if err != nil {
			return fetched{}, err
		}

		o.setState(validateState)
		if v := validate.Table(table, expectation); !v.Valid {
			return fetched{}, types.NewValidationError(string(validateState), v.Reason)
		}

		return fetched{table: table, prov: prov}, nil
	})
	if err != nil {
		return types.Table{}, types.Provenance{}, err
	}

	slog.Info("table gate passed", "source", src.Name(), "rows", result.table.NumRows(), "provenance", result.prov.String())
	o.journalFetch(ctx, runID, string(fetchState), result.prov)

	return result.table, result.prov, nil
}

// timestampGate fetches and validates the external timestamp under the same
// retry budget shape as the table gates.
func (o *Orchestrator) timestampGate(ctx context.Context, runID int64) (types.TimestampRecord, error) {
	cfg := retry.Config{
		Stage:       string(StateValidateTimestamp),
		MaxAttempts: o.cfg.MaxAttempts,
		Delay:       o.cfg.RetryDelay,
		OnAttempt:   o.journalAttempt(ctx, runID, string(StateValidateTimestamp)),
	}

	record, err := retry.Execute(ctx, cfg, func(ctx context.Context) (types.TimestampRecord, error) {
		o.setState(StateFetchTimestamp)
		record, err := o.cfg.Time.Fetch(ctx)
		if err != nil {
			return types.TimestampRecord{}, err
		}

		o.setState(StateValidateTimestamp)
		if v := validate.Timestamp(record.Value); !v.Valid {
			return types.TimestampRecord{}, types.NewValidationError(string(StateValidateTimestamp), v.Reason)
		}

		return record, nil
	})
	if err != nil {
		return types.TimestampRecord{}, err
	}

	slog.Info("timestamp gate passed", "value", record.Value, "provenance", record.Provenance.String())
	o.journalFetch(ctx, runID, string(StateFetchTimestamp), record.Provenance)

	return record, nil
}

// analyze sends the assembled request to the collaborator, retried with its
// own (typically longer) delay.
func (o *Orchestrator) analyze(ctx context.Context, runID int64, present, earlier types.Table, note string) (string, error) {
	cfg := retry.Config{
		Stage:       string(StateAnalyze),
		MaxAttempts: o.cfg.MaxAttempts,
		Delay:       o.cfg.AnalyzeDelay,
		OnAttempt:   o.journalAttempt(ctx, runID, string(StateAnalyze)),
	}

	return retry.Execute(ctx, cfg, func(ctx context.Context) (string, error) {
		return o.cfg.Analyzer.Summarize(ctx, present, earlier, note)
	})
}

func (o *Orchestrator) notifyAll(ctx context.Context, result *Result) {
	if len(o.cfg.Notifiers) == 0 {
		return
	}

	summary := &notify.Summary{
		Workflow:   string(result.Workflow),
		RunDate:    result.RunDate,
		Prose:      result.Summary,
		Provenance: result.Provenance,
		Created:    time.Now().UTC(),
	}

	for _, n := range o.cfg.Notifiers {
		if err := n.Publish(ctx, summary); err != nil {
			slog.Error("notifier failed", "notifier", n.Name(), "error", err)
		}
	}
}

func (o *Orchestrator) setState(s State) {
	slog.Debug("pipeline state transition", "from", o.state, "to", s)
	o.state = s
}

func (o *Orchestrator) beginRun(ctx context.Context) int64 {
	if o.cfg.Journal == nil {
		return 0
	}
	runID, err := o.cfg.Journal.BeginRun(ctx, string(o.cfg.Workflow))
	if err != nil {
		slog.Error("failed to journal run start", "error", err)
		return 0
	}
	return runID
}

func (o *Orchestrator) finishRun(ctx context.Context, runID int64, state, reason string) {
	if o.cfg.Journal == nil {
		return
	}
	if err := o.cfg.Journal.FinishRun(ctx, runID, state, reason); err != nil {
		slog.Error("failed to journal run finish", "error", err)
	}
}

func (o *Orchestrator) journalFetch(ctx context.Context, runID int64, stage string, prov types.Provenance) {
	if o.cfg.Journal == nil {
		return
	}
	if err := o.cfg.Journal.RecordFetch(ctx, runID, stage, prov.Source, prov.URL); err != nil {
		slog.Error("failed to journal fetch provenance", "error", err)
	}
}

func (o *Orchestrator) journalAttempt(ctx context.Context, runID int64, stage string) func(int, error) {
	if o.cfg.Journal == nil {
		return nil
	}
	return func(attempt int, attemptErr error) {
		outcome, reason := "success", ""
		if attemptErr != nil {
			outcome, reason = "failure", attemptErr.Error()
		}
		if err := o.cfg.Journal.RecordAttempt(ctx, runID, stage, attempt, outcome, reason); err != nil {
			slog.Error("failed to journal attempt", "error", err)
		}
	}
}

func (o *Orchestrator) Shutdown(ctx context.Context) error {
	var errs []error

	if err := o.cfg.Primary.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("source %s shutdown error: %w", o.cfg.Primary.Name(), err))
	}
	if o.cfg.Secondary != nil {
		if err := o.cfg.Secondary.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("source %s shutdown error: %w", o.cfg.Secondary.Name(), err))
		}
	}
	for _, n := range o.cfg.Notifiers {
		if err := n.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("notifier %s shutdown error: %w", n.Name(), err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}
