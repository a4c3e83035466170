package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"bpkupdate/internal/config"
	"bpkupdate/internal/correction"
	apperrors "bpkupdate/internal/errors"
	"bpkupdate/internal/exporter"
	"bpkupdate/internal/infrastructure"
	"bpkupdate/internal/ntuple"
	"bpkupdate/internal/validation"
)

// SourceOpener opens the input datasets.
type SourceOpener func(schema ntuple.Schema, inputs []string) (ntuple.Source, error)

// SinkCreator creates the output dataset with the schema of src.
type SinkCreator func(src ntuple.Source, output string) (ntuple.Sink, error)

// Application wires one bpkupdate run
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	RunID     string
	OTel      *infrastructure.OTelProviders
	Metrics   *infrastructure.RunMetrics
	System    *infrastructure.SystemMetrics
	Validator *validation.FileValidator
	// Progress receives the "Processing event i of n" lines.
	Progress   io.Writer
	OpenSource SourceOpener
	CreateSink SinkCreator

	started time.Time
}

// NewApplication creates the application for one run. Datasets default to
// the ROOT backend.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	runID := infrastructure.GenerateRunID()

	otelProviders, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:    infrastructure.ServiceName,
		ServiceVersion: config.AppVersion,
		RunID:          runID,
		EnableMetrics:  cfg.Metrics.Enabled,
		EnableTracing:  cfg.Metrics.Tracing,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	ctx := context.Background()
	runMetrics, err := infrastructure.NewRunMetrics(ctx, otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize run metrics: %w", err)
	}
	systemMetrics, err := infrastructure.NewSystemMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize system metrics: %w", err)
	}

	return &Application{
		Config:     cfg,
		Logger:     logger,
		RunID:      runID,
		OTel:       otelProviders,
		Metrics:    runMetrics,
		System:     systemMetrics,
		Validator:  validation.NewFileValidator(infrastructure.WithComponent(logger, "validation")),
		Progress:   os.Stdout,
		OpenSource: OpenROOT,
		CreateSink: CreateROOT,
		started:    time.Now(),
	}, nil
}

// OpenROOT opens the inputs as one chained ROOT tree.
func OpenROOT(schema ntuple.Schema, inputs []string) (ntuple.Source, error) {
	src, err := ntuple.OpenROOT(schema, inputs...)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// CreateROOT creates a ROOT output cloned from a ROOT source.
func CreateROOT(src ntuple.Source, output string) (ntuple.Sink, error) {
	rs, ok := src.(*ntuple.ROOTSource)
	if !ok {
		return nil, apperrors.NewDatasetError(fmt.Sprintf("cannot write ROOT output from %T", src), nil)
	}
	sink, err := ntuple.CreateROOT(rs, output)
	if err != nil {
		return nil, err
	}
	return sink, nil
}

// Run executes one recalibration. Option and selection errors are returned
// before any dataset is opened. Calibrations are loaded only for the
// collections the dataset holds. On failure the output is discarded.
func (a *Application) Run(ctx context.Context, opts config.RunOptions) (exporter.Summary, error) {
	ctx = infrastructure.WithRunID(ctx, a.RunID)
	logger := a.Logger.With(slog.String("run_id", a.RunID))
	start := time.Now()

	if err := opts.Validate(); err != nil {
		return exporter.Summary{}, err
	}
	rc, err := runConfiguration(opts)
	if err != nil {
		return exporter.Summary{}, err
	}
	sel, err := correction.Select(rc)
	if err != nil {
		return exporter.Summary{}, err
	}

	inputs, err := a.Validator.ExpandInputs(opts.Inputs)
	if err != nil {
		return exporter.Summary{}, err
	}
	if err := a.Validator.ValidateInputs(inputs); err != nil {
		return exporter.Summary{}, err
	}
	if err := a.Validator.ValidateOutput(opts.Output); err != nil {
		return exporter.Summary{}, err
	}

	logger.Info("Run starting",
		slog.Any("inputs", inputs),
		slog.String("output", opts.Output),
		slog.String("jec_version", sel.JECVersion),
		slog.String("jer_version", sel.JERVersion),
		slog.Any("collections", sel.Collections),
		slog.Int("max_events", opts.MaxEvents))

	schema := ntuple.DefaultSchema()
	schema.Tree = a.Config.Calibration.Tree
	src, err := a.OpenSource(schema, inputs)
	if err != nil {
		return exporter.Summary{}, err
	}
	defer src.Close()
	sel.Collections = presentCollections(sel.Collections, src.Collections())

	registry, err := a.loadCalibrations(ctx, sel, logger)
	if err != nil {
		return exporter.Summary{}, err
	}
	defer registry.Close()

	stats, err := a.process(ctx, opts, src, rc, sel, registry, logger)
	if err != nil {
		return exporter.Summary{}, err
	}

	summary := exporter.NewSummary(stats, func(collection string) string {
		if c, ok := registry.For(collection); ok {
			return c.Label
		}
		return ""
	})
	summary.RunID = a.RunID
	summary.JECVersion = sel.JECVersion
	summary.JERVersion = sel.JERVersion
	summary.Inputs = inputs
	summary.Output = opts.Output
	summary.Duration = time.Since(start)

	if err := a.report(ctx, opts, summary, logger); err != nil {
		return summary, err
	}

	logger.Info("Run complete",
		slog.Int64("events", stats.Events),
		slog.Int64("entries", stats.Total),
		slog.Bool("copy_only", stats.CopyOnly),
		slog.Duration("duration", summary.Duration))
	return summary, nil
}

func runConfiguration(opts config.RunOptions) (correction.RunConfiguration, error) {
	rc := correction.RunConfiguration{
		RunJEC:         opts.RunJEC,
		RunJER:         opts.RunJER,
		JECVersion:     opts.JECVersion,
		JERVersion:     opts.JERVersion,
		MaxEvents:      opts.MaxEvents,
		ReportInterval: opts.ReportInterval,
	}
	if len(opts.Collections) == 0 {
		rc.ActiveCollections = []correction.Kind{correction.CHS, correction.Puppi}
		return rc, nil
	}
	seen := make(map[correction.Kind]bool)
	for _, s := range opts.Collections {
		k, err := correction.ParseKind(s)
		if err != nil {
			return rc, apperrors.NewConfigError("invalid collection", err).WithContext("flag", "collections")
		}
		if !seen[k] {
			seen[k] = true
			rc.ActiveCollections = append(rc.ActiveCollections, k)
		}
	}
	return rc, nil
}

// presentCollections keeps the requested collections found in the dataset.
func presentCollections(requested, present []string) []string {
	out := make([]string, 0, len(requested))
	for _, name := range requested {
		if slices.Contains(present, name) {
			out = append(out, name)
		}
	}
	return out
}

// loadCalibrations builds every corrector of the run. An inactive selection
// yields an empty registry.
func (a *Application) loadCalibrations(ctx context.Context, sel correction.Selection, logger *slog.Logger) (reg *correction.Registry, err error) {
	policy, err := correction.ParseFallbackPolicy(a.Config.Calibration.PuppiFallback)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid puppi fallback", err)
	}
	if !sel.Active() {
		logger.Info("No correction requested, events are copied unchanged")
		return correction.NewRegistry(correction.NewLoader("", logger), policy, logger), nil
	}

	dataDir, err := a.Config.CalibrationDataDir()
	if err != nil {
		return nil, err
	}

	ctx, span := a.OTel.StartSpan(ctx, "calibration.load",
		attribute.String("jec_version", sel.JECVersion),
		attribute.String("jer_version", sel.JERVersion))
	defer func() { infrastructure.EndSpan(span, err) }()

	loader := correction.NewLoader(dataDir, infrastructure.WithComponent(logger, "loader"))
	loader.Observer = a.Metrics
	reg = correction.NewRegistry(loader, policy, infrastructure.WithComponent(logger, "registry"))
	reg.SetConcurrency(a.Config.Calibration.LoadConcurrency)

	if err = reg.Load(ctx, sel); err != nil {
		for _, p := range apperrors.MissingPaths(err) {
			logger.Error("Missing calibration file", slog.String("path", p))
		}
		return nil, err
	}
	logger.Info("Calibrations loaded",
		slog.String("data_dir", dataDir),
		slog.Any("labels", reg.Labels()))
	return reg, nil
}

// process runs the event loop and publishes or discards the output.
func (a *Application) process(ctx context.Context, opts config.RunOptions, src ntuple.Source,
	rc correction.RunConfiguration, sel correction.Selection, registry *correction.Registry, logger *slog.Logger) (stats correction.RunStats, err error) {
	sink, err := a.CreateSink(src, opts.Output)
	if err != nil {
		return stats, err
	}

	var writer correction.Sink = sink
	var dump *exporter.JetDump
	if opts.DumpJets != "" {
		stream, err := exporter.NewCSVWriter(logger).CreateStreamWriter(opts.DumpJets, exporter.JetDumpHeaders)
		if err != nil {
			sink.Abort()
			return stats, apperrors.NewDatasetError("failed to create jet dump", err).WithContext("path", opts.DumpJets)
		}
		dump = exporter.NewJetDump(sink, stream)
		writer = dump
	}

	var correctors correction.CorrectorSet
	if sel.Active() {
		correctors = registry
	}
	it := &correction.Iterator{
		Source:         src,
		Sink:           writer,
		Correctors:     correctors,
		Collections:    rc.Collections(),
		MaxEvents:      rc.MaxEvents,
		ReportInterval: rc.ReportInterval,
		Progress:       a.Progress,
		Observer:       a.Metrics,
		Logger:         infrastructure.WithComponent(logger, "iterator"),
	}

	loopCtx, span := a.OTel.StartSpan(ctx, "events.iterate",
		attribute.Int64("entries", src.Entries()),
		attribute.Int("max_events", rc.MaxEvents))
	start := time.Now()
	stats, err = it.Run(loopCtx)
	infrastructure.EndSpan(span, err)
	a.Metrics.ObserveRun(time.Since(start), stats.CopyOnly)

	if err != nil {
		logger.Error("Event loop failed, discarding output",
			slog.Int64("events_written", stats.Events),
			slog.String("error", err.Error()))
		if abortErr := sink.Abort(); abortErr != nil {
			logger.Warn("Failed to discard output", slog.String("error", abortErr.Error()))
		}
		if dump != nil {
			dump.Close()
			os.Remove(opts.DumpJets)
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) || errors.Is(err, context.Canceled) {
			return stats, err
		}
		return stats, apperrors.NewDatasetError("event loop failed", err)
	}

	if dump != nil {
		if err := dump.Close(); err != nil {
			sink.Abort()
			return stats, apperrors.NewDatasetError("failed to write jet dump", err).WithContext("path", opts.DumpJets)
		}
	}
	if err := sink.Commit(); err != nil {
		return stats, apperrors.NewDatasetError("failed to finalize output", err).WithContext("path", opts.Output)
	}
	return stats, nil
}

// report writes the run summary and the metrics textfile.
func (a *Application) report(ctx context.Context, opts config.RunOptions, summary exporter.Summary, logger *slog.Logger) error {
	path := opts.SummaryPath
	if path == "" {
		path = a.Config.Report.SummaryPath
	}
	if path != "" {
		if err := exporter.WriteSummary(path, summary, logger); err != nil {
			return fmt.Errorf("failed to write run summary: %w", err)
		}
		logger.Info("Run summary written", slog.String("path", path))
	}

	sys := a.System.Collect(ctx, a.started)
	logger.Debug("Process statistics",
		slog.Int64("memory_bytes", sys.MemoryUsage),
		slog.Int("gc_count", int(sys.GCCount)))

	if err := a.OTel.WriteMetrics(a.Config.Metrics.TextfilePath); err != nil {
		return err
	}
	return nil
}

// Close flushes telemetry.
func (a *Application) Close(ctx context.Context) error {
	return a.OTel.Shutdown(ctx)
}
