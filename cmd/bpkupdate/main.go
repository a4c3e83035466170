// Command bpkupdate recalibrates the jets of existing bprimeKit ntuples with
// a new set of JEC and JER constants.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bpkupdate/internal/app"
	"bpkupdate/internal/config"
	apperrors "bpkupdate/internal/errors"
	"bpkupdate/internal/infrastructure"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", config.AppName, err)
	}
	return apperrors.ExitCode(err)
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := config.RunOptions{}

	cmd := &cobra.Command{
		Use:   config.AppName + " -i <input.root> [-i ...] -o <output.root> [flags]",
		Short: "Apply updated jet energy corrections to bprimeKit ntuples",
		Long: `bpkupdate reads bprimeKit ntuples, recomputes the jet energy correction
factor, its uncertainty and the jet energy resolution scale factors with the
requested calibration versions, and writes a new ntuple with every other
branch copied unchanged.

Calibration files are read from $BPK_CALIBRATION_DATA_DIR or
$CMSSW_BASE/src/bpkFrameWork/bpkUpdate/data as
<version>/<version>_<level>_<label>.txt.`,
		Version:       config.AppVersion,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Inputs = append(opts.Inputs, args...)
			return runUpdate(cmd.Context(), opts, stdout)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringArrayVarP(&opts.Inputs, "input", "i", nil, "input ntuple, repeatable; glob patterns are expanded")
	f.StringVarP(&opts.Output, "output", "o", "", "output ntuple")
	f.IntVarP(&opts.MaxEvents, "maxevent", "m", config.DefaultMaxEvents, "events to process; -1 for all, 0 copies every event uncorrected")
	f.IntVarP(&opts.ReportInterval, "report", "r", config.DefaultReportInterval, "print progress every n events; 0 disables it")
	f.BoolVar(&opts.RunJEC, "runjec", false, "recompute the jet energy corrections")
	f.BoolVar(&opts.RunJER, "runjer", false, "recompute the jet energy resolution")
	f.StringVarP(&opts.JECVersion, "jecversion", "j", "", "JEC calibration version, e.g. Summer16_23Sep2016V4_MC")
	f.StringVar(&opts.JERVersion, "jerversion", "", "JER calibration version, e.g. Spring16_25nsV10_MC")
	f.StringSliceVar(&opts.Collections, "collections", []string{"CHS", "Puppi"}, "jet collection kinds to correct")
	f.StringVar(&opts.ConfigFile, "config", "", "configuration file (default bpkupdate.yaml or configs/bpkupdate.yaml)")
	f.StringVar(&opts.SummaryPath, "summary", "", "write a per-collection summary (.csv or .xlsx)")
	f.StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile at the end of the run")
	f.StringVar(&opts.DumpJets, "dump-jets", "", "write every processed jet to this CSV file")
	return cmd
}

func runUpdate(ctx context.Context, opts config.RunOptions, stdout io.Writer) error {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}
	if opts.MetricsFile != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.TextfilePath = opts.MetricsFile
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return apperrors.NewConfigError("failed to initialize logger", err)
	}
	defer infrastructure.CloseLogFile()

	a, err := app.NewApplication(cfg, logger)
	if err != nil {
		return err
	}
	a.Progress = stdout
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	summary, err := a.Run(ctx, opts)
	if err != nil {
		infrastructure.WithError(logger, err).Error("Run failed", slog.String("run_id", a.RunID))
		return err
	}
	fmt.Fprintf(stdout, "Wrote %d of %d events to %s\n", summary.Events, summary.Total, opts.Output)
	return nil
}
