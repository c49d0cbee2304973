package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ethanbaker/controlfill/internal/completion"
	"github.com/ethanbaker/controlfill/internal/filler"
	"github.com/ethanbaker/controlfill/internal/snapshot"
	"github.com/ethanbaker/controlfill/internal/stores/ledger"
	"github.com/ethanbaker/controlfill/pkg/sdk"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Completion providers
const (
	providerAskSage = "asksage"
	providerOpenAI  = "openai"
)

func newRunCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fill every control that has no implementation statement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFill(cmd, opts)
		},
	}
	addRunFlags(cmd, opts)
	return cmd
}

// runFill wires the configured backend, sinks and ledger into a processor
// and runs it to completion
func runFill(cmd *cobra.Command, opts *options) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := opts.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s, err := loadSettings(opts)
	if err != nil {
		return err
	}

	ds, source, err := s.loadDataset()
	if err != nil {
		return err
	}

	runID := uuid.New()
	logger.Info("Loaded controls",
		zap.String("run_id", runID.String()),
		zap.String("source", source),
		zap.String("output", s.outputPath),
		zap.Int("rows", ds.Len()),
		zap.Int("pending", len(ds.Pending())),
		zap.String("model", s.profile.Model))

	proc := &filler.Processor{
		Dataset:  ds,
		Template: s.template,
		Params: filler.Params{
			Model:       s.profile.Model,
			Temperature: s.profile.Temperature,
			Dataset:     s.profile.Dataset,
		},
		Pace:   s.profile.Pacing,
		DryRun: opts.dryRun,
		Limit:  opts.limit,
		RunID:  runID,
		Logger: logger,
	}

	if !opts.dryRun {
		if proc.Completer, err = newCompleter(ctx, s, logger); err != nil {
			return err
		}

		sink, err := newSink(ctx, s)
		if err != nil {
			return err
		}
		proc.Snapshot = &snapshot.Writer{Dataset: ds, Sink: sink}

		store, err := newLedger(s, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		proc.Ledger = store
	}

	summary, err := proc.Run(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "rows: %d, skipped: %d, completed: %d, attempts: %d",
		summary.Total, summary.Skipped, summary.Completed, summary.Attempts)
	if opts.dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), ", planned: %d", summary.Planned)
	}
	fmt.Fprintln(cmd.OutOrStdout())

	return err
}

// newCompleter selects the text-generation backend and wraps it in the
// configured retry policy. Credentials are checked before any row is touched
func newCompleter(ctx context.Context, s *settings, logger *zap.Logger) (*completion.Retrier, error) {
	var backend completion.Backend

	switch provider := strings.ToLower(s.cfg.GetWithDefault("COMPLETION_PROVIDER", providerAskSage)); provider {
	case providerAskSage:
		if err := s.cfg.Require("ASKSAGE_USERNAME", "ASKSAGE_API_KEY"); err != nil {
			return nil, err
		}

		client := sdk.NewClient(s.cfg.GetWithDefault("ASKSAGE_BASE_URL", sdk.DefaultBaseURL))
		b, err := completion.NewAskSageBackend(ctx, client, s.cfg.Get("ASKSAGE_USERNAME"), s.cfg.Get("ASKSAGE_API_KEY"))
		if err != nil {
			return nil, err
		}
		logger.Info("Authenticated", zap.String("provider", provider), zap.String("base_url", client.BaseURL()))
		backend = b

	case providerOpenAI:
		b, err := completion.NewOpenAIBackend(s.cfg.Get("OPENAI_API_KEY"), s.cfg.Get("OPENAI_BASE_URL"))
		if err != nil {
			return nil, err
		}
		backend = b

	default:
		return nil, fmt.Errorf("unknown COMPLETION_PROVIDER %q", provider)
	}

	retrier := completion.NewRetrier(backend, logger)
	retrier.MaxRetries = s.profile.MaxRetries
	retrier.Backoff = s.profile.Backoff
	return retrier, nil
}

// newSink writes snapshots to the output file and, when configured, mirrors
// them to S3
func newSink(ctx context.Context, s *settings) (snapshot.Sink, error) {
	file := &snapshot.FileSink{Path: s.outputPath}

	s3cfg, ok := snapshot.S3ConfigFromEnv(s.cfg, filepath.Base(s.outputPath))
	if !ok {
		return file, nil
	}

	mirror, err := snapshot.NewS3Sink(ctx, s3cfg)
	if err != nil {
		return nil, err
	}
	return snapshot.MultiSink{file, mirror}, nil
}

// newLedger opens the MySQL ledger when MYSQL_HOST is set and falls back to
// an in-memory one
func newLedger(s *settings, logger *zap.Logger) (ledger.Store, error) {
	dsn, ok := ledger.DSNFromConfig(s.cfg)
	if !ok {
		logger.Debug("No MYSQL_HOST configured, ledger kept in memory")
		return ledger.NewInMemoryStore(), nil
	}

	store, err := ledger.NewMySqlStore(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ledger: %w", err)
	}
	return store, nil
}
