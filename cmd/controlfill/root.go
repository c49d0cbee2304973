package main

import (
	"fmt"

	"github.com/ethanbaker/controlfill/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "dev"

// options are the command line flags shared by every subcommand
type options struct {
	envFile    string
	csvPath    string
	outputPath string
	dryRun     bool
	limit      int
	verbose    bool

	logger *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "controlfill",
		Short: "Fill NIST control implementation statements with generated text",
		Long: `controlfill walks a CSV of NIST SP 800-53 controls and asks a text
generation service to draft an implementation statement for every control
whose result column is empty.

The whole table is written back to the output file after each row, so an
interrupted run resumes where it stopped.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(opts.verbose)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFill(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", utils.GetEnvWithDefault("ENV_FILE", ".env"), "Path to a .env file")
	flags.StringVar(&opts.csvPath, "csv", "", "Input control CSV (overrides CSV_PATH)")
	flags.StringVar(&opts.outputPath, "output", "", "Checkpoint file (overrides OUTPUT_PATH)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	addRunFlags(cmd, opts)

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newPromptCommand(opts))

	return cmd
}

// addRunFlags registers the flags that only apply to a fill run
func addRunFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Build prompts without calling the service or writing files")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Stop after this many completions (0 for no limit)")
}

// newLogger builds a production zap logger, at debug level when verbose
func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func execute() error {
	return newRootCommand().Execute()
}
