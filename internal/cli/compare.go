package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/foldermirror/foldermirror/pkg/logging"
	"github.com/foldermirror/foldermirror/pkg/output"
	"github.com/foldermirror/foldermirror/pkg/status"
	"github.com/foldermirror/foldermirror/pkg/sync"
)

// NewCompareCommand creates the compare command
func NewCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two folders without modifying anything",
		Long: `Compare source and destination folders and report which files are
missing in either tree and which share a path but differ in content.
No file is ever modified.`,
		RunE: runCompare,
	}

	addCompareFlags(cmd)

	return cmd
}

// addCompareFlags registers the flags shared by compare and sync
func addCompareFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&compareFlags.Source, "source", "s", "", "source directory path (required)")
	cmd.Flags().StringVarP(&compareFlags.Dest, "dest", "d", "", "destination directory path (required)")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("dest")

	cmd.Flags().BoolVar(&compareFlags.Shallow, "shallow", false, "compare by size and modification time only (no content hashing)")
	cmd.Flags().StringSliceVar(&compareFlags.Exclude, "exclude", []string{}, "glob patterns to exclude")
	cmd.Flags().StringVarP(&compareFlags.Output, "output", "o", "", "output format: human, json")
	cmd.Flags().StringVar(&compareFlags.Report, "report", "", "write the comparison report to a file")
	cmd.Flags().IntVarP(&compareFlags.Parallel, "parallel", "p", 0, "number of parallel workers (default: number of CPUs)")
	cmd.Flags().StringVarP(&compareFlags.Bandwidth, "bandwidth", "b", "", "read bandwidth limit (e.g. \"10M\", \"1G\")")

	cmd.Flags().StringVar(&compareFlags.LogFile, "log-file", "", "write logs to file (enables logging)")
	cmd.Flags().StringVar(&compareFlags.LogFormat, "log-format", "", "log format: text, json")
	cmd.Flags().StringVar(&compareFlags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := validateRoots(false); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyFlagsToConfig(cfg); err != nil {
		return err
	}

	logger, err := createLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()
	logger = logger.WithFields(logging.Fields{"run_id": uuid.New().String()})

	ch := status.NewChannel()
	showProgress := cfg.Output.Progress && cfg.Output.Format != "json"
	consumer := newStatusConsumer(ch, !showProgress)

	engine := sync.NewEngine(ch, logger, engineOptions(cfg))
	result, err := engine.Compare(ctx, compareFlags.Source, compareFlags.Dest, cfg.Compare.Deep)
	consumer.Stop()
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	formatter := output.New(cfg.Output.Format)
	if err := formatter.RenderResult(os.Stdout, compareFlags.Source, compareFlags.Dest, result); err != nil {
		return err
	}

	if compareFlags.Report != "" {
		f, err := os.Create(compareFlags.Report)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		renderErr := formatter.RenderResult(f, compareFlags.Source, compareFlags.Dest, result)
		if closeErr := f.Close(); renderErr == nil {
			renderErr = closeErr
		}
		if renderErr != nil {
			return fmt.Errorf("failed to write report: %w", renderErr)
		}
	}

	if !result.InSync() {
		os.Exit(1)
	}
	return nil
}
