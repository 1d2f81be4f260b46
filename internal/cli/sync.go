package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/foldermirror/foldermirror/pkg/logging"
	"github.com/foldermirror/foldermirror/pkg/output"
	"github.com/foldermirror/foldermirror/pkg/status"
	"github.com/foldermirror/foldermirror/pkg/sync"
)

// NewSyncCommand creates the sync command
func NewSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Make the destination folder match the source folder",
		Long: `Compare source and destination, then copy missing and differing files
from source to destination. The source tree is never modified. With
--delete, files present only in the destination are removed after
confirmation.`,
		RunE: runSync,
	}

	addCompareFlags(cmd)

	cmd.Flags().BoolVar(&compareFlags.Delete, "delete", false, "delete destination files that do not exist in source")
	cmd.Flags().BoolVarP(&compareFlags.Yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().BoolVar(&compareFlags.CreateDest, "create-dest", false, "create the destination directory if it does not exist")

	return cmd
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := validateRoots(compareFlags.CreateDest); err != nil {
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

	runID := uuid.New().String()
	logger = logger.WithFields(logging.Fields{"run_id": runID})

	ch := status.NewChannel()
	showProgress := cfg.Output.Progress && cfg.Output.Format != "json"
	consumer := newStatusConsumer(ch, !showProgress)

	engine := sync.NewEngine(ch, logger, engineOptions(cfg))
	result, err := engine.Compare(ctx, compareFlags.Source, compareFlags.Dest, cfg.Compare.Deep)
	if err != nil {
		consumer.Stop()
		return fmt.Errorf("comparison failed: %w", err)
	}

	if result.InSync() {
		consumer.Stop()
		if !cfg.Output.Quiet {
			fmt.Println("Already in sync, nothing to do.")
		}
		return nil
	}

	// Deleting is destructive and irreversible, so it needs an explicit
	// go-ahead unless --yes was given.
	if compareFlags.Delete && len(result.MissingInSource) > 0 && !compareFlags.Yes {
		consumer.Stop()
		if !confirmDelete(len(result.MissingInSource)) {
			fmt.Println("Aborted.")
			os.Exit(3)
		}
		consumer = newStatusConsumer(ch, !showProgress)
	}

	report, err := engine.Sync(ctx, compareFlags.Dest, result, compareFlags.Delete)
	consumer.Stop()
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	report.RunID = runID

	formatter := output.New(cfg.Output.Format)
	if err := formatter.RenderReport(os.Stdout, report); err != nil {
		return err
	}

	if compareFlags.Report != "" {
		f, err := os.Create(compareFlags.Report)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		renderErr := formatter.RenderReport(f, report)
		if closeErr := f.Close(); renderErr == nil {
			renderErr = closeErr
		}
		if renderErr != nil {
			return fmt.Errorf("failed to write report: %w", renderErr)
		}
	}

	if code := report.Status.ExitCode(); code != 0 {
		os.Exit(code)
	}
	return nil
}

// confirmDelete asks the user to confirm the pending deletions
func confirmDelete(count int) bool {
	fmt.Printf("This will delete %d file(s) from %s that do not exist in the source.\n", count, compareFlags.Dest)
	fmt.Print("Continue? [y/N]: ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
