package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/foldermirror/foldermirror/internal/platform"
	"github.com/foldermirror/foldermirror/pkg/config"
	"github.com/foldermirror/foldermirror/pkg/logging"
	"github.com/foldermirror/foldermirror/pkg/sync"
)

// CompareFlags holds flags shared by the compare and sync commands
type CompareFlags struct {
	Source  string
	Dest    string
	Shallow bool
	Exclude []string
	Output  string
	Report  string

	Parallel  int
	Bandwidth string

	// Sync-only
	Delete     bool
	Yes        bool
	CreateDest bool

	// Logging
	LogFile   string
	LogFormat string
	LogLevel  string
}

var compareFlags CompareFlags

// validateRoots checks the source and destination roots, optionally
// creating the destination
func validateRoots(createDest bool) error {
	for _, p := range []string{compareFlags.Source, compareFlags.Dest} {
		if err := platform.ValidatePath(p); err != nil {
			return err
		}
	}

	if _, err := os.Stat(compareFlags.Source); os.IsNotExist(err) {
		return fmt.Errorf("source path does not exist: %s", compareFlags.Source)
	}

	destInfo, err := os.Stat(compareFlags.Dest)
	if os.IsNotExist(err) {
		if !createDest {
			return fmt.Errorf("destination path does not exist: %s (use --create-dest to create it)", compareFlags.Dest)
		}
		if err := os.MkdirAll(compareFlags.Dest, 0755); err != nil {
			return fmt.Errorf("failed to create destination directory: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to access destination path: %w", err)
	} else if !destInfo.IsDir() {
		return fmt.Errorf("destination path exists but is not a directory: %s", compareFlags.Dest)
	}

	sourceAbs, err := filepath.Abs(compareFlags.Source)
	if err != nil {
		return fmt.Errorf("failed to resolve source path: %w", err)
	}
	destAbs, err := filepath.Abs(compareFlags.Dest)
	if err != nil {
		return fmt.Errorf("failed to resolve destination path: %w", err)
	}

	if sourceAbs == destAbs {
		return fmt.Errorf("source and destination cannot be the same: %s", sourceAbs)
	}
	if strings.HasPrefix(destAbs, sourceAbs+string(filepath.Separator)) {
		return fmt.Errorf("destination cannot be inside source directory")
	}
	if strings.HasPrefix(sourceAbs, destAbs+string(filepath.Separator)) {
		return fmt.Errorf("source cannot be inside destination directory")
	}

	return nil
}

// loadConfig loads configuration from file or returns the default
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.LoadFromFile(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// applyFlagsToConfig overrides config values with command-line flags
func applyFlagsToConfig(cfg *config.Config) error {
	if compareFlags.Shallow {
		cfg.Compare.Deep = false
	}
	if compareFlags.Parallel > 0 {
		cfg.Performance.MaxWorkers = compareFlags.Parallel
	}
	if len(compareFlags.Exclude) > 0 {
		cfg.Exclude = compareFlags.Exclude
	}
	if compareFlags.Output != "" {
		cfg.Output.Format = compareFlags.Output
	}
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}

	if compareFlags.Bandwidth != "" {
		limit, err := parseBandwidth(compareFlags.Bandwidth)
		if err != nil {
			return err
		}
		cfg.Performance.BandwidthLimit = limit
	}

	return cfg.Validate()
}

// engineOptions builds engine options from the effective configuration
func engineOptions(cfg *config.Config) sync.Options {
	return sync.Options{
		MaxWorkers:           cfg.Performance.MaxWorkers,
		BufferSize:           cfg.Performance.BufferSize,
		BandwidthLimit:       cfg.Performance.BandwidthLimit,
		HashProgressInterval: cfg.Compare.HashProgressInterval,
		Exclude:              cfg.Exclude,
	}
}

// parseBandwidth parses a limit like "500K", "10M" or "1G" into bytes per second
func parseBandwidth(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" {
		return 0, nil
	}

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(s, "K"):
		multiplier = 1024
		s = strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "G")
	}

	value, err := strconv.ParseInt(s, 10, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid bandwidth limit: %q", s)
	}

	return value * multiplier, nil
}

// createLogger creates a logger from the logging flags and config
func createLogger(cfg *config.Config) (logging.Logger, error) {
	logFile := compareFlags.LogFile
	if logFile == "" {
		logFile = cfg.Logging.File
	}
	if logFile == "" {
		return logging.NewNullLogger(), nil
	}

	format := logging.FormatText
	logFormat := compareFlags.LogFormat
	if logFormat == "" {
		logFormat = cfg.Logging.Format
	}
	if logFormat == "json" {
		format = logging.FormatJSON
	}

	level := compareFlags.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	if globalFlags.Verbose {
		level = "debug"
	}

	return logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       logFile,
		Format:     format,
		Level:      logging.ParseLevel(level),
		MaxSize:    10 * 1024 * 1024, // 10 MB
		MaxBackups: 5,
	})
}
