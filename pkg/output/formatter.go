package output

import (
	"fmt"
	"io"
	"time"

	"github.com/foldermirror/foldermirror/pkg/models"
)

// Formatter renders comparison results and sync reports.
// Implementations include human-readable and JSON formatters.
type Formatter interface {
	// RenderResult writes the three-way comparison result
	RenderResult(w io.Writer, sourceRoot, destRoot string, result *models.CompareResult) error

	// RenderReport writes the sync report
	RenderReport(w io.Writer, report *models.SyncReport) error

	// Name returns the formatter name
	Name() string
}

// New returns a formatter by name, defaulting to human
func New(name string) Formatter {
	if name == "json" {
		return NewJSONFormatter()
	}
	return NewHumanFormatter()
}

// formatBytes formats bytes in human-readable form
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// formatDuration formats a duration in human-readable form
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
