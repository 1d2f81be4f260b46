package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/foldermirror/foldermirror/pkg/models"
)

// HumanFormatter renders results in human-readable form
type HumanFormatter struct{}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// RenderResult writes the three categorized difference lists
func (f *HumanFormatter) RenderResult(w io.Writer, sourceRoot, destRoot string, result *models.CompareResult) error {
	fmt.Fprintf(w, "Comparison Report\n")
	fmt.Fprintf(w, "=================\n\n")
	fmt.Fprintf(w, "Generated:   %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "Source:      %s\n", sourceRoot)
	fmt.Fprintf(w, "Destination: %s\n\n", destRoot)

	if result.InSync() {
		fmt.Fprintf(w, "Trees are in sync.\n")
	} else {
		fmt.Fprintf(w, "Total differences: %d\n\n", result.TotalDifferences())
	}

	writeEntrySection(w, fmt.Sprintf("Missing in destination (%d files)", len(result.MissingInDest)), result.MissingInDest)
	writeEntrySection(w, fmt.Sprintf("Missing in source (%d files)", len(result.MissingInSource)), result.MissingInSource)

	if len(result.DifferentContent) > 0 {
		pairs := make([]models.EntryPair, len(result.DifferentContent))
		copy(pairs, result.DifferentContent)
		sort.Slice(pairs, func(i, j int) bool {
			return pairs[i].Source.RelativeKey < pairs[j].Source.RelativeKey
		})

		label := fmt.Sprintf("Different content (%d files)", len(pairs))
		fmt.Fprintf(w, "%s\n%s\n", label, strings.Repeat("-", len(label)))
		for _, pair := range pairs {
			fmt.Fprintf(w, "  %s\n", pair.Source.RelativeKey)
			fmt.Fprintf(w, "    Source: %s", formatBytes(pair.Source.Size))
			if pair.Source.ContentHash != "" {
				fmt.Fprintf(w, ", hash: %s", pair.Source.ContentHash[:12])
			}
			fmt.Fprintf(w, "\n    Dest:   %s", formatBytes(pair.Dest.Size))
			if pair.Dest.ContentHash != "" {
				fmt.Fprintf(w, ", hash: %s", pair.Dest.ContentHash[:12])
			}
			fmt.Fprintf(w, "\n")
		}
		fmt.Fprintf(w, "\n")
	}

	if len(result.Collisions) > 0 {
		label := fmt.Sprintf("Case collisions (%d)", len(result.Collisions))
		fmt.Fprintf(w, "%s\n%s\n", label, strings.Repeat("-", len(label)))
		for _, col := range result.Collisions {
			fmt.Fprintf(w, "  [%s] %s\n", col.Side, strings.Join(col.Keys, " <-> "))
		}
		fmt.Fprintf(w, "\n")
	}

	if len(result.Issues) > 0 {
		label := fmt.Sprintf("Unchecked items (%d)", len(result.Issues))
		fmt.Fprintf(w, "%s\n%s\n", label, strings.Repeat("-", len(label)))
		for _, issue := range result.Issues {
			fmt.Fprintf(w, "  [%s] %s: %s\n", issue.Kind, issue.Path, issue.Err)
		}
		fmt.Fprintf(w, "\n")
	}

	return nil
}

func writeEntrySection(w io.Writer, label string, entries []*models.FileEntry) {
	if len(entries) == 0 {
		return
	}

	sorted := make([]*models.FileEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].RelativeKey < sorted[j].RelativeKey
	})

	fmt.Fprintf(w, "%s\n%s\n", label, strings.Repeat("-", len(label)))
	for _, entry := range sorted {
		fmt.Fprintf(w, "  %s (%s)\n", entry.RelativeKey, formatBytes(entry.Size))
	}
	fmt.Fprintf(w, "\n")
}

// RenderReport writes a sync summary
func (f *HumanFormatter) RenderReport(w io.Writer, report *models.SyncReport) error {
	fmt.Fprintf(w, "\nSync completed in %s\n\n", formatDuration(report.Duration))
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Files copied:   %d\n", report.Stats.FilesCopied)
	fmt.Fprintf(w, "  Files deleted:  %d\n", report.Stats.FilesDeleted)
	fmt.Fprintf(w, "  Tasks errored:  %d\n", report.Stats.TasksErrored)
	fmt.Fprintf(w, "  Data:           %s\n", formatBytes(report.Stats.BytesTransferred))
	fmt.Fprintf(w, "\nStatus: %s\n", report.Status)

	if len(report.Issues) > 0 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, issue := range report.Issues {
			fmt.Fprintf(w, "  [%s] %s: %s\n", issue.Kind, issue.Path, issue.Err)
		}
	}

	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}
