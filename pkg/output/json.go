package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/foldermirror/foldermirror/pkg/models"
)

// JSONFormatter renders results as JSON for automation and scripting
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// jsonEntry is the serialized form of a file entry
type jsonEntry struct {
	Key     string    `json:"key"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Hash    string    `json:"hash,omitempty"`
}

// jsonPair is the serialized form of a differing pair
type jsonPair struct {
	Key    string    `json:"key"`
	Source jsonEntry `json:"source"`
	Dest   jsonEntry `json:"dest"`
}

type jsonCollision struct {
	Side   string   `json:"side"`
	Folded string   `json:"folded"`
	Keys   []string `json:"keys"`
}

type jsonIssue struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

type jsonResult struct {
	Generated        time.Time       `json:"generated"`
	SourceRoot       string          `json:"source_root"`
	DestRoot         string          `json:"dest_root"`
	InSync           bool            `json:"in_sync"`
	MissingInDest    []jsonEntry     `json:"missing_in_dest"`
	MissingInSource  []jsonEntry     `json:"missing_in_source"`
	DifferentContent []jsonPair      `json:"different_content"`
	Collisions       []jsonCollision `json:"collisions,omitempty"`
	Issues           []jsonIssue     `json:"issues,omitempty"`
}

// RenderResult writes the comparison result as indented JSON
func (f *JSONFormatter) RenderResult(w io.Writer, sourceRoot, destRoot string, result *models.CompareResult) error {
	out := jsonResult{
		Generated:        time.Now(),
		SourceRoot:       sourceRoot,
		DestRoot:         destRoot,
		InSync:           result.InSync(),
		MissingInDest:    toJSONEntries(result.MissingInDest),
		MissingInSource:  toJSONEntries(result.MissingInSource),
		DifferentContent: make([]jsonPair, 0, len(result.DifferentContent)),
	}

	for _, pair := range result.DifferentContent {
		out.DifferentContent = append(out.DifferentContent, jsonPair{
			Key:    pair.Source.RelativeKey,
			Source: toJSONEntry(pair.Source),
			Dest:   toJSONEntry(pair.Dest),
		})
	}
	for _, col := range result.Collisions {
		out.Collisions = append(out.Collisions, jsonCollision{
			Side:   string(col.Side),
			Folded: col.Folded,
			Keys:   col.Keys,
		})
	}
	for _, issue := range result.Issues {
		out.Issues = append(out.Issues, jsonIssue{
			Path:  issue.Path,
			Kind:  string(issue.Kind),
			Error: issue.Err,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

type jsonReport struct {
	RunID       string      `json:"run_id,omitempty"`
	DestRoot    string      `json:"dest_root"`
	DeleteExtra bool        `json:"delete_extra"`
	Status      string      `json:"status"`
	DurationMs  int64       `json:"duration_ms"`
	Copied      int         `json:"files_copied"`
	Deleted     int         `json:"files_deleted"`
	Errored     int         `json:"tasks_errored"`
	Bytes       int64       `json:"bytes_transferred"`
	Issues      []jsonIssue `json:"issues,omitempty"`
}

// RenderReport writes the sync report as indented JSON
func (f *JSONFormatter) RenderReport(w io.Writer, report *models.SyncReport) error {
	out := jsonReport{
		RunID:       report.RunID,
		DestRoot:    report.DestPath,
		DeleteExtra: report.DeleteExtra,
		Status:      string(report.Status),
		DurationMs:  report.Duration.Milliseconds(),
		Copied:      report.Stats.FilesCopied,
		Deleted:     report.Stats.FilesDeleted,
		Errored:     report.Stats.TasksErrored,
		Bytes:       report.Stats.BytesTransferred,
	}
	for _, issue := range report.Issues {
		out.Issues = append(out.Issues, jsonIssue{
			Path:  issue.Path,
			Kind:  string(issue.Kind),
			Error: issue.Err,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}

func toJSONEntries(entries []*models.FileEntry) []jsonEntry {
	out := make([]jsonEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, toJSONEntry(e))
	}
	return out
}

func toJSONEntry(e *models.FileEntry) jsonEntry {
	return jsonEntry{
		Key:     e.RelativeKey,
		Path:    e.AbsolutePath,
		Size:    e.Size,
		ModTime: e.ModTime,
		Hash:    e.ContentHash,
	}
}
