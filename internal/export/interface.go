package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iksnae/persona-chat/internal"
)

// Exporter writes a transcript in one format
type Exporter interface {
	Export(transcript *internal.Transcript, w io.Writer) error
	Extension() string
}

// Formats lists the accepted format names
var Formats = []string{"jsonl", "md", "yaml", "json"}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, &internal.ExportError{Format: format, Err: fmt.Errorf("unsupported format (supported: jsonl, md, yaml, json)")}
	}
}

// WriteFile exports the transcript to dir/<id>.<ext> and returns the path
func WriteFile(exporter Exporter, transcript *internal.Transcript, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &internal.ExportError{Format: exporter.Extension(), Path: dir, Err: err}
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.%s", transcript.ID, exporter.Extension()))

	f, err := os.Create(path)
	if err != nil {
		return "", &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	if err := exporter.Export(transcript, f); err != nil {
		_ = f.Close()
		return "", &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	return path, nil
}
