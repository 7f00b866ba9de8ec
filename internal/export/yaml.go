package export

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/iksnae/persona-chat/internal"
)

// YAMLExporter writes a transcript as YAML. Multi-line replies are emitted as block scalars.
type YAMLExporter struct{}

func (e *YAMLExporter) Export(transcript *internal.Transcript, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(transcript)); err != nil {
		return err
	}
	return enc.Close()
}

func (e *YAMLExporter) Extension() string { return "yaml" }
