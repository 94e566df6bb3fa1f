package lessonview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of a lesson document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension. Unknown extensions
// are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads and parses the lesson document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lesson document: %w", err)
	}

	doc, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, NewDocumentError(path, "", "could not be parsed").
			WithCause(err).
			WithHint("Lessons live under a top-level \"lessons\" list; see examples/lessons.json")
	}
	return doc, nil
}

// Parse decodes a lesson document.
func Parse(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
	return &doc, nil
}

// plainExercise has Exercise's fields without its decoding methods.
type plainExercise Exercise

// legacyExercise also accepts the flat form where the table and default mode
// sit directly on the exercise.
type legacyExercise struct {
	plainExercise `yaml:",inline"`
	Table         [][]string    `json:"table,omitempty" yaml:"table,omitempty"`
	DefaultMode   *ExerciseMode `json:"default_mode,omitempty" yaml:"default_mode,omitempty"`
}

func (l *legacyExercise) fold() Exercise {
	e := Exercise(l.plainExercise)
	if e.TableLayout == nil && l.Table != nil {
		e.TableLayout = &TableLayout{Table: l.Table}
	}
	if e.TableLayout != nil && e.TableLayout.DefaultMode == nil {
		e.TableLayout.DefaultMode = l.DefaultMode
	}
	return e
}

func (e *Exercise) UnmarshalJSON(data []byte) error {
	var l legacyExercise
	if err := json.Unmarshal(data, &l); err != nil {
		return err
	}
	*e = l.fold()
	return nil
}

func (e *Exercise) UnmarshalYAML(node *yaml.Node) error {
	var l legacyExercise
	if err := node.Decode(&l); err != nil {
		return err
	}
	*e = l.fold()
	return nil
}
