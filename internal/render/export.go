package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wolfeidau/orgviz/internal/org"
)

// Format selects the encoding used by Export.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document is the exported form of an organization graph.
type Document struct {
	RootID   string       `json:"root_id" yaml:"root_id"`
	Vertices []org.Vertex `json:"vertices" yaml:"vertices"`
	Edges    []org.Edge   `json:"edges" yaml:"edges"`
}

// FormatFromPath picks the export format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export extension %q, use .json, .yaml or .yml", filepath.Ext(path))
	}
}

// Export writes the vertices and edges of g in the given format.
func Export(w io.Writer, g *org.AggregatedGraph, format Format) error {
	doc := Document{
		RootID:   g.RootID(),
		Vertices: g.Vertices(),
		Edges:    g.Edges(),
	}
	if doc.Edges == nil {
		doc.Edges = []org.Edge{}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to close yaml encoder: %w", err)
		}
	default:
		return fmt.Errorf("unknown export format %q", format)
	}

	return nil
}

// WriteFile creates the parent directories of path and writes the output of
// write to it.
func WriteFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	return nil
}
