package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// ExportVersion is the current export file format version.
const ExportVersion = "1.0"

// ExportFormat represents the JSON structure of a state export.
type ExportFormat struct {
	Version    string            `json:"version"`
	ExportedAt string            `json:"exported_at"`
	Units      []UnitState       `json:"units"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ListableStore is a state store that can enumerate its states.
type ListableStore interface {
	StateStore
	States() []UnitState
}

// Exporter writes the states of a store as JSON.
type Exporter struct {
	store ListableStore
}

// NewExporter creates a new state exporter.
func NewExporter(store ListableStore) *Exporter {
	return &Exporter{store: store}
}

// Export writes all states to w.
func (e *Exporter) Export(w io.Writer, metadata map[string]string) error {
	export := ExportFormat{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Units:      e.store.States(),
		Metadata:   metadata,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// ExportToFile exports the states to a file.
// The path is provided by the caller and is intentionally user-controlled.
func (e *Exporter) ExportToFile(path string, metadata map[string]string) error {
	f, err := os.Create(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if err := e.Export(f, metadata); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Importer loads exported states into a store.
type Importer struct {
	store StateStore
}

// NewImporter creates a new state importer.
func NewImporter(store StateStore) *Importer {
	return &Importer{store: store}
}

// ImportResult contains statistics about the import operation.
type ImportResult struct {
	Version  string
	Metadata map[string]string
	Imported int
	Failed   int
}

// Import reads states from r. States without a unit name are counted as failed.
func (i *Importer) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	var export ExportFormat
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}

	result := &ImportResult{
		Version:  export.Version,
		Metadata: export.Metadata,
	}
	for _, st := range export.Units {
		if st.Unit == "" {
			result.Failed++
			continue
		}
		if err := i.store.Set(ctx, st.Unit, &st); err != nil {
			result.Failed++
			continue
		}
		result.Imported++
	}
	return result, nil
}

// ImportFromFile imports states from a file.
// The path is provided by the caller and is intentionally user-controlled.
func (i *Importer) ImportFromFile(ctx context.Context, path string) (*ImportResult, error) {
	f, err := os.Open(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return i.Import(ctx, f)
}
