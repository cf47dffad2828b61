// Package corpusfile reads the raw report corpus and writes the enriched
// corpus as JSON documents on disk.
package corpusfile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lentoturva/report-etl/internal/domain"
)

// Reader loads the whole input corpus once. A missing or unparsable file is
// the run's only fatal condition.
type Reader struct {
	path string
}

// NewReader creates a reader for the given corpus file.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// ReadAll parses the corpus into raw records, preserving input order.
func (r *Reader) ReadAll() ([]domain.RawRecord, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", r.path, err)
	}

	var records []domain.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", r.path, err)
	}
	return records, nil
}

// Writer persists the enriched corpus, replacing any previous output.
type Writer struct {
	path string
}

// NewWriter creates a writer for the given output path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// WriteAll serializes the enriched records in order. An empty run writes an
// empty JSON array, never "null".
func (w *Writer) WriteAll(records []domain.EnrichedRecord) error {
	if records == nil {
		records = []domain.EnrichedRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if err := os.WriteFile(w.path, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", w.path, err)
	}
	return nil
}
