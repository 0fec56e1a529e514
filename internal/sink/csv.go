// Package sink persists harvest output as CSV streams: a schema-locked
// record stream appended one row per extracted record, and a single-column
// address list rewritten in full after every listing page.
package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/jobsalhi/sofifa-harvester/internal/scrape"
)

// RecordSink appends records to a CSV file. The column schema is locked by
// the first record ever written to the stream: later records are projected
// onto it, with missing keys written empty and unknown keys dropped. That
// trades completeness of rare columns for a file that stays parseable across
// interruptions and restarts.
type RecordSink struct {
	mu       sync.Mutex
	file     *os.File
	writer   *csv.Writer
	columns  []string
	priority []string
}

// NewRecordSink opens (or creates) the stream at path. When the file already
// holds data, its header row becomes the schema and new rows are appended
// without re-emitting a header, so restarts are safe.
func NewRecordSink(path string, priority []string) (*RecordSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create output dir for %s: %w", path, err)
	}
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open record sink %s: %w", path, err)
	}

	s := &RecordSink{file: file, priority: priority}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat record sink %s: %w", path, err)
	}
	if info.Size() > 0 {
		header, err := readHeader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("read existing schema from %s: %w", path, err)
		}
		s.columns = header
	}
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek record sink %s: %w", path, err)
	}
	s.writer = csv.NewWriter(file)
	return s, nil
}

// Write appends one record, deriving and emitting the schema on the first
// call against an empty stream. The row is flushed before returning so a
// crash after N successful writes leaves exactly N complete rows on disk.
func (s *RecordSink) Write(record scrape.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.columns == nil {
		s.columns = deriveColumns(record, s.priority)
		if err := s.writer.Write(s.columns); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	row := make([]string, len(s.columns))
	for i, col := range s.columns {
		row[i] = record[col]
	}
	if err := s.writer.Write(row); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("flush row: %w", err)
	}
	return nil
}

// Columns returns the locked schema, nil before the first write to a fresh
// stream.
func (s *RecordSink) Columns() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.columns == nil {
		return nil
	}
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// Close flushes and closes the underlying file.
func (s *RecordSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return fmt.Errorf("flush sink: %w", err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close sink: %w", err)
	}
	return nil
}

// deriveColumns orders the schema deterministically: known fields in the
// caller's priority order first, then any remaining keys lexicographically.
func deriveColumns(record scrape.Record, priority []string) []string {
	columns := make([]string, 0, len(record))
	inPriority := make(map[string]struct{}, len(priority))
	for _, col := range priority {
		inPriority[col] = struct{}{}
		if _, ok := record[col]; ok {
			columns = append(columns, col)
		}
	}
	rest := make([]string, 0, len(record))
	for key := range record {
		if _, ok := inPriority[key]; !ok {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(columns, rest...)
}

func readHeader(file *os.File) ([]string, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	return header, nil
}
