package sink

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// AddressList persists the deduplicated discovery snapshot as a single-column
// CSV with a header row. Each rewrite replaces the whole file, because the
// list must remain duplicate-free after every listing page.
type AddressList struct {
	path   string
	header string
}

// NewAddressList returns a list stored at path. header names the column,
// e.g. "player_url".
func NewAddressList(path, header string) *AddressList {
	return &AddressList{path: path, header: header}
}

// Rewrite replaces the file with the given snapshot. The write goes through
// a temp file and rename so an interrupted rewrite never corrupts the list.
func (l *AddressList) Rewrite(addresses []string) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		return fmt.Errorf("create output dir for %s: %w", l.path, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{l.header}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, a := range addresses {
		if err := w.Write([]string{a}); err != nil {
			return fmt.Errorf("write address: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush address list: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace %s: %w", l.path, err)
	}
	return nil
}

// Load reads the address list back, skipping the header row. A missing file
// is a configuration error for detail-only runs and is reported as such.
func (l *AddressList) Load() ([]string, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open address list %s: %w", l.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read address list %s: %w", l.path, err)
	}
	addresses := make([]string, 0, len(rows))
	for i, row := range rows {
		if i == 0 || len(row) == 0 || row[0] == "" {
			continue
		}
		addresses = append(addresses, row[0])
	}
	return addresses, nil
}
