package telemetry

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// CSV appends rows to a CSV file. When a row brings columns the file's
// header lacks, the old file is moved to <base>.bak and a new file with the
// merged header is started.
type CSV struct {
	path string
	mu   sync.Mutex
}

// NewCSV returns a sink writing to path. The file is created on first write.
func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

// Path is the target file.
func (c *CSV) Path() string { return c.path }

// BackupPath is where a file with an outdated header is rotated to.
func (c *CSV) BackupPath() string {
	return strings.TrimSuffix(c.path, filepath.Ext(c.path)) + ".bak"
}

func (c *CSV) Write(ctx context.Context, row *Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	fields := mergeFields(DefaultFields, row.Fields())

	header, exists, err := c.readHeader()
	if err != nil {
		return err
	}
	writeHeader := !exists
	if exists {
		if len(header) > 0 {
			fields = mergeFields(header, fields)
		}
		if !slices.Equal(header, fields) {
			if err := os.Rename(c.path, c.BackupPath()); err != nil {
				return fmt.Errorf("telemetry: rotating %s: %w", c.path, err)
			}
			writeHeader = true
		}
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("telemetry: creating %s: %w", dir, err)
		}
	}
	file, err := os.OpenFile(c.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("telemetry: opening %s: %w", c.path, err)
	}

	record := make([]string, len(fields))
	for i, field := range fields {
		record[i] = row.Value(field)
	}
	records := [][]string{record}
	if writeHeader {
		records = [][]string{fields, record}
	}

	return errors.Join(writeRecords(file, records), file.Close())
}

// writeRecords writes records in order and stops at the first failure, so a
// row is never appended under a header that was not written.
func writeRecords(w io.Writer, records [][]string) error {
	writer := csv.NewWriter(w)
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("telemetry: writing csv record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("telemetry: flushing csv: %w", err)
	}
	return nil
}

func (c *CSV) Close() error { return nil }

// readHeader returns the first record of the file and whether the file
// exists. An unreadable header is treated as empty so the file is rotated.
func (c *CSV) readHeader() ([]string, bool, error) {
	file, err := os.Open(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("telemetry: reading %s: %w", c.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, true, nil
	}
	return header, true, nil
}

// mergeFields appends the entries of extra missing from base, keeping the
// order of both.
func mergeFields(base, extra []string) []string {
	merged := append([]string(nil), base...)
	for _, field := range extra {
		if !slices.Contains(merged, field) {
			merged = append(merged, field)
		}
	}
	return merged
}
