package parse

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxLineBytes bounds a single JSONL record; dev-set documents can be long.
const maxLineBytes = 8 << 20

// LineError reports a JSONL record that could not be decoded.
type LineError struct {
	Line int
	Err  error
}

func (lineError *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", lineError.Line, lineError.Err)
}

func (lineError *LineError) Unwrap() error {
	return lineError.Err
}

// ReadJSONL decodes every non-blank line of reader with [JSONAs]. Lines that
// fail are skipped and reported together as joined *LineError values, so a
// caller can keep the good records and still surface the bad ones.
func ReadJSONL[T any](reader io.Reader) ([]T, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		records []T
		errs    []error
		line    int
	)
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		record, err := JSONAs[T](text)
		if err != nil {
			errs = append(errs, &LineError{Line: line, Err: err})
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, fmt.Errorf("read jsonl: %w", err))
	}

	return records, errors.Join(errs...)
}
