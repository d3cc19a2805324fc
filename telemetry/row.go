package telemetry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field is one named value of a Row.
type Field struct {
	Key   string
	Value any
}

// Row is one flat telemetry record. Keys keep their insertion order, which
// is the column order a CSV sink appends with.
type Row struct {
	fields []Field
	index  map[string]int
}

// NewRow returns a row holding fields in order. Later duplicates replace
// earlier values in place.
func NewRow(fields ...Field) *Row {
	row := &Row{index: make(map[string]int, len(fields))}
	for _, field := range fields {
		row.Set(field.Key, field.Value)
	}
	return row
}

// Set replaces the value of key, or appends key when it is new.
func (r *Row) Set(key string, value any) *Row {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if position, ok := r.index[key]; ok {
		r.fields[position].Value = value
		return r
	}
	r.index[key] = len(r.fields)
	r.fields = append(r.fields, Field{Key: key, Value: value})
	return r
}

// Fields returns the keys in insertion order.
func (r *Row) Fields() []string {
	keys := make([]string, len(r.fields))
	for i, field := range r.fields {
		keys[i] = field.Key
	}
	return keys
}

// Get returns the raw value of key.
func (r *Row) Get(key string) (any, bool) {
	position, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.fields[position].Value, true
}

// Value renders key the way it is written to a CSV cell. Missing keys and
// nil values render as "".
func (r *Row) Value(key string) string {
	value, ok := r.Get(key)
	if !ok {
		return ""
	}
	return FormatValue(value)
}

// String returns the string value of key, or "".
func (r *Row) String(key string) string {
	value, _ := r.Get(key)
	text, _ := value.(string)
	return text
}

// Float returns the numeric value of key and whether it is numeric.
func (r *Row) Float(key string) (float64, bool) {
	value, _ := r.Get(key)
	switch number := value.(type) {
	case float64:
		return number, true
	case float32:
		return float64(number), true
	case int:
		return float64(number), true
	case int64:
		return float64(number), true
	default:
		return 0, false
	}
}

// Len is the number of fields.
func (r *Row) Len() int {
	return len(r.fields)
}

// MarshalJSON writes the row as an object in field order.
func (r *Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(jsonSafe(field.Value))
		if err != nil {
			return nil, fmt.Errorf("telemetry: field %q: %w", field.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func jsonSafe(value any) any {
	if number, ok := value.(float64); ok && (math.IsNaN(number) || math.IsInf(number, 0)) {
		return nil
	}
	return value
}

// FormatValue renders a cell value. Floats always carry a decimal point so
// that 1.0 stays distinguishable from the integer 1.
func FormatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return formatFloat(typed)
	case float32:
		return formatFloat(float64(typed))
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}

func formatFloat(value float64) string {
	text := strconv.FormatFloat(value, 'f', -1, 64)
	if math.IsNaN(value) || math.IsInf(value, 0) || strings.Contains(text, ".") {
		return text
	}
	return text + ".0"
}
