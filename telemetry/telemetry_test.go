package telemetry

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func readCSV(testCase *testing.T, path string) [][]string {
	testCase.Helper()
	file, err := os.Open(path)
	if err != nil {
		testCase.Fatalf("open %s: %v", path, err)
	}
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		testCase.Fatalf("read %s: %v", path, err)
	}
	return records
}

func TestRow_SetKeepsOrder(testCase *testing.T) {
	row := NewRow(Field{"engine", "langgraph"}, Field{"latency_s", 1.25})
	row.Set("critic_loops", 1).Set("engine", "langchain")

	if diff := cmp.Diff([]string{"engine", "latency_s", "critic_loops"}, row.Fields()); diff != "" {
		testCase.Errorf("fields (-want +got):\n%s", diff)
	}
	if got := row.Value("engine"); got != "langchain" {
		testCase.Errorf("engine = %q", got)
	}
	if got := row.Value("missing"); got != "" {
		testCase.Errorf("missing = %q", got)
	}
}

func TestFormatValue(testCase *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{nil, ""},
		{"x", "x"},
		{12, "12"},
		{1.0, "1.0"},
		{0.571, "0.571"},
		{float32(0.5), "0.5"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.value); got != tt.want {
			testCase.Errorf("FormatValue(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestRow_MarshalJSON(testCase *testing.T) {
	row := NewRow(Field{"b", 1}, Field{"a", "x"}, Field{"c", 0.5})
	data, err := row.MarshalJSON()
	if err != nil {
		testCase.Fatal(err)
	}
	if got := string(data); got != `{"b":1,"a":"x","c":0.5}` {
		testCase.Errorf("json = %s", got)
	}
}

func TestCSV_NewFileHasDefaultsThenExtras(testCase *testing.T) {
	path := filepath.Join(testCase.TempDir(), "telemetry.csv")
	sink := NewCSV(path)

	row := NewRow(Field{"engine", "langgraph"}, Field{"latency_s", 2.5}, Field{"judge_score", 4.0})
	if err := sink.Write(context.Background(), row); err != nil {
		testCase.Fatalf("Write: %v", err)
	}

	want := [][]string{
		{"engine", "input_chars", "summary_len", "meta_len", "latency_s", "reader_s", "summarizer_s", "critic_s", "integrator_s", "judge_score"},
		{"langgraph", "", "", "", "2.5", "", "", "", "", "4.0"},
	}
	if diff := cmp.Diff(want, readCSV(testCase, path)); diff != "" {
		testCase.Errorf("csv (-want +got):\n%s", diff)
	}
}

func TestCSV_SameHeaderAppends(testCase *testing.T) {
	path := filepath.Join(testCase.TempDir(), "telemetry.csv")
	sink := NewCSV(path)

	for _, engine := range []string{"langchain", "langgraph"} {
		if err := sink.Write(context.Background(), NewRow(Field{"engine", engine})); err != nil {
			testCase.Fatalf("Write: %v", err)
		}
	}

	records := readCSV(testCase, path)
	if len(records) != 3 {
		testCase.Fatalf("records = %d, want header + 2 rows", len(records))
	}
	if _, err := os.Stat(sink.BackupPath()); !errors.Is(err, os.ErrNotExist) {
		testCase.Errorf("no rotation expected, stat err = %v", err)
	}
}

func TestCSV_NewColumnRotatesAndMergesHeader(testCase *testing.T) {
	path := filepath.Join(testCase.TempDir(), "runs.csv")
	sink := NewCSV(path)

	if err := sink.Write(context.Background(), NewRow(Field{"engine", "langchain"})); err != nil {
		testCase.Fatal(err)
	}
	if err := sink.Write(context.Background(), NewRow(Field{"engine", "langgraph"}, Field{"run_id", "abc"})); err != nil {
		testCase.Fatal(err)
	}

	backup := readCSV(testCase, filepath.Join(filepath.Dir(path), "runs.bak"))
	if len(backup) != 2 || backup[1][0] != "langchain" {
		testCase.Errorf("backup = %v", backup)
	}

	current := readCSV(testCase, path)
	if len(current) != 2 {
		testCase.Fatalf("current = %v", current)
	}
	header := current[0]
	if header[len(header)-1] != "run_id" || header[0] != "engine" {
		testCase.Errorf("header = %v", header)
	}
	if current[1][len(header)-1] != "abc" {
		testCase.Errorf("row = %v", current[1])
	}
}

func TestCSV_PreservesExistingHeaderOrder(testCase *testing.T) {
	path := filepath.Join(testCase.TempDir(), "telemetry.csv")
	legacy := "latency_s,engine,input_chars,summary_len,meta_len,reader_s,summarizer_s,critic_s,integrator_s\n1.0,langchain,5,1,1,0.1,0.1,0.1,0.1\n"
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		testCase.Fatal(err)
	}

	sink := NewCSV(path)
	if err := sink.Write(context.Background(), NewRow(Field{"engine", "langgraph"}, Field{"latency_s", 3.0})); err != nil {
		testCase.Fatal(err)
	}

	records := readCSV(testCase, path)
	if len(records) != 3 {
		testCase.Fatalf("expected append without rotation, got %v", records)
	}
	if diff := cmp.Diff([]string{"3.0", "langgraph", "", "", "", "", "", "", ""}, records[2]); diff != "" {
		testCase.Errorf("row (-want +got):\n%s", diff)
	}
}

func TestCSV_ConcurrentWrites(testCase *testing.T) {
	path := filepath.Join(testCase.TempDir(), "telemetry.csv")
	sink := NewCSV(path)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sink.Write(context.Background(), NewRow(Field{"engine", "langgraph"}, Field{"input_chars", i}))
		}()
	}
	wg.Wait()

	if records := readCSV(testCase, path); len(records) != 21 {
		testCase.Errorf("records = %d, want 21", len(records))
	}
}

var errDiskFull = errors.New("disk full")

type failingWriter struct{ calls int }

func (w *failingWriter) Write([]byte) (int, error) {
	w.calls++
	return 0, errDiskFull
}

func TestWriteRecords_StopsAtFailedHeader(testCase *testing.T) {
	writer := &failingWriter{}
	header := []string{"engine", strings.Repeat("x", 8192)}

	err := writeRecords(writer, [][]string{header, {"langgraph", "1"}})
	if !errors.Is(err, errDiskFull) {
		testCase.Fatalf("writeRecords error = %v, want %v", err, errDiskFull)
	}
	if !strings.Contains(err.Error(), "writing csv record") {
		testCase.Errorf("the failed header write should be reported directly, got %v", err)
	}
	if writer.calls != 1 {
		testCase.Errorf("underlying writes = %d, want 1", writer.calls)
	}
}

func TestWriteRecords_FlushFailure(testCase *testing.T) {
	err := writeRecords(&failingWriter{}, [][]string{{"engine"}, {"langgraph"}})
	if !errors.Is(err, errDiskFull) || !strings.Contains(err.Error(), "flushing csv") {
		testCase.Errorf("writeRecords error = %v, want a flush failure", err)
	}
}

func TestWriteRecords(testCase *testing.T) {
	var buf bytes.Buffer
	if err := writeRecords(&buf, [][]string{{"engine", "latency_s"}, {"langgraph", "1.5"}}); err != nil {
		testCase.Fatalf("writeRecords: %v", err)
	}
	if got, want := buf.String(), "engine,latency_s\nlanggraph,1.5\n"; got != want {
		testCase.Errorf("output = %q, want %q", got, want)
	}
}

type fakeSink struct {
	mu     sync.Mutex
	rows   []*Row
	err    error
	closed bool
}

func (f *fakeSink) Write(_ context.Context, row *Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, row)
	return f.err
}

func (f *fakeSink) Close() error {
	f.closed = true
	return nil
}

func TestMulti_WritesAllAndJoinsErrors(testCase *testing.T) {
	good := &fakeSink{}
	bad := &fakeSink{err: errors.New("disk full")}
	sink := NewMulti(good, nil, bad)

	err := sink.Write(context.Background(), NewRow(Field{"engine", "langgraph"}))
	if err == nil || !errors.Is(err, bad.err) {
		testCase.Fatalf("Write() = %v, want wrapped disk full", err)
	}
	if len(good.rows) != 1 || len(bad.rows) != 1 {
		testCase.Errorf("rows = %d/%d, want 1/1", len(good.rows), len(bad.rows))
	}
	if err := sink.Close(); err != nil || !good.closed || !bad.closed {
		testCase.Errorf("Close() = %v, closed = %v/%v", err, good.closed, bad.closed)
	}
}

func TestNewMulti_Collapses(testCase *testing.T) {
	if _, ok := NewMulti().(Nop); !ok {
		testCase.Error("NewMulti() should be Nop")
	}
	only := &fakeSink{}
	if got := NewMulti(nil, only); got != only {
		testCase.Errorf("NewMulti(single) = %T", got)
	}
}
