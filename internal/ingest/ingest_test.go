package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const page = `<!DOCTYPE html><html><head><title>t</title></head><body><h1>Title</h1><p>Hello <b>world</b></p></body></html>`

func writeFile(testCase *testing.T, dir, name, content string) string {
	testCase.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		testCase.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_Files(testCase *testing.T) {
	dir := testCase.TempDir()
	tests := []struct {
		name     string
		path     string
		contains []string
	}{
		{name: "text", path: writeFile(testCase, dir, "paper.txt", "Abstract\nplain text"), contains: []string{"Abstract\nplain text"}},
		{name: "markdown", path: writeFile(testCase, dir, "notes.MD", "# Notes"), contains: []string{"# Notes"}},
		{name: "html", path: writeFile(testCase, dir, "page.html", page), contains: []string{"# Title", "Hello **world**"}},
		{name: "invalid utf8 dropped", path: writeFile(testCase, dir, "bad.txt", "ok\xffok"), contains: []string{"okok"}},
	}

	loader := New()
	for _, test := range tests {
		testCase.Run(test.name, func(testCase *testing.T) {
			text, err := loader.Load(context.Background(), test.path)
			if err != nil {
				testCase.Fatalf("Load: %v", err)
			}
			for _, fragment := range test.contains {
				if !strings.Contains(text, fragment) {
					testCase.Errorf("text %q does not contain %q", text, fragment)
				}
			}
			if strings.Contains(text, "<p>") {
				testCase.Errorf("html tags left in %q", text)
			}
		})
	}
}

func TestLoad_Unsupported(testCase *testing.T) {
	_, err := New().Load(context.Background(), "paper.pdf")
	if !errors.Is(err, ErrUnsupportedSource) {
		testCase.Fatalf("err = %v, want ErrUnsupportedSource", err)
	}
}

func TestLoad_URL(testCase *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/page":
			writer.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = writer.Write([]byte(page))
		case "/plain":
			writer.Header().Set("Content-Type", "text/plain")
			_, _ = writer.Write([]byte("just text"))
		default:
			http.NotFound(writer, request)
		}
	}))
	defer server.Close()

	loader := New(WithHTTPClient(server.Client()))

	text, err := loader.Load(context.Background(), server.URL+"/page")
	if err != nil {
		testCase.Fatalf("Load page: %v", err)
	}
	if !strings.Contains(text, "# Title") || strings.Contains(text, "<h1>") {
		testCase.Errorf("page not converted: %q", text)
	}

	text, err = loader.Load(context.Background(), server.URL+"/plain")
	if err != nil {
		testCase.Fatalf("Load plain: %v", err)
	}
	if text != "just text" {
		testCase.Errorf("plain = %q", text)
	}

	if _, err := loader.Load(context.Background(), server.URL+"/missing"); err == nil {
		testCase.Error("expected an error for a 404")
	}
}

func TestLoad_Stdin(testCase *testing.T) {
	loader := New(WithStdin(strings.NewReader("from stdin")))
	text, err := loader.Load(context.Background(), Stdin)
	if err != nil {
		testCase.Fatalf("Load: %v", err)
	}
	if text != "from stdin" {
		testCase.Errorf("text = %q", text)
	}
}

func TestLoadAll(testCase *testing.T) {
	dir := testCase.TempDir()
	first := writeFile(testCase, dir, "a.txt", "first")
	empty := writeFile(testCase, dir, "empty.txt", "")
	second := writeFile(testCase, dir, "b.md", "second")
	missing := filepath.Join(dir, "missing.txt")

	text, err := New().LoadAll(context.Background(), []string{first, empty, missing, second})
	if err != nil {
		testCase.Fatalf("LoadAll: %v", err)
	}

	parts := strings.Split(text, "\n\n")
	if len(parts) != 3 {
		testCase.Fatalf("parts = %q, want 3", parts)
	}
	if parts[0] != "first" {
		testCase.Errorf("first part = %q", parts[0])
	}
	if !strings.HasPrefix(parts[1], "[Error reading missing.txt: ") || !strings.HasSuffix(parts[1], "]") {
		testCase.Errorf("error chunk = %q", parts[1])
	}
	if parts[2] != "second" {
		testCase.Errorf("last part = %q", parts[2])
	}
}

func TestLoadAll_UnsupportedFails(testCase *testing.T) {
	dir := testCase.TempDir()
	ok := writeFile(testCase, dir, "a.txt", "fine")

	_, err := New().LoadAll(context.Background(), []string{ok, "scan.pdf"})
	if !errors.Is(err, ErrUnsupportedSource) {
		testCase.Fatalf("err = %v, want ErrUnsupportedSource", err)
	}
}
