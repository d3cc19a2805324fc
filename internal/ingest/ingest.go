package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/MerlinChiodo/multi-agent-orchestration/internal/utils"
)

// ErrUnsupportedSource is returned for sources no reader handles, such as PDF
// files.
var ErrUnsupportedSource = errors.New("ingest: unsupported source")

// Stdin is the source name that reads standard input.
const Stdin = "-"

// DefaultTimeout bounds one URL fetch.
const DefaultTimeout = 30 * time.Second

// Loader reads documents from files, URLs and standard input.
type Loader struct {
	client *http.Client
	stdin  io.Reader
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient replaces the client used for URL sources.
func WithHTTPClient(client *http.Client) Option {
	return func(loader *Loader) { loader.client = client }
}

// WithStdin replaces the reader behind the "-" source.
func WithStdin(reader io.Reader) Option {
	return func(loader *Loader) { loader.stdin = reader }
}

// New returns a Loader with a DefaultTimeout HTTP client reading os.Stdin.
func New(opts ...Option) *Loader {
	loader := &Loader{
		client: &http.Client{Timeout: DefaultTimeout},
		stdin:  os.Stdin,
	}
	for _, opt := range opts {
		opt(loader)
	}
	return loader
}

// Load returns the text of one source:
//
//   - http(s) URLs are fetched; HTML responses are converted to Markdown
//   - .html and .htm files are converted to Markdown
//   - .txt and .md files are read as UTF-8
//   - "-" reads standard input
//
// Anything else fails with ErrUnsupportedSource. Invalid UTF-8 is dropped.
func (loader *Loader) Load(ctx context.Context, source string) (string, error) {
	switch {
	case source == Stdin:
		data, err := io.ReadAll(loader.stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return decode(data), nil

	case isURL(source):
		body, contentType, err := utils.DoGet(ctx, loader.client, source)
		if err != nil {
			return "", fmt.Errorf("fetch %s: %w", source, err)
		}
		if isHTML(contentType, body) {
			return toMarkdown(body)
		}
		return decode(body), nil
	}

	switch strings.ToLower(filepath.Ext(source)) {
	case ".html", ".htm":
		data, err := os.ReadFile(source)
		if err != nil {
			return "", err
		}
		return toMarkdown(data)
	case ".txt", ".md":
		data, err := os.ReadFile(source)
		if err != nil {
			return "", err
		}
		return decode(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
	}
}

// LoadAll loads every source and joins the non-empty texts with a blank
// line. A source that fails to read becomes an "[Error reading <name>: <err>]"
// chunk instead of failing the batch; unsupported sources still fail it.
func (loader *Loader) LoadAll(ctx context.Context, sources []string) (string, error) {
	chunks := make([]string, 0, len(sources))
	var unsupported []error

	for _, source := range sources {
		text, err := loader.Load(ctx, source)
		switch {
		case errors.Is(err, ErrUnsupportedSource):
			unsupported = append(unsupported, err)
		case err != nil:
			chunks = append(chunks, fmt.Sprintf("[Error reading %s: %v]", displayName(source), err))
		case text != "":
			chunks = append(chunks, text)
		}
	}

	if len(unsupported) > 0 {
		return "", errors.Join(unsupported...)
	}
	return strings.TrimSpace(strings.Join(chunks, "\n\n")), nil
}

func isURL(source string) bool {
	lowered := strings.ToLower(source)
	return strings.HasPrefix(lowered, "http://") || strings.HasPrefix(lowered, "https://")
}

func isHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}
	head := bytes.ToLower(bytes.TrimSpace(body[:min(len(body), 512)]))
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

func toMarkdown(data []byte) (string, error) {
	markdown, err := htmltomarkdown.ConvertString(decode(data))
	if err != nil {
		return "", fmt.Errorf("convert html to markdown: %w", err)
	}
	return strings.TrimSpace(markdown), nil
}

func decode(data []byte) string {
	return strings.ToValidUTF8(string(data), "")
}

func displayName(source string) string {
	if source == Stdin || isURL(source) {
		return source
	}
	return filepath.Base(source)
}
