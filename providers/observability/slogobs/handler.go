package slogobs

import (
	"io"
	"log/slog"
	"os"
)

// NewHandler builds a text or JSON slog.Handler writing to output at the given
// minimum level. TRACE records are labelled as such instead of "DEBUG-4".
func NewHandler(format Format, level slog.Level, output io.Writer) slog.Handler {
	if output == nil {
		output = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevel,
	}

	if format == FormatJSON {
		return slog.NewJSONHandler(output, handlerOpts)
	}
	return slog.NewTextHandler(output, handlerOpts)
}

// NewLogger returns a *slog.Logger configured from opts. The CLI installs it
// with slog.SetDefault so that packages logging through slog directly share
// the same handler.
func NewLogger(opts ...Option) *slog.Logger {
	cfg := applyOptions(opts...)
	if cfg.logger != nil {
		return cfg.logger
	}
	return slog.New(NewHandler(cfg.format, cfg.level, cfg.output))
}

func replaceLevel(_ []string, attr slog.Attr) slog.Attr {
	if attr.Key != slog.LevelKey {
		return attr
	}
	if level, ok := attr.Value.Any().(slog.Level); ok {
		attr.Value = slog.StringValue(LogLevelString(level))
	}
	return attr
}
