package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/MerlinChiodo/multi-agent-orchestration/internal/preprocess"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/ai"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/ai/ollama"
)

// ErrInvalidConfig is wrapped by every error returned from Validate.
var ErrInvalidConfig = errors.New("invalid config")

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	StyleShort      = "short"
	StyleUltraShort = "ultra_short"
	StyleNone       = "none"
)

const (
	DefaultModel          = "qwen2.5:1.5b"
	DefaultTimeoutSeconds = 45.0
	DefaultMaxTokens      = 192
	DefaultNumCtx         = 4096
	DefaultKeepAlive      = "30m"
	DefaultTelemetryCSV   = "telemetry.csv"
	DefaultLanguage       = "DE"
)

// Config is the full run configuration. The zero value is not usable; start
// from Default.
type Config struct {
	Preset string `yaml:"preset"`

	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`

	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	NumCtx      int     `yaml:"num_ctx"`
	KeepAlive   string  `yaml:"keep_alive"`

	// TimeoutSeconds bounds every guarded model call. Values below 1 are
	// raised to 1 by the guard.
	TimeoutSeconds float64 `yaml:"timeout_s"`
	Retries        int     `yaml:"retries"`

	TruncateChars int `yaml:"truncate_chars"`

	SectionsEnabled    bool     `yaml:"sections_enabled"`
	SectionBudgetChars int      `yaml:"section_budget_chars"`
	SectionsPreferred  []string `yaml:"sections_preferred"`
	AutoExpandIfShort  bool     `yaml:"auto_expand_if_short"`
	MinAnalysisChars   int      `yaml:"min_analysis_chars"`

	// MaxCriticLoops bounds the rework loop. Negative values mean no rework.
	MaxCriticLoops int `yaml:"max_critic_loops"`

	TranslatorLanguage string `yaml:"translator_language"`
	TranslatorStyle    string `yaml:"translator_style"`

	TelemetryCSV         string `yaml:"telemetry_csv"`
	TelemetrySQLite      string `yaml:"telemetry_sqlite"`
	TelemetryPostgresDSN string `yaml:"telemetry_postgres_dsn"`
}

// Default returns the built-in configuration for a local Ollama server.
func Default() Config {
	return Config{
		Provider:           ProviderOllama,
		Model:              DefaultModel,
		BaseURL:            ollama.DefaultBaseURL,
		Temperature:        0.0,
		MaxTokens:          DefaultMaxTokens,
		NumCtx:             DefaultNumCtx,
		KeepAlive:          DefaultKeepAlive,
		TimeoutSeconds:     DefaultTimeoutSeconds,
		SectionsEnabled:    true,
		SectionsPreferred:  append([]string(nil), preprocess.DefaultPreferred...),
		AutoExpandIfShort:  true,
		MinAnalysisChars:   preprocess.DefaultMinAnalysisChars,
		MaxCriticLoops:     1,
		TranslatorLanguage: DefaultLanguage,
		TranslatorStyle:    StyleShort,
		TelemetryCSV:       DefaultTelemetryCSV,
	}
}

// BudgetChars is the section budget: SectionBudgetChars, else TruncateChars,
// else preprocess.DefaultBudgetChars.
func (c Config) BudgetChars() int {
	switch {
	case c.SectionBudgetChars > 0:
		return c.SectionBudgetChars
	case c.TruncateChars > 0:
		return c.TruncateChars
	default:
		return preprocess.DefaultBudgetChars
	}
}

// PreprocessOptions maps the section settings onto the context builder.
func (c Config) PreprocessOptions() preprocess.Options {
	return preprocess.Options{
		SectionsEnabled:   c.SectionsEnabled,
		BudgetChars:       c.BudgetChars(),
		Preferred:         append([]string(nil), c.SectionsPreferred...),
		AutoExpandIfShort: c.AutoExpandIfShort,
		MinAnalysisChars:  c.MinAnalysisChars,
	}
}

// GenerationConfig maps the sampling settings onto a provider request.
func (c Config) GenerationConfig() ai.GenerationConfig {
	return ai.GenerationConfig{
		MaxTokens:     c.MaxTokens,
		Temperature:   ai.Float64(c.Temperature),
		ContextWindow: c.NumCtx,
		KeepAlive:     c.KeepAlive,
	}
}

// Language returns the upper-cased translator language, DE when unset.
func (c Config) Language() string {
	language := strings.ToUpper(strings.TrimSpace(c.TranslatorLanguage))
	if language == "" {
		return DefaultLanguage
	}
	return language
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Preset != "" {
		if _, ok := presets[c.Preset]; !ok {
			invalid("unknown preset %q (want one of %s)", c.Preset, strings.Join(PresetNames(), ", "))
		}
	}
	if c.Provider != ProviderOllama && c.Provider != ProviderOpenAI {
		invalid("unknown provider %q", c.Provider)
	}
	if strings.TrimSpace(c.Model) == "" {
		invalid("model must not be empty")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		invalid("temperature %.2f outside [0, 2]", c.Temperature)
	}
	for name, value := range map[string]int{
		"max_tokens":           c.MaxTokens,
		"num_ctx":              c.NumCtx,
		"retries":              c.Retries,
		"truncate_chars":       c.TruncateChars,
		"section_budget_chars": c.SectionBudgetChars,
		"min_analysis_chars":   c.MinAnalysisChars,
	} {
		if value < 0 {
			invalid("%s must not be negative, got %d", name, value)
		}
	}
	if c.TimeoutSeconds < 0 {
		invalid("timeout_s must not be negative, got %v", c.TimeoutSeconds)
	}
	if !slices.Contains([]string{StyleShort, StyleUltraShort, StyleNone, ""}, c.TranslatorStyle) {
		invalid("unknown translator style %q", c.TranslatorStyle)
	}

	if len(errs) == 0 {
		return nil
	}
	slices.SortFunc(errs, func(a, b error) int { return strings.Compare(a.Error(), b.Error()) })
	return errors.Join(errs...)
}
