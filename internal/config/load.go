package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadOptions selects the sources Load reads. Each layer overrides the one
// before it: defaults, preset, YAML file, environment, Overrides.
type LoadOptions struct {
	// File is an optional YAML config path.
	File string

	// Preset wins over a preset named in the file or in MAO_PRESET.
	Preset string

	// DotEnv is the .env path. Empty means ".env"; a missing file is ignored.
	DotEnv string

	// Getenv defaults to os.Getenv.
	Getenv func(string) string

	// Overrides runs last, typically to apply explicitly set CLI flags.
	Overrides func(*Config)
}

// Load assembles and validates a Config.
func Load(options LoadOptions) (Config, error) {
	if err := LoadDotEnv(options.DotEnv); err != nil {
		return Config{}, err
	}
	getenv := options.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	var fileData []byte
	if options.File != "" {
		data, err := os.ReadFile(options.File)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		fileData = data
	}

	presetName := options.Preset
	if presetName == "" {
		presetName = getenv("MAO_PRESET")
	}
	if presetName == "" && fileData != nil {
		var head struct {
			Preset string `yaml:"preset"`
		}
		if err := yaml.Unmarshal(fileData, &head); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", options.File, err)
		}
		presetName = head.Preset
	}

	cfg := Default()
	if err := cfg.ApplyPreset(presetName); err != nil {
		return Config{}, err
	}
	if fileData != nil {
		if err := yaml.Unmarshal(fileData, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", options.File, err)
		}
		cfg.Preset = presetName
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return Config{}, err
	}
	if options.Overrides != nil {
		options.Overrides(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from path (".env" when empty) without
// overriding variables that are already set.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays the recognised environment variables. Malformed numbers
// are reported together.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	var errs []error

	str := func(key string, target *string) {
		if value := strings.TrimSpace(getenv(key)); value != "" {
			*target = value
		}
	}
	integer := func(key string, target *int) {
		value := strings.TrimSpace(getenv(key))
		if value == "" {
			return
		}
		parsed, err := strconv.Atoi(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, value))
			return
		}
		*target = parsed
	}
	float := func(key string, target *float64) {
		value := strings.TrimSpace(getenv(key))
		if value == "" {
			return
		}
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, key, value))
			return
		}
		*target = parsed
	}

	str("MAO_PROVIDER", &c.Provider)
	str("OLLAMA_MODEL", &c.Model)
	float("OLLAMA_TEMPERATURE", &c.Temperature)
	integer("OLLAMA_NUM_CTX", &c.NumCtx)
	integer("OLLAMA_NUM_PREDICT", &c.MaxTokens)
	float("OLLAMA_TIMEOUT", &c.TimeoutSeconds)

	if c.Provider == ProviderOpenAI {
		str("OPENAI_BASE_URL", &c.BaseURL)
		str("OPENAI_API_KEY", &c.APIKey)
	} else {
		str("OLLAMA_BASE_URL", &c.BaseURL)
	}

	str("MAO_TELEMETRY_CSV", &c.TelemetryCSV)
	str("MAO_TELEMETRY_SQLITE", &c.TelemetrySQLite)
	str("MAO_POSTGRES_DSN", &c.TelemetryPostgresDSN)

	return errors.Join(errs...)
}
