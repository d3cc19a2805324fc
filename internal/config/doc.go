// Package config assembles the run configuration from built-in defaults, a
// named preset, an optional YAML file, the environment (including a .env
// file) and explicit overrides, and builds the model client from it.
package config
