// Package config loads the service configuration from an optional YAML
// file, overlays environment variables and validates every section.
package config
