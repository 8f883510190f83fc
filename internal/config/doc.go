// Package config defines the application configuration structure and loads
// it from environment variables (PROMPTQ_ prefix) and an optional config
// file. Loaded configuration is validated before use.
package config
