// internal/config/loader.go
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	envPrefix = "WEBTRACK_"
)

// LoadWithFile loads configuration from a YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (WEBTRACK_SERVER_PORT, WEBTRACK_TRACKING_W3C_ENABLED, ...)
//  2. YAML config file
//  3. Hardcoded defaults
//
// A missing file is not an error; defaults and environment still apply.
// Files larger than 1MB are rejected.
//
// # Environment Variable Mapping
//
// Variables are stripped of the WEBTRACK_ prefix, lowercased, and split on
// the first underscore into section and field:
//
//	WEBTRACK_SERVER_PORT               -> server.port
//	WEBTRACK_TELEMETRY_FLUSH_INTERVAL  -> telemetry.flush_interval
//	WEBTRACK_TRACKING_W3C_ENABLED      -> tracking.w3c_enabled
func LoadWithFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			content, err := readConfigFile(configPath)
			if err != nil {
				return nil, err
			}
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		// WEBTRACK_SECTION_FIELD_NAME -> section.field_name: split on the
		// first underscore only, field names keep theirs.
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Unmarshal over the defaults so absent keys keep their default values.
	cfg := NewDefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// readConfigFile opens and reads the file once, checking its size on the
// open descriptor.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}
