// Package config loads the engine-wide configuration: where to look for
// sub-network .flow files, which cache backend to use, and where logs go.
// Loading itself (TOML parsing) is in scope; how a command line discovers
// the config file path is not (see spec.md §1).
/*
 * Grounded on ocochard-cmonit's internal/config package.
 */
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Network NetworkConfig `toml:"network"`
	Cache   CacheConfig   `toml:"cache"`
	Logging LoggingConfig `toml:"logging"`
}

// NetworkConfig governs .flow file resolution (spec.md §4.5, §6).
type NetworkConfig struct {
	// SearchPath is tried, in order, after the including file's own
	// directory, when a <network-node filter="..."> or a bare filter
	// name resolves to neither a built-in filter nor a previously
	// declared <network-node> template.
	SearchPath []string `toml:"search_path"`
	// Extension is appended to a bare filter name that has no
	// extension of its own before it is looked up on SearchPath.
	Extension string `toml:"extension"`
}

// CacheConfig selects and configures the archive.Store backend (spec.md §4.9).
type CacheConfig struct {
	Backend     string `toml:"backend"` // "local" | "s3"
	LocalRoot   string `toml:"local_root"`
	S3Bucket    string `toml:"s3_bucket"`
	S3Prefix    string `toml:"s3_prefix"`
	Compression string `toml:"compression"` // "lz4" | "none"
}

type LoggingConfig struct {
	Dir          string `toml:"dir"`
	ToStderr     bool   `toml:"to_stderr"`
	AlsoToStderr bool   `toml:"also_to_stderr"`
}

func Default() *Config {
	return &Config{
		Network: NetworkConfig{Extension: ".flow"},
		Cache:   CacheConfig{Backend: "local", LocalRoot: "./cache", Compression: "lz4"},
		Logging: LoggingConfig{ToStderr: true},
	}
}

// Load reads and parses a TOML config file, falling back to Default()
// values for anything the file leaves zero.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.Network.Extension == "" {
		cfg.Network.Extension = ".flow"
	}
	return cfg, nil
}
