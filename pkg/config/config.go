// Package config provides configuration file support for bootaudit.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/bootaudit/bootaudit/pkg/errclass"
)

// Config represents the bootaudit configuration.
type Config struct {
	// ESPRoot overrides ESP discovery. Empty means discover the
	// mounted ESP from the mount table.
	ESPRoot string `yaml:"esp_root"`
	// BootRoot is the /boot tree to audit.
	BootRoot string `yaml:"boot_root"`
	// Algorithm selects the file digest: sha256 or blake3.
	Algorithm string `yaml:"algorithm"`
	// HashWorkers bounds concurrent file hashing. Zero means one
	// worker per CPU.
	HashWorkers int `yaml:"hash_workers"`
	// StateDir overrides the snapshot state directory.
	StateDir string `yaml:"state_dir"`
	// KeepSnapshots is the default retention for prune.
	KeepSnapshots int `yaml:"keep_snapshots"`

	Attribution AttributionConfig `yaml:"attribution"`
	Services    ServicesConfig    `yaml:"services"`
	Modules     ModulesConfig     `yaml:"modules"`
}

// AttributionConfig configures package-ownership lookups.
type AttributionConfig struct {
	// RateLimit caps ownership lookups per second.
	RateLimit int `yaml:"rate_limit"`
	// TimeoutSeconds bounds a single lookup.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// ServicesConfig configures service classification. Non-empty pattern
// lists replace the built-in tables.
type ServicesConfig struct {
	SafePatterns   []string `yaml:"safe_patterns"`
	UnsafePatterns []string `yaml:"unsafe_patterns"`
}

// ModulesConfig configures kernel module triage.
type ModulesConfig struct {
	// SuspiciousTaints lists the taint characters that flag a module.
	SuspiciousTaints string `yaml:"suspicious_taints"`
	// TrustedSigners lists signer substrings treated as trusted.
	TrustedSigners []string `yaml:"trusted_signers"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		BootRoot:      "/boot",
		Algorithm:     "sha256",
		HashWorkers:   0,
		KeepSnapshots: 30,
		Attribution: AttributionConfig{
			RateLimit:      20,
			TimeoutSeconds: 5,
		},
		Modules: ModulesConfig{
			SuspiciousTaints: "OEPF",
		},
	}
}

// DefaultPath returns the user config path, honoring BOOTAUDIT_CONFIG
// and XDG_CONFIG_HOME.
func DefaultPath() string {
	if p := os.Getenv("BOOTAUDIT_CONFIG"); p != "" {
		return p
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "bootaudit", "config.yaml")
}

// Load loads configuration from the given path, or from DefaultPath
// when path is empty. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the given path, creating parent
// directories as needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return fmt.Errorf("no config path available")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Validate checks the configuration for values the rest of the system
// cannot work with.
func (c *Config) Validate() error {
	switch c.Algorithm {
	case "sha256", "blake3":
	default:
		return errclass.ErrAlgorithmUnknown.WithMessagef("algorithm %q (want sha256 or blake3)", c.Algorithm)
	}
	if c.HashWorkers < 0 {
		return fmt.Errorf("hash_workers must not be negative")
	}
	if c.KeepSnapshots < 0 {
		return fmt.Errorf("keep_snapshots must not be negative")
	}
	if c.Attribution.RateLimit <= 0 {
		return fmt.Errorf("attribution.rate_limit must be positive")
	}
	if c.Attribution.TimeoutSeconds <= 0 {
		return fmt.Errorf("attribution.timeout_seconds must be positive")
	}
	if c.Modules.SuspiciousTaints == "" {
		return fmt.Errorf("modules.suspicious_taints must not be empty")
	}
	return nil
}

// EffectiveWorkers resolves HashWorkers, defaulting to one per CPU.
func (c *Config) EffectiveWorkers() int {
	if c.HashWorkers > 0 {
		return c.HashWorkers
	}
	return runtime.GOMAXPROCS(0)
}
