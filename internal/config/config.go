// Package config loads .tatu.yml configuration files for rule overrides,
// severity thresholds and scan limits.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/garagon/tatu/internal/rules"
	"github.com/garagon/tatu/internal/types"
)

// maxConfigSize is the largest config file accepted (1 MB).
const maxConfigSize = 1 << 20

// FileNames are the config file names looked up in the scan root, in order.
var FileNames = []string{".tatu.yml", ".tatu.yaml"}

// RuleOverride allows per-rule severity or disable.
type RuleOverride struct {
	Severity string `yaml:"severity,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// Config represents the .tatu.yml configuration file.
type Config struct {
	Ignore        []string                `yaml:"ignore,omitempty"`
	Severity      string                  `yaml:"severity,omitempty"`
	FailOn        string                  `yaml:"fail_on,omitempty"`
	Format        string                  `yaml:"format,omitempty"`
	Rules         string                  `yaml:"rules,omitempty"`
	DisableRules  []string                `yaml:"disable_rules,omitempty"`
	MaxFiles      int                     `yaml:"max_files,omitempty"`
	MaxFileSize   int64                   `yaml:"max_file_size,omitempty"`
	Workers       int                     `yaml:"workers,omitempty"`
	RuleOverrides map[string]RuleOverride `yaml:"rule_overrides,omitempty"`
}

// Load reads the .tatu.yml or .tatu.yaml config file from dir. If dir is a
// file, its parent directory is used. If no config file is found, it returns
// a zero Config (not an error).
func Load(dir string) (Config, error) {
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, fmt.Errorf("reading %s: %w", path, err)
		}
		if info.Size() > maxConfigSize {
			return Config{}, fmt.Errorf("config file too large: %s (%d bytes, max 1 MB)", path, info.Size())
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading %s: %w", path, err)
		}
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
		if err := cfg.Validate(); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
		return cfg, nil
	}
	return Config{}, nil
}

// Validate checks severity names and numeric limits.
func (c Config) Validate() error {
	for field, v := range map[string]string{"severity": c.Severity, "fail_on": c.FailOn} {
		if v == "" {
			continue
		}
		if _, err := types.ParseSeverity(v); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}
	if c.MaxFiles < 0 || c.MaxFileSize < 0 || c.Workers < 0 {
		return fmt.Errorf("max_files, max_file_size and workers must not be negative")
	}
	return nil
}

// Overrides converts the config overrides for the rules package.
func (c Config) Overrides() map[string]rules.RuleOverride {
	if len(c.RuleOverrides) == 0 {
		return nil
	}
	out := make(map[string]rules.RuleOverride, len(c.RuleOverrides))
	for id, o := range c.RuleOverrides {
		out[id] = rules.RuleOverride{Severity: o.Severity, Disabled: o.Disabled}
	}
	return out
}
