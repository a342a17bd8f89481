// Package config holds all varp tunables, loaded from .varp/config.json
// with field-level defaults. The config is read once per invocation; the
// co-change cache keys its validity to the Fingerprint of the cochange
// section.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"varp/internal/logging"
)

// Config holds all varp configuration.
type Config struct {
	// Co-change analyzer filtering
	Cochange CochangeConfig `yaml:"cochange" json:"cochange"`

	// Hotspot and complexity-trend scoring
	Hotspots HotspotsConfig `yaml:"hotspots" json:"hotspots"`

	// Doc freshness thresholds
	Freshness FreshnessConfig `yaml:"freshness" json:"freshness"`

	// Logging
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// CochangeConfig controls git co-change filtering.
type CochangeConfig struct {
	// CommitSizeCeiling drops commits touching more files entirely.
	CommitSizeCeiling int `yaml:"commit_size_ceiling" json:"commit_size_ceiling"`
	// MessageExcludes drops commits whose subject contains any of these
	// substrings (case-insensitive).
	MessageExcludes []string `yaml:"message_excludes" json:"message_excludes"`
	// FileExcludes drops individual files matching any of these globs.
	FileExcludes []string `yaml:"file_excludes" json:"file_excludes"`
}

// HotspotsConfig controls hotspot and complexity-trend scoring.
type HotspotsConfig struct {
	// MaxCommits caps how many historical checkpoints a trend samples.
	MaxCommits int `yaml:"max_commits" json:"max_commits"`
	// TrendThreshold is the per-checkpoint slope above which a file is
	// classified as increasing (below the negation: decreasing).
	TrendThreshold float64 `yaml:"trend_threshold" json:"trend_threshold"`
	// TrendMinCommits is the minimum history needed to classify at all.
	TrendMinCommits int `yaml:"trend_min_commits" json:"trend_min_commits"`
}

// FreshnessConfig controls doc staleness checks.
type FreshnessConfig struct {
	// StalenessThresholdMs is the doc-behind-source grace window.
	// Batch edits land within it; anything beyond is stale.
	StalenessThresholdMs int64 `yaml:"staleness_threshold_ms" json:"staleness_threshold_ms"`
}

// LoggingConfig mirrors logging's expectations; it is parsed here so the
// whole file round-trips, but the logging package reads it independently.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode" json:"debug_mode"`
	Categories map[string]bool `yaml:"categories" json:"categories,omitempty"`
	Level      string          `yaml:"level" json:"level,omitempty"`
}

// DefaultCochangeConfig returns co-change filter defaults.
func DefaultCochangeConfig() CochangeConfig {
	return CochangeConfig{
		CommitSizeCeiling: 50,
		MessageExcludes:   []string{"chore", "style", "format", "lint", "merge", "rebase"},
		FileExcludes: []string{
			"*.lock",
			"package-lock.json",
			"yarn.lock",
			"pnpm-lock.yaml",
			"Cargo.lock",
			"go.sum",
			"*.d.ts",
			".varp/**",
		},
	}
}

// DefaultHotspotsConfig returns hotspot scoring defaults.
func DefaultHotspotsConfig() HotspotsConfig {
	return HotspotsConfig{
		MaxCommits:      20,
		TrendThreshold:  5.0,
		TrendMinCommits: 3,
	}
}

// DefaultFreshnessConfig returns freshness defaults.
func DefaultFreshnessConfig() FreshnessConfig {
	return FreshnessConfig{StalenessThresholdMs: 5000}
}

// Default returns the full default configuration.
func Default() Config {
	return Config{
		Cochange:  DefaultCochangeConfig(),
		Hotspots:  DefaultHotspotsConfig(),
		Freshness: DefaultFreshnessConfig(),
		Logging:   LoggingConfig{Level: "info"},
	}
}

// Load reads .varp/config.json under root, overlaying defaults.
// A missing file returns defaults; a malformed file is an error.
func Load(root string) (Config, error) {
	cfg := Default()
	path := filepath.Join(root, ".varp", "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse %s: %w", path, err)
	}
	logging.Get(logging.CategoryConfig).Info("Loaded config overrides from %s", path)
	return cfg, nil
}

// Fingerprint returns a canonical field-by-field serialization of the
// co-change filter config. The cache stores it; any drift forces a full
// rescan because previously-filtered commits may become eligible.
func (c CochangeConfig) Fingerprint() string {
	msgs := append([]string(nil), c.MessageExcludes...)
	sort.Strings(msgs)
	files := append([]string(nil), c.FileExcludes...)
	sort.Strings(files)
	return fmt.Sprintf("ceiling=%d;msg=%s;files=%s",
		c.CommitSizeCeiling,
		strings.Join(msgs, ","),
		strings.Join(files, ","))
}
