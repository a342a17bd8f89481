// Package logging provides config-driven categorized file-based logging for varp.
// Logs are written to .varp/logs/ with separate files per category.
// Logging is controlled by debug_mode in .varp/config.json - when false, no logs are written.
package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot     Category = "boot"     // Boot/initialization
	CategoryConfig   Category = "config"   // Config loading and overrides
	CategoryManifest Category = "manifest" // Manifest parsing, ownership, docs
	CategoryImports  Category = "imports"  // Static import scanner
	CategoryCochange Category = "cochange" // Git co-change analyzer
	CategoryCoupling Category = "coupling" // Coupling matrix
	CategoryPlan     Category = "plan"     // Plan parsing and validation
	CategorySched    Category = "sched"    // Hazards, waves, critical path
	CategoryEnforce  Category = "enforce"  // Capability and restart checks
	CategoryGraph    Category = "graph"    // Codebase graph assembly
)

// loggingConfig mirrors the relevant parts of config.LoggingConfig
// to avoid circular imports
type loggingConfig struct {
	DebugMode  bool            `json:"debug_mode"`
	Categories map[string]bool `json:"categories"`
	Level      string          `json:"level"`
}

// configFile structure for reading .varp/config.json
type configFile struct {
	Logging loggingConfig `json:"logging"`
}

// Logger wraps a standard logger with category and file output
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	workspace string
	config    loggingConfig
	configMu  sync.RWMutex
	logLevel  int // 0=debug, 1=info, 2=warn, 3=error
)

// Log levels
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Initialize sets up the logging directory and loads config.
// Should be called once at startup with the workspace path.
func Initialize(ws string) error {
	if ws == "" {
		return fmt.Errorf("workspace path required")
	}

	workspace = ws
	logsDir = filepath.Join(workspace, ".varp", "logs")

	if err := loadConfig(); err != nil {
		// Default to disabled (production mode)
		configMu.Lock()
		config.DebugMode = false
		configMu.Unlock()
	}

	configMu.RLock()
	debug := config.DebugMode
	configMu.RUnlock()

	// Only create logs directory if debug mode is enabled
	if !debug {
		return nil // Silent no-op in production mode
	}

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("=== varp logging initialized ===")
	boot.Info("Workspace: %s", workspace)
	return nil
}

func loadConfig() error {
	configPath := filepath.Join(workspace, ".varp", "config.json")
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	var cf configFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("parse %s: %w", configPath, err)
	}

	configMu.Lock()
	defer configMu.Unlock()
	config = cf.Logging
	switch config.Level {
	case "debug":
		logLevel = LevelDebug
	case "warn":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}
	return nil
}

// enabled reports whether a category should emit at the given level.
func enabled(cat Category, level int) bool {
	configMu.RLock()
	defer configMu.RUnlock()

	if !config.DebugMode {
		return false
	}
	if level < logLevel {
		return false
	}
	if config.Categories != nil {
		if on, ok := config.Categories[string(cat)]; ok {
			return on
		}
	}
	return true
}

// Get returns the logger for a category, creating it on first use.
func Get(cat Category) *Logger {
	loggersMu.RLock()
	l, ok := loggers[cat]
	loggersMu.RUnlock()
	if ok {
		return l
	}

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok = loggers[cat]; ok {
		return l
	}

	l = &Logger{category: cat}
	if logsDir != "" {
		path := filepath.Join(logsDir, string(cat)+".log")
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
			l.file = f
			l.logger = log.New(f, "", log.LstdFlags|log.Lmicroseconds)
		}
	}
	loggers[cat] = l
	return l
}

// Close flushes and closes all category log files.
func Close() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

func (l *Logger) write(level int, tag, format string, args ...interface{}) {
	if l.logger == nil || !enabled(l.category, level) {
		return
	}
	l.logger.Printf("["+tag+"] "+format, args...)
}

// Debug logs a debug-level message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.write(LevelDebug, "DEBUG", format, args...)
}

// Info logs an info-level message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.write(LevelInfo, "INFO", format, args...)
}

// Warn logs a warning-level message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.write(LevelWarn, "WARN", format, args...)
}

// Error logs an error-level message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.write(LevelError, "ERROR", format, args...)
}

// Category convenience helpers. Info-level variants log progress milestones;
// Debug variants log per-item detail.

func Manifest(format string, args ...interface{})      { Get(CategoryManifest).Info(format, args...) }
func ManifestDebug(format string, args ...interface{}) { Get(CategoryManifest).Debug(format, args...) }
func Imports(format string, args ...interface{})       { Get(CategoryImports).Info(format, args...) }
func ImportsDebug(format string, args ...interface{})  { Get(CategoryImports).Debug(format, args...) }
func Cochange(format string, args ...interface{})      { Get(CategoryCochange).Info(format, args...) }
func CochangeDebug(format string, args ...interface{}) { Get(CategoryCochange).Debug(format, args...) }
func Coupling(format string, args ...interface{})      { Get(CategoryCoupling).Info(format, args...) }
func Plan(format string, args ...interface{})          { Get(CategoryPlan).Info(format, args...) }
func PlanDebug(format string, args ...interface{})     { Get(CategoryPlan).Debug(format, args...) }
func Sched(format string, args ...interface{})         { Get(CategorySched).Info(format, args...) }
func SchedDebug(format string, args ...interface{})    { Get(CategorySched).Debug(format, args...) }
func Enforce(format string, args ...interface{})       { Get(CategoryEnforce).Info(format, args...) }
func Graph(format string, args ...interface{})         { Get(CategoryGraph).Info(format, args...) }
