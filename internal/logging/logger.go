// Package logging provides config-driven categorized logging for pricelens.
// Every category logs through one shared zap logger, tagged with a "cat" field.
// Until Initialize is called all loggers are no-ops, so library code and tests
// never need any setup.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot     Category = "boot"     // Startup, config resolution
	CategoryAPI      Category = "api"      // Generative content provider calls
	CategorySession  Category = "session"  // Search state transitions
	CategoryExport   Category = "export"   // Artifact composition
	CategoryBrowser  Category = "browser"  // Headless capture
	CategoryArchive  Category = "archive"  // Archive store reads/writes
	CategoryShare    Category = "share"    // Share and download hand-offs
	CategoryUI       Category = "ui"       // Interactive shell
)

// Config mirrors config.LoggingConfig to avoid an import cycle.
type Config struct {
	Level      string
	Format     string // json, console
	File       string // empty = stderr
	Categories map[string]bool
}

// Logger is a category-scoped printf-style logger.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu         sync.RWMutex
	base       = zap.NewNop()
	categories map[string]bool
	loggers    = make(map[Category]*Logger)
)

// Initialize builds the shared zap logger from cfg. verbose forces debug level.
func Initialize(cfg Config, verbose bool) error {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	var zcfg zap.Config
	if strings.EqualFold(cfg.Format, "console") || cfg.Format == "text" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.DisableStacktrace = true

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		zcfg.OutputPaths = []string{cfg.File}
		zcfg.ErrorOutputPaths = []string{cfg.File}
	}

	l, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	Use(l, cfg.Categories)

	Boot("logging initialized level=%s format=%s file=%q", level, cfg.Format, cfg.File)
	return nil
}

// Use installs an existing zap logger, e.g. one built on zaptest/observer.
func Use(l *zap.Logger, cats map[string]bool) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	base = l
	categories = cats
	loggers = make(map[Category]*Logger)
}

// L returns the shared zap logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Sync flushes buffered entries. Call at shutdown.
func Sync() {
	_ = L().Sync()
}

// IsCategoryEnabled returns whether a specific category is enabled.
// Categories missing from the config are enabled.
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	if categories == nil {
		return true
	}
	enabled, exists := categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Disabled categories get a no-op logger.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category, sugar: zap.NewNop().Sugar()}
	}

	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l := &Logger{
		category: category,
		sugar:    base.With(zap.String("cat", string(category))).Sugar(),
	}
	loggers[category] = l
	return l
}

// With returns a child logger carrying structured key/value context.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// =============================================================================

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootWarn(format string, args ...interface{})  { Get(CategoryBoot).Warn(format, args...) }
func API(format string, args ...interface{})       { Get(CategoryAPI).Info(format, args...) }
func APIDebug(format string, args ...interface{})  { Get(CategoryAPI).Debug(format, args...) }
func APIWarn(format string, args ...interface{})   { Get(CategoryAPI).Warn(format, args...) }
func APIError(format string, args ...interface{})  { Get(CategoryAPI).Error(format, args...) }
func Session(format string, args ...interface{})   { Get(CategorySession).Info(format, args...) }
func SessionDebug(format string, args ...interface{}) {
	Get(CategorySession).Debug(format, args...)
}
func Export(format string, args ...interface{})      { Get(CategoryExport).Info(format, args...) }
func ExportError(format string, args ...interface{}) { Get(CategoryExport).Error(format, args...) }
func Browser(format string, args ...interface{})     { Get(CategoryBrowser).Info(format, args...) }
func BrowserDebug(format string, args ...interface{}) {
	Get(CategoryBrowser).Debug(format, args...)
}
func Archive(format string, args ...interface{})      { Get(CategoryArchive).Info(format, args...) }
func ArchiveDebug(format string, args ...interface{}) { Get(CategoryArchive).Debug(format, args...) }
func ArchiveWarn(format string, args ...interface{})  { Get(CategoryArchive).Warn(format, args...) }
func Share(format string, args ...interface{})        { Get(CategoryShare).Info(format, args...) }
func ShareWarn(format string, args ...interface{})    { Get(CategoryShare).Warn(format, args...) }
func UI(format string, args ...interface{})           { Get(CategoryUI).Info(format, args...) }
func UIDebug(format string, args ...interface{})      { Get(CategoryUI).Debug(format, args...) }
