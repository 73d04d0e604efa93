// Package logging defines the Logger interface used by nodes, transports and the driver.
// It also includes functions for setting the global log level and a per-package log level.
package logging

import (
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logLevel      = zapcore.InfoLevel
	packageLevels = make(map[string]zapcore.Level)
	mut           sync.RWMutex
)

// ParseLevel parses a level name. It returns false if the name is unknown.
func ParseLevel(level string) (zapcore.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return zap.DebugLevel, true
	case "info":
		return zap.InfoLevel, true
	case "warn":
		return zap.WarnLevel, true
	case "error":
		return zap.ErrorLevel, true
	}
	return zap.InfoLevel, false
}

func mustParseLevel(level string) zapcore.Level {
	l, ok := ParseLevel(level)
	if !ok {
		panic("invalid log level '" + level + "'")
	}
	return l
}

// SetLogLevel sets the global log level.
func SetLogLevel(levelStr string) {
	level := mustParseLevel(levelStr)
	mut.Lock()
	logLevel = level
	mut.Unlock()
}

// SetPackageLogLevel sets a log level for a package, overriding the global level.
func SetPackageLogLevel(packageName, levelStr string) {
	level := mustParseLevel(levelStr)
	mut.Lock()
	packageLevels[packageName] = level
	mut.Unlock()
}

// Logger is the logging interface used throughout the module. It is a subset of zap.SugaredLogger.
type Logger interface {
	Debug(args ...any)
	Debugf(template string, args ...any)
	Info(args ...any)
	Infof(template string, args ...any)
	Warn(args ...any)
	Warnf(template string, args ...any)
	Error(args ...any)
	Errorf(template string, args ...any)
}

type wrapper struct {
	inner *zap.SugaredLogger
	level zap.AtomicLevel
	mut   sync.Mutex
}

// updateLevel applies a package level if the caller's file matches one.
// Must be called with wr.mut held, directly from a logging method.
func (wr *wrapper) updateLevel() {
	mut.RLock()
	defer mut.RUnlock()

	if len(packageLevels) < 1 {
		return
	}

	if _, file, _, ok := runtime.Caller(2); ok {
		for k, v := range packageLevels {
			if strings.Contains(file, k) {
				wr.level.SetLevel(v)
				return
			}
		}
	}

	wr.level.SetLevel(logLevel)
}

func (wr *wrapper) Debug(args ...any) {
	wr.mut.Lock()
	defer wr.mut.Unlock()
	wr.updateLevel()
	wr.inner.Debug(args...)
}

func (wr *wrapper) Debugf(template string, args ...any) {
	wr.mut.Lock()
	defer wr.mut.Unlock()
	wr.updateLevel()
	wr.inner.Debugf(template, args...)
}

func (wr *wrapper) Info(args ...any) {
	wr.mut.Lock()
	defer wr.mut.Unlock()
	wr.updateLevel()
	wr.inner.Info(args...)
}

func (wr *wrapper) Infof(template string, args ...any) {
	wr.mut.Lock()
	defer wr.mut.Unlock()
	wr.updateLevel()
	wr.inner.Infof(template, args...)
}

func (wr *wrapper) Warn(args ...any) {
	wr.mut.Lock()
	defer wr.mut.Unlock()
	wr.updateLevel()
	wr.inner.Warn(args...)
}

func (wr *wrapper) Warnf(template string, args ...any) {
	wr.mut.Lock()
	defer wr.mut.Unlock()
	wr.updateLevel()
	wr.inner.Warnf(template, args...)
}

func (wr *wrapper) Error(args ...any) {
	wr.mut.Lock()
	defer wr.mut.Unlock()
	wr.updateLevel()
	wr.inner.Error(args...)
}

func (wr *wrapper) Errorf(template string, args ...any) {
	wr.mut.Lock()
	defer wr.mut.Unlock()
	wr.updateLevel()
	wr.inner.Errorf(template, args...)
}

// New returns a new logger for stderr with the given name.
// Setting BENOR_LOG_TYPE=json selects zap's production (JSON) encoder.
func New(name string) Logger {
	var config zap.Config
	if strings.ToLower(os.Getenv("BENOR_LOG_TYPE")) == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	}
	mut.RLock()
	config.Level.SetLevel(logLevel)
	mut.RUnlock()
	l, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	return &wrapper{inner: l.Sugar().Named(name), level: config.Level}
}

// NewWithDest returns a new logger for the given destination with the given name.
func NewWithDest(dest io.Writer, name string) Logger {
	mut.RLock()
	atom := zap.NewAtomicLevelAt(logLevel)
	mut.RUnlock()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.AddSync(dest), atom)
	l := zap.New(core, zap.AddCallerSkip(1))
	return &wrapper{inner: l.Sugar().Named(name), level: atom}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return &wrapper{inner: zap.NewNop().Sugar(), level: zap.NewAtomicLevel()}
}
