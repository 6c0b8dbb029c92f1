// Package logger wraps zap with named per-component agents.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.RWMutex
	root = zap.NewNop()
)

// Init replaces the process logger. Level is one of debug, info, warn, error;
// json selects the production encoder, otherwise a console encoder is used.
func Init(level string, json bool) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewDevelopmentConfig()
	if json {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	root = l
	mu.Unlock()
	return nil
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}

// LogAgent logs on behalf of one component. It resolves the process logger on
// every call so package level agents pick up Init done later in main.
type LogAgent struct {
	name string
}

// NewLogAgent returns an agent that tags every entry with the component name.
func NewLogAgent(name string) *LogAgent {
	return &LogAgent{name: name}
}

func (a *LogAgent) logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root.Named(a.name)
}

func (a *LogAgent) Debug(msg string, fields ...zap.Field) {
	a.logger().Debug(msg, fields...)
}

func (a *LogAgent) Info(msg string, fields ...zap.Field) {
	a.logger().Info(msg, fields...)
}

func (a *LogAgent) Warn(msg string, fields ...zap.Field) {
	a.logger().Warn(msg, fields...)
}

func (a *LogAgent) Error(msg string, fields ...zap.Field) {
	a.logger().Error(msg, fields...)
}
