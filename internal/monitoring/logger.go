package monitoring

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logf is the package-level diagnostic logger. It defaults to an info-level
// zap console logger but may be replaced by SetLogger. Tests or production
// code can redirect or mute it.
var Logf func(format string, v ...interface{}) = base().Infof

// Warnf reports advisory conditions such as degenerate symmetry operations.
var Warnf func(format string, v ...interface{}) = base().Warnf

// Debugf is muted unless Configure is called with level "debug".
var Debugf func(format string, v ...interface{}) = base().Debugf

var (
	mu      sync.Mutex
	current *zap.Logger
)

func base() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		z, err := build("info", "console")
		if err != nil {
			z = zap.NewNop()
		}
		current = z
	}
	return current.Sugar()
}

// SetLogger replaces the info logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetWarnLogger replaces the warning logger. Passing nil mutes warnings.
func SetWarnLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Warnf = func(string, ...interface{}) {}
		return
	}
	Warnf = f
}

// Configure rebuilds the zap backend with the given level ("debug", "info",
// "warn", "error") and format ("console" or "json") and points Logf, Warnf
// and Debugf at it.
func Configure(level, format string) error {
	z, err := build(level, format)
	if err != nil {
		return err
	}
	mu.Lock()
	prev := current
	current = z
	mu.Unlock()
	if prev != nil {
		_ = prev.Sync()
	}

	s := z.Sugar()
	Logf = s.Infof
	Warnf = s.Warnf
	Debugf = s.Debugf
	return nil
}

// Sync flushes any buffered log entries.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	if current != nil {
		_ = current.Sync()
	}
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

func build(level, format string) (*zap.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	var encCfg zapcore.EncoderConfig
	encoding := "console"
	switch strings.ToLower(format) {
	case "json":
		encCfg = zap.NewProductionEncoderConfig()
		encoding = "json"
	case "", "console":
		encCfg = zap.NewDevelopmentEncoderConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(lvl),
		Encoding:          encoding,
		EncoderConfig:     encCfg,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}
	return cfg.Build()
}
