// Package logging builds the process logger.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger that writes INFO and WARN to stdout and ERROR and
// above to stderr. When logPath is set every entry is also appended to
// that file. The returned cleanup flushes the logger and closes the file.
func New(logPath string, debug bool) (*zap.Logger, func(), error) {
	minLevel := zapcore.InfoLevel
	if debug {
		minLevel = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	console := zapcore.NewConsoleEncoder(encCfg)

	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= minLevel && l < zapcore.ErrorLevel })
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= zapcore.ErrorLevel })

	cores := []zapcore.Core{
		zapcore.NewCore(console, zapcore.Lock(os.Stdout), low),
		zapcore.NewCore(console, zapcore.Lock(os.Stderr), high),
	}

	var file *os.File
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		file = f
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), minLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	cleanup := func() {
		_ = logger.Sync()
		if file != nil {
			file.Close()
		}
	}
	return logger, cleanup, nil
}
