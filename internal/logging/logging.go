// Package logging builds the process logger.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a logger writing console output to stderr at the given level,
// plus a JSON sink appended to file when file is non-empty. The returned
// flush func syncs and closes the sinks; call it before process exit.
func New(level, file string) (*zap.Logger, func(), error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	consoleEnc := zap.NewDevelopmentEncoderConfig()
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEnc), zapcore.Lock(os.Stderr), lvl),
	}

	var closeFile func()
	if file != "" {
		f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(f),
			lvl,
		))
		closeFile = func() { _ = f.Close() }
	}

	logger := zap.New(zapcore.NewTee(cores...))
	flush := func() {
		_ = logger.Sync()
		if closeFile != nil {
			closeFile()
		}
	}
	return logger, flush, nil
}
