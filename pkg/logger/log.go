package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Loggers — именованные логгеры по областям приложения.
type Loggers struct {
	Main     *zap.Logger
	Auth     *zap.Logger
	Workflow *zap.Logger
	Listing  *zap.Logger
}

func NewLogger(level, file string) *zap.Logger {
	lvl := zap.NewAtomicLevelAt(zap.DebugLevel)
	if l, err := zapcore.ParseLevel(level); err == nil {
		lvl.SetLevel(l)
	}

	outputs := []string{"stdout"}
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err == nil {
			outputs = append(outputs, file)
		}
	}

	dualConfig := zap.Config{
		Encoding:         "console",
		Level:            lvl,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    zap.NewProductionEncoderConfig(),
	}

	dualLogger, err := dualConfig.Build()
	if err != nil {
		panic(err)
	}

	return dualLogger
}

func NewLoggers(base *zap.Logger) *Loggers {
	return &Loggers{
		Main:     base,
		Auth:     base.Named("auth"),
		Workflow: base.Named("workflow"),
		Listing:  base.Named("listing"),
	}
}

// NewNopLoggers — для тестов.
func NewNopLoggers() *Loggers {
	return NewLoggers(zap.NewNop())
}
