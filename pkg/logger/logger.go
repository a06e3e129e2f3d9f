package logger

import (
	"context"
	"os"

	"storefront/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Capture func(attrs ...zap.Field)

type Logger interface {
	Context(ctx context.Context) context.Context
	ContextWithCapture(ctx context.Context, operationName string) (context.Context, Capture)
	WithRequestID(ctx context.Context, requestID string) context.Context
	WithUser(ctx context.Context, userID string) context.Context
	WithSession(ctx context.Context, sessionID string) context.Context
	Named(component string) Logger

	Debug(ctx context.Context, log string, fields ...zapcore.Field)
	Info(ctx context.Context, log string, fields ...zapcore.Field)
	Warn(ctx context.Context, log string, fields ...zapcore.Field)
	Error(ctx context.Context, log string, fields ...zapcore.Field)
}

var Module = fx.Provide(func(cfg config.IConfig) Logger {
	return New(cfg.GetString("log.level"))
})

// New builds a JSON logger on stdout.
func New(level string) Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.FunctionKey = "func"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(os.Stdout),
		getLevel(level),
	)

	return newWithCore(core)
}

func newWithCore(core zapcore.Core) Logger {
	// skip the level method and write so "caller" points at the service
	return &logger{lg: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))}
}

// NewNop returns a logger that drops everything. Used by tests.
func NewNop() Logger {
	return &logger{lg: zap.NewNop()}
}

type logger struct {
	lg *zap.Logger
}

func (l *logger) Named(component string) Logger {
	return &logger{lg: l.lg.Named(component)}
}

func getLevel(level string) zapcore.Level {
	switch level {
	case "info":
		return zapcore.InfoLevel
	case "warning", "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.DebugLevel
	}
}
