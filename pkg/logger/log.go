package logger

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func (l *logger) Context(ctx context.Context) context.Context {
	if _, ok := fromContext(ctx); ok {
		return ctx
	}
	return derive(ctx, func(*logContext) {})
}

// WithRequestID attaches an upstream request id to the log context so every
// line written for this request carries it.
func (l *logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return derive(ctx, func(lc *logContext) { lc.RequestID = requestID })
}

func (l *logger) WithUser(ctx context.Context, userID string) context.Context {
	return derive(ctx, func(lc *logContext) { lc.UserID = userID })
}

func (l *logger) WithSession(ctx context.Context, sessionID string) context.Context {
	return derive(ctx, func(lc *logContext) { lc.SessionID = sessionID })
}

// ContextWithCapture names the operation and returns a Capture that logs its
// duration together with the given attrs.
func (l *logger) ContextWithCapture(ctx context.Context, operationName string) (context.Context, Capture) {
	start := time.Now()
	ctx = derive(ctx, func(lc *logContext) {
		lc.OperationName = operationName
		lc.StartTime = start
	})

	return ctx, func(attrs ...zap.Field) {
		attrs = append(attrs, zap.String(durationKey, time.Since(start).String()))
		l.write(ctx, zapcore.InfoLevel, operationName, attrs)
	}
}

func (l *logger) Debug(ctx context.Context, log string, fields ...zapcore.Field) {
	l.write(ctx, zapcore.DebugLevel, log, fields)
}

func (l *logger) Info(ctx context.Context, log string, fields ...zapcore.Field) {
	l.write(ctx, zapcore.InfoLevel, log, fields)
}

func (l *logger) Warn(ctx context.Context, log string, fields ...zapcore.Field) {
	l.write(ctx, zapcore.WarnLevel, log, fields)
}

func (l *logger) Error(ctx context.Context, log string, fields ...zapcore.Field) {
	l.write(ctx, zapcore.ErrorLevel, log, fields)
}

func (l *logger) write(ctx context.Context, level zapcore.Level, log string, fields []zapcore.Field) {
	ce := l.lg.Check(level, log)
	if ce == nil {
		return
	}
	ce.Write(append(fields, getAttrs(ctx)...)...)
}
