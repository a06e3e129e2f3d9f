package logger

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	logIDKey     = "logID"
	durationKey  = "duration"
	requestKey   = "request"
	userKey      = "user_id"
	sessionKey   = "session_id"
	operationKey = "operation"
)

type logCtxKey struct{}

var logCtx logCtxKey

// LogID ties together every line written while serving one request.
type LogID [8]byte

func (lid LogID) String() string {
	return hex.EncodeToString(lid[:])
}

// newLogID takes the leading bytes of a v4 uuid; the version nibble keeps it
// non-zero.
func newLogID() LogID {
	var id LogID
	u := uuid.New()
	copy(id[:], u[:len(id)])
	return id
}

// logContext is immutable once stored; every With* call stores a copy.
type logContext struct {
	StartTime     time.Time
	LogID         LogID
	RequestID     string
	UserID        string
	SessionID     string
	OperationName string
}

func (lgCtx *logContext) ToFields() []zap.Field {
	if lgCtx == nil {
		return nil
	}

	attrs := make([]zap.Field, 0, 5)
	attrs = append(attrs, zap.String(logIDKey, lgCtx.LogID.String()))

	if lgCtx.RequestID != "" {
		attrs = append(attrs, zap.String(requestKey, lgCtx.RequestID))
	}
	if lgCtx.UserID != "" {
		attrs = append(attrs, zap.String(userKey, lgCtx.UserID))
	}
	if lgCtx.SessionID != "" {
		attrs = append(attrs, zap.String(sessionKey, lgCtx.SessionID))
	}
	if lgCtx.OperationName != "" {
		attrs = append(attrs, zap.String(operationKey, lgCtx.OperationName))
	}
	return attrs
}

func fromContext(ctx context.Context) (*logContext, bool) {
	if ctx == nil {
		return nil, false
	}
	lgCtx, ok := ctx.Value(&logCtx).(*logContext)
	return lgCtx, ok
}

// derive stores a modified copy of the current log context, starting a new
// one when ctx has none.
func derive(ctx context.Context, mutate func(*logContext)) context.Context {
	next := logContext{LogID: newLogID(), StartTime: time.Now()}
	if cur, ok := fromContext(ctx); ok {
		next = *cur
	}
	mutate(&next)
	return context.WithValue(ctx, &logCtx, &next)
}

func getAttrs(ctx context.Context) []zap.Field {
	lgCtx, _ := fromContext(ctx)
	return lgCtx.ToFields()
}
