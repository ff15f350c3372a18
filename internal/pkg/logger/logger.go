package logger

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// AddFields attaches fields to the context logger and returns the new context.
func AddFields(ctx context.Context, fields ...zap.Field) context.Context {
	log := ctxzap.Extract(ctx)
	return ctxzap.ToContext(ctx, log.With(fields...))
}

// WithAction tags the context logger with the current operation name.
func WithAction(ctx context.Context, action string) context.Context {
	return AddFields(ctx, zap.String("action", action))
}
