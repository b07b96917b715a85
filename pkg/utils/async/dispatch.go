package async

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
)

// Dispatch runs a handler in the background with panic recovery. The
// caller's context may be canceled as soon as its request finishes, so
// the handler receives a fresh context that keeps the logger.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := detach(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ctxlog.From(bgCtx).Error("panic in background handler",
					"recover", r,
					"stack", string(debug.Stack()),
				)
			}
		}()

		if err := handler(bgCtx); err != nil {
			ctxlog.From(bgCtx).Error("background handler failed",
				"error", err,
			)
		}
	}()
}

// detach builds a fresh background context carrying over the logger
func detach(ctx context.Context) context.Context {
	bgCtx := context.Background()
	if logger := ctxlog.From(ctx); logger != nil {
		bgCtx = ctxlog.With(bgCtx, logger)
	}
	return bgCtx
}
