package utils

import (
	"context"
	"time"

	"github.com/sop/financialcontrol/appctx"
)

var (
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyRequestPath   = appctx.ContextKeyRequestPath
	ContextKeyClock         = appctx.ContextKeyClock
)

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func GetRequestPathFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyRequestPath)
}

func SetRequestPathInContext(ctx context.Context, path string) context.Context {
	return appctx.Set(ctx, ContextKeyRequestPath, path)
}

// SetClockInContext overrides the time source used by the models layer.
func SetClockInContext(ctx context.Context, clock func() time.Time) context.Context {
	return appctx.Set(ctx, ContextKeyClock, clock)
}

// NowFromContext returns the current time of the request's clock,
// falling back to UTC wall-clock time when none was set.
func NowFromContext(ctx context.Context) time.Time {
	if clock, ok := appctx.GetClock(ctx, ContextKeyClock); ok {
		return clock()
	}
	return time.Now().UTC()
}
