package appctx

import (
	"context"
	"time"
)

// ContextKey is the shared type for all context keys in this codebase.
// Keeping it in a tiny package avoids import cycles (config <-> utils).
type ContextKey string

func (c ContextKey) String() string { return string(c) }

var (
	ContextKeyCorrelationId = ContextKey("CorrelationId")
	ContextKeyRequestPath   = ContextKey("RequestPath")

	// ContextKeyClock holds a func() time.Time used for "current year" checks.
	ContextKeyClock = ContextKey("Clock")
)

func GetString(ctx context.Context, key ContextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok
}

func GetClock(ctx context.Context, key ContextKey) (func() time.Time, bool) {
	v, ok := ctx.Value(key).(func() time.Time)
	return v, ok && v != nil
}

func Set(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}
