package config

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/sop/financialcontrol/appctx"
	"go.opentelemetry.io/otel/trace"
)

var (
	logg *logrus.Logger
)

func GetLogger() *logrus.Logger {
	return logg
}

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetLevel(logrus.InfoLevel)
	logg.SetOutput(os.Stdout)
}

// SetLogLevel applies LOG_LEVEL; unknown values keep the current level.
func SetLogLevel(level string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logg.SetLevel(lvl)
	}
}

func LogError(logger *logrus.Logger, moduleName string, funcName string, context string, data any, err error) {
	if data != nil {
		logger.WithFields(logrus.Fields{
			"module":   moduleName,
			"funcName": funcName,
			"context":  context,
			"data":     data,
		}).Error(err.Error())
	} else {
		logger.WithFields(logrus.Fields{
			"module":   moduleName,
			"funcName": funcName,
			"context":  context,
		}).Error(err.Error())
	}
}

// LoggerFromContext tags entries with the request's correlation id and,
// when a span is active, its trace id.
func LoggerFromContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(logg)
	if cid, ok := appctx.GetString(ctx, appctx.ContextKeyCorrelationId); ok && cid != "" {
		entry = entry.WithField("correlation_id", cid)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		entry = entry.WithField("trace_id", sc.TraceID().String())
	}
	return entry
}
