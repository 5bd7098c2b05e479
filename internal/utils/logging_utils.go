package utils

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

func GenerateTraceId() string {
	return uuid.New().String()
}

func logEntry(entry *log.Entry, level, message string) {
	switch level {
	case "debug":
		entry.Debug(message)
	case "info":
		entry.Info(message)
	case "warn":
		entry.Warn(message)
	case "error":
		entry.Error(message)
	case "fatal":
		entry.Fatal(message)
	default:
		entry.Info(message)
	}
}

// LogMessage logs a message without request context.
func LogMessage(level, message string) {
	logEntry(log.WithFields(log.Fields{"service": "tfc-server"}), level, message)
}

// LogMessageWithFields logs a message enriched with the trace ID of the
// current request, if one was injected by the middleware.
func LogMessageWithFields(ctx context.Context, level, message string) {
	fields := log.Fields{"service": "tfc-server"}
	if traceId, ok := ctx.Value(TraceIdKey.String()).(string); ok {
		fields["traceId"] = traceId
	}
	logEntry(log.WithFields(fields), level, message)
}

// LogMessageWithFieldsAndError logs a message with trace context and the
// underlying error. The error only ever reaches the log, not the client.
func LogMessageWithFieldsAndError(ctx context.Context, level, message string, err error) {
	LogMessageWithFields(ctx, level, message+": "+err.Error())
}
