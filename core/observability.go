package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// observeOperation is the single funnel for operation telemetry: one log
// line, one counter, one duration sample per gateway operation, with secrets
// redacted before anything leaves the process.
func (g *Gateway) observeOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if g == nil {
		return
	}
	operation = strings.TrimSpace(strings.ToLower(operation))
	if operation == "" {
		operation = "unknown"
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	elapsed := time.Since(startedAt)

	contextFields := RedactSensitiveMap(fields)
	contextFields["event_type"] = operation
	contextFields["status"] = status
	contextFields["duration_ms"] = elapsed.Milliseconds()
	if err != nil {
		contextFields["error"] = err.Error()
	}

	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	for _, key := range []string{"platform", "source_domain", "organization_id"} {
		value := strings.TrimSpace(fmt.Sprint(contextFields[key]))
		if value != "" && value != "<nil>" {
			tags[key] = value
		}
	}

	if g.metricsRecorder != nil {
		g.metricsRecorder.IncCounter(ctx, "gateway."+operation+".total", 1, cloneTags(tags))
		g.metricsRecorder.ObserveHistogram(ctx, "gateway."+operation+".duration_ms", float64(elapsed.Milliseconds()), cloneTags(tags))
	}

	if err != nil {
		g.log(ctx, true, operation+" failed", contextFields)
		return
	}
	g.log(ctx, false, operation+" succeeded", contextFields)
}

func (g *Gateway) log(ctx context.Context, isError bool, message string, fields map[string]any) {
	if g == nil || g.logger == nil {
		return
	}
	logger := g.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		for key, value := range fields {
			copied[key] = value
		}
		logger = fieldsLogger.WithFields(copied)
	}
	args := sortedFieldArgs(fields)
	if isError {
		logger.Error(message, args...)
		return
	}
	logger.Info(message, args...)
}

// sortedFieldArgs flattens fields into key/value pairs in stable order so
// repeated runs produce comparable log lines.
func sortedFieldArgs(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}
