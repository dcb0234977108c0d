// Package gologger bridges the gateway's glog-based logging onto the go-job
// logger contracts so the queue worker that processes webhook jobs reports
// through the same sink as the gateway itself.
package gologger

import (
	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

// DefaultWorkerName is the logger name webhook queue workers resolve under
// when the caller does not supply one.
const DefaultWorkerName = "gateway-webhook-worker"

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	if name == "" {
		name = DefaultWorkerName
	}
	return glog.Resolve(name, provider, logger)
}

// ToJobProvider maps a glog provider to the go-job logger provider contract.
func ToJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

// ToJobLogger maps a glog logger to the go-job logger contract.
func ToJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}

// WorkerLogging resolves the gateway's logger pair and returns the go-job
// equivalents in one call. Runner wiring for the webhook-processing worker
// passes the job pair to the queue runtime and keeps the glog pair for its
// own messages.
func WorkerLogging(
	name string,
	provider glog.LoggerProvider,
	logger glog.Logger,
) (glog.LoggerProvider, glog.Logger, job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve(name, provider, logger)
	return resolvedProvider, resolvedLogger, ToJobProvider(resolvedProvider), ToJobLogger(resolvedLogger)
}
