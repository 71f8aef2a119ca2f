// Package tracing integrates OpenTelemetry with the machine runtime to record
// spans for machine start, event delivery and stop. Spans are no-ops until
// Init or InitWithExporter installs a provider.
package tracing
