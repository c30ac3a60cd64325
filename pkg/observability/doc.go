// Package observability turns engine lifecycle hooks into logs, Prometheus
// metrics and OpenTelemetry traces. Combine them with domain.ComposeHooks.
package observability
