// Package observability builds the process logger and the Prometheus
// metrics shared by the gateway, the rate limiter and the HTTP layer.
//
// NewLogger is called once at startup; the resulting *zap.Logger is
// injected everywhere. Metrics are registered on an explicit registry so
// tests can use a fresh one.
package observability
