// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"homni_backend/internal/events"
	"homni_backend/platform/config"
	"homni_backend/platform/httpkit"
	"homni_backend/platform/logger"
	"homni_backend/platform/metrics"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP and JWT settings only).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Metrics is the Prometheus registry served on /metrics.
	Metrics *metrics.Metrics
	// Errors counts recent 5xx responses for the health check.
	Errors *httpkit.ErrorTracker
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
