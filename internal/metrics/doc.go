// Package metrics declares all Prometheus metrics for the organizer and
// provides the optional metrics/health HTTP server.
//
// Metrics are registered with promauto at package init. InitializeMetrics
// pre-populates label combinations so every series is present from the
// first scrape.
package metrics
