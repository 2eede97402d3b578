// Package http provides the HTTP control surface of the orchestrator.
//
// The HTTP server exposes endpoints for:
//   - Starting and stopping the automation runners
//   - Orchestrator and per-workflow status
//   - Reading and overriding the policy
//   - Health checks
//   - Prometheus metrics
package http
