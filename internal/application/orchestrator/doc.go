// Package orchestrator owns the lifecycle of the workflow runners.
//
// The manager coordinates the automation by:
//   - Validating the workflow specs once at construction
//   - Launching one runner goroutine per workflow on Initialize
//   - Cancelling every runner and waiting, bounded, on Shutdown
//   - Publishing lifecycle events and driving the health monitor
//
// The manager can be restarted after a shutdown; every start builds
// fresh runners.
package orchestrator
