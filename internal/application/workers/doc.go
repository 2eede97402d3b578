// Package workers implements the periodic workflow runner.
//
// Each Runner owns one goroutine that:
//   - Sleeps for the workflow interval (or the penalty after a failed tick)
//   - Consults the policy gate and skips the tick when disabled
//   - Runs the workflow pipeline: fetch candidates, then act on each one
//   - Records metrics, saves its status and publishes tick events
//
// Per-item failures are contained inside the pipeline, tick failures
// inside the runner, and cancellation ends the loop without being
// reported as a failure.
//
// The health monitor tracks runner states and logs metrics.
package workers
