// Package grpc exposes the standard gRPC health service. The
// dropship.Orchestrator service reports SERVING while the workflow
// runners are live and NOT_SERVING otherwise.
package grpc
