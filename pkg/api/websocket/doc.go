// Package websocket provides real-time event streaming via WebSocket.
//
// Clients connect to /api/v1/events/ws to receive workflow tick, item and
// orchestrator lifecycle events as JSON text frames. The optional
// workflow query parameter narrows the stream to one workflow.
package websocket
