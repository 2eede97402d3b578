package domain

import "time"

// EventType identifies what happened
type EventType string

const (
	EventTypeTickCompleted       EventType = "workflow.tick.completed"
	EventTypeTickFailed          EventType = "workflow.tick.failed"
	EventTypeTickSkipped         EventType = "workflow.tick.skipped"
	EventTypeItemCompleted       EventType = "workflow.item.completed"
	EventTypeOrchestratorStarted EventType = "orchestrator.started"
	EventTypeOrchestratorStopped EventType = "orchestrator.stopped"
)

// Topics used on the event bus
const (
	TopicWorkflowEvents     = "workflow.events"
	TopicOrchestratorEvents = "orchestrator.events"
)

// Event is published on the event bus for every tick and lifecycle change
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Workflow  string                 `json:"workflow,omitempty"`
	TickID    string                 `json:"tick_id,omitempty"`
	Outcome   Outcome                `json:"outcome,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}
