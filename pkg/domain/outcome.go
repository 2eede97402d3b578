package domain

import "time"

// Outcome tags every tick and item log line
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeError           Outcome = "error"
	OutcomeDisabled        Outcome = "disabled"
	OutcomeAlreadyAnswered Outcome = "already_answered"
	OutcomePartial         Outcome = "partial"
	OutcomeCancelled       Outcome = "cancelled"
)

// Succeeded reports whether the outcome counts as a success for
// bookkeeping. An already answered message is not a failure.
func (o Outcome) Succeeded() bool {
	return o == OutcomeSuccess || o == OutcomeAlreadyAnswered
}

// FulfillmentResult is returned by the supplier when fulfilling an order
type FulfillmentResult struct {
	Status         Outcome `json:"status"`
	OrderID        string  `json:"order_id,omitempty"`
	TrackingNumber string  `json:"tracking_number,omitempty"`
	TrackingURL    string  `json:"tracking_url,omitempty"`
	Message        string  `json:"message,omitempty"`
}

// MessageResult is returned by the message agent after handling a message
type MessageResult struct {
	Status    Outcome `json:"status"`
	MessageID string  `json:"message_id,omitempty"`
	Response  string  `json:"response,omitempty"`
	Message   string  `json:"message,omitempty"`
}

// WorkflowStatus is the last known state of a workflow runner. It is an
// observability snapshot and is never read back to resume work.
type WorkflowStatus struct {
	Workflow       string     `json:"workflow"`
	State          string     `json:"state"`
	LastTickID     string     `json:"last_tick_id,omitempty"`
	LastTickAt     *time.Time `json:"last_tick_at,omitempty"`
	LastOutcome    Outcome    `json:"last_outcome,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
	Ticks          int64      `json:"ticks"`
	ItemsSucceeded int64      `json:"items_succeeded"`
	ItemsFailed    int64      `json:"items_failed"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
