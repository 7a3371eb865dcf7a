package events

import "time"

type Kind string

const (
	KindPointsReceived Kind = "points_received"
	KindGiftPlaced     Kind = "gift_placed"
	KindGiftFailed     Kind = "gift_failed"
	KindBillingFailed  Kind = "billing_failed"
)

// Event describes one committed ledger operation. Events are published only
// after the operation durably committed and are delivered best-effort; no
// sink failure ever unwinds the operation that produced the event.
type Event struct {
	Kind       Kind      `json:"kind"`
	TenantID   int32     `json:"tenant_id"`
	ActorID    *int32    `json:"actor_id,omitempty"`
	SubjectID  int32     `json:"subject_id"`
	Amount     int64     `json:"amount,omitempty"`
	Message    string    `json:"message,omitempty"`
	OccurredOn time.Time `json:"occurred_on"`
}

// Sink receives dispatched events. Delivery is at-most-once per sink.
type Sink interface {
	Deliver(event Event)
}
