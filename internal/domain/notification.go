package domain

import "time"

type NotificationKind string

const (
	NotificationKindPointsReceived NotificationKind = "POINTS_RECEIVED"
	NotificationKindGiftPlaced     NotificationKind = "GIFT_PLACED"
	NotificationKindGiftFailed     NotificationKind = "GIFT_FAILED"
	NotificationKindBillingFailed  NotificationKind = "BILLING_FAILED"
)

// Notification is one row of an employee's in-app feed. Rows are written by
// the event dispatcher after the originating ledger operation committed; a
// subscriber that missed the live push can still read them here.
type Notification struct {
	ID         int64            `json:"id"`
	TenantID   int32            `json:"tenant_id"`
	EmployeeID int32            `json:"employee_id"`
	Kind       NotificationKind `json:"kind"`
	ActorID    *int32           `json:"actor_id,omitempty"`
	Amount     int64            `json:"amount,omitempty"`
	Message    string           `json:"message"`
	IsRead     bool             `json:"is_read"`
	CreatedOn  time.Time        `json:"created_on"`
}
