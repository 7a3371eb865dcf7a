package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusPlaced  OrderStatus = "PLACED"
	OrderStatusFailed  OrderStatus = "FAILED"
)

// GiftOrder tracks one point-funded redemption against the fulfillment
// provider. PLACED and FAILED are terminal. Points are debited before the
// provider call and refunded exactly when the order ends FAILED; a FAILED
// order whose refund write also failed carries RefundFailed so operators can
// find wallets needing manual reconciliation.
type GiftOrder struct {
	ID                 int32       `json:"id"`
	TenantID           int32       `json:"tenant_id"`
	EmployeeID         int32       `json:"employee_id"`
	ItemID             int32       `json:"item_id"`
	ExternalProductRef string      `json:"external_product_ref"`
	Quantity           int32       `json:"quantity"`
	UnitPricePoints    int64       `json:"unit_price_points"`
	TotalPoints        int64       `json:"total_points"`
	Status             OrderStatus `json:"status"`
	ExternalOrderID    string      `json:"external_order_id"`
	FailReason         string      `json:"fail_reason,omitempty"`
	RefundFailed       bool        `json:"refund_failed"`
	OrderedOn          time.Time   `json:"ordered_on"`
}
