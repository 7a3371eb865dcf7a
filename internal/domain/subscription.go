package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// SubscriptionPayment records one recurring-charge attempt. OrderID is
// deterministic per (tenant, billing period) and unique, which is what makes
// re-running the billing job for an already settled period a no-op.
type SubscriptionPayment struct {
	ID                int32           `json:"id"`
	TenantID          int32           `json:"tenant_id"`
	OrderID           string          `json:"order_id"`
	Amount            decimal.Decimal `json:"amount"`
	Status            PaymentStatus   `json:"status"`
	ProviderChargeRef string          `json:"provider_charge_ref,omitempty"`
	FailCode          string          `json:"fail_code,omitempty"`
	FailMessage       string          `json:"fail_message,omitempty"`
	PeriodStart       time.Time       `json:"period_start"`
	PeriodEnd         time.Time       `json:"period_end"`
	RequestedOn       time.Time       `json:"requested_on"`
	ApprovedOn        *time.Time      `json:"approved_on,omitempty"`
}
