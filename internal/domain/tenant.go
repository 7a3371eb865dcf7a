package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BillingStatus string

const (
	BillingStatusNone   BillingStatus = "NONE"   // no recurring-charge token registered
	BillingStatusActive BillingStatus = "ACTIVE"
	BillingStatusFailed BillingStatus = "FAILED"
)

type Tenant struct {
	ID                    int32           `json:"id"`
	Name                  string          `json:"name"`
	AdminEmail            string          `json:"admin_email"`
	AutoRenew             bool            `json:"auto_renew"`
	BillingToken          string          `json:"-"` // recurring-charge token held at the billing provider
	BillingStatus         BillingStatus   `json:"billing_status"`
	MonthlyPrice          decimal.Decimal `json:"monthly_price"`
	SubscriptionExpiresAt *time.Time      `json:"subscription_expires_at,omitempty"`
	CreatedOn             time.Time       `json:"created_on"`
}

// SubscriptionCurrent reports whether the tenant's paid term covers the
// given instant. A tenant with no expiry on record has never been billed.
func (t *Tenant) SubscriptionCurrent(now time.Time) bool {
	return t.SubscriptionExpiresAt != nil && t.SubscriptionExpiresAt.After(now)
}
