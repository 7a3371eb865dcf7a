package domain

import "time"

type TransactionType string

const (
	TransactionTypePeerAward       TransactionType = "PEER_AWARD"
	TransactionTypeAdminAdjustment TransactionType = "ADMIN_ADJUSTMENT"
	TransactionTypeAutomatedAward  TransactionType = "AUTOMATED_AWARD"
	TransactionTypeItemRedemption  TransactionType = "ITEM_REDEMPTION"
	TransactionTypePointExpiry     TransactionType = "POINT_EXPIRY"
)

// Transaction is one immutable ledger entry. Amount is always positive;
// direction is carried by the nullable sender/receiver pair. A nil SenderID
// means the points were system- or admin-originated; a nil ReceiverID means
// the points left the economy (redemption, clawback, expiry).
type Transaction struct {
	ID         int64           `json:"id"`
	TenantID   int32           `json:"tenant_id"`
	SenderID   *int32          `json:"sender_id,omitempty"`
	ReceiverID *int32          `json:"receiver_id,omitempty"`
	Amount     int64           `json:"amount"`
	Type       TransactionType `json:"type"`
	Message    string          `json:"message"`
	Tags       []string        `json:"tags,omitempty"`
	OccurredOn time.Time       `json:"occurred_on"`
}

// MaxTransactionTags bounds the tag list on a single ledger entry.
const MaxTransactionTags = 3

type LedgerSummary struct {
	Balance         int64 `json:"balance"`
	GiftableBalance int64 `json:"giftable_balance"`
	SentCount       int32 `json:"sent_count"`
	ReceivedCount   int32 `json:"received_count"`
}
