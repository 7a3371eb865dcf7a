package domain

import "time"

// Wallet is the per-employee point balance. GiftableBalance is the subset of
// Balance spendable on peer awards; it never exceeds Balance and both stay
// non-negative. Wallets are mutated only under the wallet repository's row
// lock.
type Wallet struct {
	EmployeeID      int32     `json:"employee_id"`
	TenantID        int32     `json:"tenant_id"`
	Balance         int64     `json:"balance"`
	GiftableBalance int64     `json:"giftable_balance"`
	UpdatedOn       time.Time `json:"updated_on"`
}

// Debit removes amount from the balance and clamps the giftable subset down
// to the new balance. The balance is never clamped: an overdraw is an error.
func (w *Wallet) Debit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if w.Balance < amount {
		return ErrInsufficientPoints
	}
	w.Balance -= amount
	if w.GiftableBalance > w.Balance {
		w.GiftableBalance = w.Balance
	}
	return nil
}

// DebitGiftable removes amount from both the balance and the giftable
// subset. Used by peer awards, which spend only the giftable allowance.
func (w *Wallet) DebitGiftable(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if w.Balance < amount || w.GiftableBalance < amount {
		return ErrInsufficientPoints
	}
	w.Balance -= amount
	w.GiftableBalance -= amount
	return nil
}

// Credit adds amount to the balance. Received points are redeemable, not
// re-giftable, so the giftable subset is untouched.
func (w *Wallet) Credit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	w.Balance += amount
	return nil
}

// CreditGiftable adds amount to both the balance and the giftable subset.
// Used by the monthly allowance grant.
func (w *Wallet) CreditGiftable(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	w.Balance += amount
	w.GiftableBalance += amount
	return nil
}
