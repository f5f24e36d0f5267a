package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType carries the direction of a ledger entry. Amounts are always
// positive; direction lives here, never in the sign.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT"
	TransactionTypeDebit  TransactionType = "DEBIT"
)

// WalletTransaction is an immutable, append-only ledger entry. The
// balance_before/balance_after snapshot is captured at write time and used
// for reconciliation and audit; it is never recomputed.
type WalletTransaction struct {
	ID            uuid.UUID       `json:"id"`
	WalletID      uuid.UUID       `json:"wallet_id"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	ReferenceID   *string         `json:"reference_id,omitempty"` // external correlation id (order/cart id), advisory only
	Description   *string         `json:"description,omitempty"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Signed returns the amount with the direction applied: positive for credits,
// negative for debits. A wallet's balance always equals the sum of Signed()
// over its full history.
func (t *WalletTransaction) Signed() decimal.Decimal {
	if t.Type == TransactionTypeDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// IsConsistent reports whether the snapshot matches the amount and direction.
func (t *WalletTransaction) IsConsistent() bool {
	return t.BalanceBefore.Add(t.Signed()).Equal(t.BalanceAfter)
}
