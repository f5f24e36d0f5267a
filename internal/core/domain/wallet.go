package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet represents a customer's single-currency store-credit balance.
// At most one wallet exists per (customer_id, currency_code) pair; the
// currency code is immutable after creation. Balance is mutated only through
// the ledger service, never by direct assignment.
type Wallet struct {
	ID           uuid.UUID      `json:"id"`
	CustomerID   string         `json:"customer_id"`
	CurrencyCode string         `json:"currency_code"`
	Balance      decimal.Decimal `json:"balance"`
	Metadata     map[string]any `json:"metadata,omitempty"` // opaque bag, never interpreted by ledger logic
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewWallet creates an empty wallet for a customer.
func NewWallet(customerID, currencyCode string) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		ID:           uuid.New(),
		CustomerID:   customerID,
		CurrencyCode: currencyCode,
		Balance:      decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CanDebit reports whether the wallet holds at least amount.
func (w *Wallet) CanDebit(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}
