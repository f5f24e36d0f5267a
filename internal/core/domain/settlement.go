package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementQuote is the wallet-vs-secondary split for a cart total at the
// moment of computation. It is a pure read; the balance can change before
// settlement, so quotes are always recomputed at settle time.
type SettlementQuote struct {
	CartTotal        decimal.Decimal `json:"cart_total"`
	WalletPortion    decimal.Decimal `json:"wallet_portion"`
	RemainderPortion decimal.Decimal `json:"remainder_portion"`
}

// FullyCovered reports whether the wallet covers the entire cart total,
// meaning no secondary payment session is required.
func (q *SettlementQuote) FullyCovered() bool {
	return q.RemainderPortion.IsZero()
}

// NewSettlementQuote splits cartTotal between the available wallet balance
// and the remainder owed to a secondary payment method.
func NewSettlementQuote(balance, cartTotal decimal.Decimal) *SettlementQuote {
	walletPortion := decimal.Min(balance, cartTotal)
	if walletPortion.IsNegative() {
		walletPortion = decimal.Zero
	}
	return &SettlementQuote{
		CartTotal:        cartTotal,
		WalletPortion:    walletPortion,
		RemainderPortion: cartTotal.Sub(walletPortion),
	}
}

// SettlementResult records the executed split for a cart. TransactionID is
// set when a wallet debit was applied; nil means the wallet contributed
// nothing and the full total is owed to the secondary method.
type SettlementResult struct {
	CartID           string          `json:"cart_id"`
	CartTotal        decimal.Decimal `json:"cart_total"`
	WalletPortion    decimal.Decimal `json:"wallet_portion"`
	RemainderPortion decimal.Decimal `json:"remainder_portion"`
	TransactionID    *uuid.UUID      `json:"transaction_id,omitempty"`
	WalletBalance    decimal.Decimal `json:"wallet_balance"` // balance after settlement
}

// FullyCovered reports whether the order is fully paid by wallet funds.
func (r *SettlementResult) FullyCovered() bool {
	return r.RemainderPortion.IsZero()
}
