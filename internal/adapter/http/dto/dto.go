package dto

import "github.com/shopspring/decimal"

// CreditRequest is the request body for crediting a wallet.
type CreditRequest struct {
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	CurrencyCode string          `json:"currency_code,omitempty" binding:"omitempty,len=3"`
	ReferenceID  *string         `json:"reference_id,omitempty" binding:"omitempty,max=100"`
	Description  *string         `json:"description,omitempty" binding:"omitempty,max=255"`
}

// DebitRequest is the request body for debiting a wallet.
type DebitRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	ReferenceID *string         `json:"reference_id,omitempty" binding:"omitempty,max=100"`
	Description *string         `json:"description,omitempty" binding:"omitempty,max=255"`
}

// QuoteRequest is the request body for a settlement quote.
type QuoteRequest struct {
	CartTotal decimal.Decimal `json:"cart_total" binding:"required"`
}

// SettleRequest is the request body for executing a settlement.
type SettleRequest struct {
	CartID    string          `json:"cart_id" binding:"required,max=100"`
	CartTotal decimal.Decimal `json:"cart_total" binding:"required"`
}

// BalanceResponse is the response for a balance query.
type BalanceResponse struct {
	CustomerID string `json:"customer_id"`
	Balance    string `json:"balance"`
	Currency   string `json:"currency"`
}

// TransactionResponse is one ledger entry in API responses.
type TransactionResponse struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	Amount        string  `json:"amount"`
	BalanceBefore string  `json:"balance_before"`
	BalanceAfter  string  `json:"balance_after"`
	ReferenceID   *string `json:"reference_id,omitempty"`
	Description   *string `json:"description,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// MutationResponse is the response for a successful credit or debit.
type MutationResponse struct {
	WalletID    string              `json:"wallet_id"`
	CustomerID  string              `json:"customer_id"`
	Currency    string              `json:"currency"`
	Balance     string              `json:"balance"`
	Transaction TransactionResponse `json:"transaction"`
}

// QuoteResponse is the response for a settlement quote.
type QuoteResponse struct {
	CartTotal        string `json:"cart_total"`
	WalletPortion    string `json:"wallet_portion"`
	RemainderPortion string `json:"remainder_portion"`
	FullyCovered     bool   `json:"fully_covered"`
}

// SettlementResponse is the response for an executed settlement.
type SettlementResponse struct {
	CartID           string  `json:"cart_id"`
	CartTotal        string  `json:"cart_total"`
	WalletPortion    string  `json:"wallet_portion"`
	RemainderPortion string  `json:"remainder_portion"`
	FullyCovered     bool    `json:"fully_covered"`
	TransactionID    *string `json:"transaction_id,omitempty"`
	WalletBalance    string  `json:"wallet_balance"`
}
