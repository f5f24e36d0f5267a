package ports

import (
	"context"

	"store-credit-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// LedgerService is the balance/credit/debit state machine over the wallet
// store. It is the only component allowed to mutate a wallet's balance, and
// every mutation appends exactly one transaction record in the same atomic
// step.
type LedgerService interface {
	// GetOrCreate looks a wallet up, creating it lazily with balance 0 on
	// first use. Empty currencyCode selects the configured default. Idempotent.
	GetOrCreate(ctx context.Context, customerID, currencyCode string) (*domain.Wallet, error)
	Credit(ctx context.Context, params CreditParams) (*MutationResult, error)
	Debit(ctx context.Context, params DebitParams) (*MutationResult, error)
	// Balance returns the available balance, zero when no wallet exists.
	// Read-only convenience; never creates a wallet.
	Balance(ctx context.Context, customerID string) (decimal.Decimal, error)
	// History returns up to limit transactions, newest first. limit <= 0
	// selects the configured default.
	History(ctx context.Context, customerID string, limit int) ([]domain.WalletTransaction, error)
}

// CreditParams holds validated input for a wallet credit (signup bonus,
// referral reward, refund issuance).
type CreditParams struct {
	CustomerID   string
	Amount       decimal.Decimal
	CurrencyCode string // empty = default currency
	ReferenceID  *string
	Description  *string
}

// DebitParams holds validated input for a wallet debit.
type DebitParams struct {
	CustomerID  string
	Amount      decimal.Decimal
	ReferenceID *string
	Description *string
}

// MutationResult reports a committed credit or debit.
type MutationResult struct {
	Wallet          *domain.Wallet
	Transaction     *domain.WalletTransaction
	PreviousBalance decimal.Decimal
	NewBalance      decimal.Decimal
}

// SettlementService decides the wallet-vs-secondary split for a cart and
// executes it at order confirmation.
type SettlementService interface {
	// Quote computes the current split without mutating anything. Quotes are
	// advisory: the balance can change before settlement, so Settle always
	// recomputes.
	Quote(ctx context.Context, customerID string, cartTotal decimal.Decimal) (*domain.SettlementQuote, error)
	// Settle re-quotes and debits the wallet portion with the cart id as
	// reference. The caller must invoke it at most once per cartID; the ledger
	// does not deduplicate by reference id. If the balance dropped since the
	// quote, settlement falls back to a zero wallet portion rather than
	// failing the checkout.
	Settle(ctx context.Context, customerID, cartID string, cartTotal decimal.Decimal) (*domain.SettlementResult, error)
}
