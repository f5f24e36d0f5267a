package ports

import (
	"context"
	"errors"

	"store-credit-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ErrWalletExists is returned by WalletRepository.Create when the
// (customer_id, currency_code) uniqueness constraint is violated. The ledger
// service treats it as a lost create race and re-fetches.
var ErrWalletExists = errors.New("wallet already exists")

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic
// row locking; UpdateBalance is only ever called with the row lock held.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByCustomer(ctx context.Context, customerID, currencyCode string) (*domain.Wallet, error)
	GetByCustomerForUpdate(ctx context.Context, tx pgx.Tx, customerID, currencyCode string) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, newBalance decimal.Decimal) error
}

// TransactionRepository defines persistence for the append-only ledger.
// There are deliberately no update or delete operations.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, txn *domain.WalletTransaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WalletTransaction, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.WalletTransaction, error)
}

// OutboxRepository defines persistence for the transactional outbox.
type OutboxRepository interface {
	Create(ctx context.Context, tx pgx.Tx, event *domain.OutboxEvent) error
	ListUnpublished(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id uuid.UUID) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// BalanceCache is the Redis-layer read cache for wallet balances.
// All operations are best-effort; callers fall back to the store on error.
type BalanceCache interface {
	Get(ctx context.Context, customerID, currencyCode string) (decimal.Decimal, bool, error)
	Set(ctx context.Context, customerID, currencyCode string, balance decimal.Decimal) error
	Invalidate(ctx context.Context, customerID, currencyCode string) error
}

// EventPublisher delivers outbox events to the event stream.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.OutboxEvent) error
}
