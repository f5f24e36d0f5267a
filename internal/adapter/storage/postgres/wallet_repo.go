package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"store-credit-ledger/internal/core/domain"
	"store-credit-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const uniqueViolationCode = "23505"

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet. The unique index on (customer_id,
// currency_code) enforces the at-most-one-wallet invariant; violations map to
// ports.ErrWalletExists so the service can resolve create races.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	metadata, err := marshalMetadata(w.Metadata)
	if err != nil {
		return fmt.Errorf("marshal wallet metadata: %w", err)
	}

	query := `INSERT INTO wallets (id, customer_id, currency_code, balance, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.pool.Exec(ctx, query,
		w.ID, w.CustomerID, w.CurrencyCode, w.Balance,
		metadata, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ports.ErrWalletExists
		}
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByID fetches a wallet by its UUID (without locking).
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT id, customer_id, currency_code, balance, metadata, created_at, updated_at
		FROM wallets WHERE id = $1`

	return scanWallet(r.pool.QueryRow(ctx, query, id))
}

// GetByCustomer fetches a wallet by customer and currency (non-locking read).
func (r *WalletRepo) GetByCustomer(ctx context.Context, customerID, currencyCode string) (*domain.Wallet, error) {
	query := `SELECT id, customer_id, currency_code, balance, metadata, created_at, updated_at
		FROM wallets WHERE customer_id = $1 AND currency_code = $2`

	return scanWallet(r.pool.QueryRow(ctx, query, customerID, currencyCode))
}

// GetByCustomerForUpdate fetches a wallet by customer and currency with
// pessimistic row locking. This MUST be called within a transaction.
func (r *WalletRepo) GetByCustomerForUpdate(ctx context.Context, tx pgx.Tx, customerID, currencyCode string) (*domain.Wallet, error) {
	query := `SELECT id, customer_id, currency_code, balance, metadata, created_at, updated_at
		FROM wallets WHERE customer_id = $1 AND currency_code = $2 FOR UPDATE`

	return scanWallet(tx.QueryRow(ctx, query, customerID, currencyCode))
}

// GetByIDForUpdate fetches a wallet by ID with pessimistic row locking.
// This MUST be called within a transaction.
func (r *WalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT id, customer_id, currency_code, balance, metadata, created_at, updated_at
		FROM wallets WHERE id = $1 FOR UPDATE`

	return scanWallet(tx.QueryRow(ctx, query, id))
}

// UpdateBalance sets a wallet's balance within a transaction. Callers hold
// the row lock from a ForUpdate read, so the check-then-act on the balance is
// atomic with this write.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, newBalance decimal.Decimal) error {
	query := `UPDATE wallets SET balance = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, newBalance, walletID)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

// scanWallet scans a single row into a Wallet. Returns nil, nil on no rows.
func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	var metadata []byte
	err := row.Scan(
		&w.ID, &w.CustomerID, &w.CurrencyCode, &w.Balance,
		&metadata, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &w.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal wallet metadata: %w", err)
		}
	}
	return w, nil
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}
