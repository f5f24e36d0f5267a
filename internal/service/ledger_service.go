package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"store-credit-ledger/config"
	"store-credit-ledger/internal/core/domain"
	"store-credit-ledger/internal/core/ports"
	"store-credit-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerServiceImpl implements ports.LedgerService.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	outboxRepo ports.OutboxRepository
	cache      ports.BalanceCache
	transactor ports.DBTransactor
	cfg        config.WalletConfig
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	outboxRepo ports.OutboxRepository,
	cache ports.BalanceCache,
	transactor ports.DBTransactor,
	cfg config.WalletConfig,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		outboxRepo: outboxRepo,
		cache:      cache,
		transactor: transactor,
		cfg:        cfg,
		log:        log,
	}
}

func (s *LedgerServiceImpl) currency(currencyCode string) string {
	if currencyCode == "" {
		return s.cfg.DefaultCurrency
	}
	return currencyCode
}

// GetOrCreate returns the customer's wallet, creating an empty one on first
// use. A concurrent create losing the unique-constraint race re-fetches the
// winner's row, so callers always observe exactly one wallet per customer and
// currency.
func (s *LedgerServiceImpl) GetOrCreate(ctx context.Context, customerID, currencyCode string) (*domain.Wallet, error) {
	currencyCode = s.currency(currencyCode)

	wallet, err := s.walletRepo.GetByCustomer(ctx, customerID, currencyCode)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("get wallet: %w", err))
	}
	if wallet != nil {
		return wallet, nil
	}

	wallet = domain.NewWallet(customerID, currencyCode)
	err = s.walletRepo.Create(ctx, wallet)
	if err == nil {
		s.log.Info().
			Str("wallet_id", wallet.ID.String()).
			Str("customer_id", customerID).
			Str("currency", currencyCode).
			Msg("wallet created")
		return wallet, nil
	}
	if !errors.Is(err, ports.ErrWalletExists) {
		return nil, apperror.ErrStorage(fmt.Errorf("create wallet: %w", err))
	}

	// Lost the create race; the winner's row must exist now.
	wallet, err = s.walletRepo.GetByCustomer(ctx, customerID, currencyCode)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("re-fetch wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.InternalError(fmt.Errorf("wallet vanished after create race: customer=%s", customerID))
	}
	return wallet, nil
}

// Credit adds funds to the customer's wallet, creating it if needed.
func (s *LedgerServiceImpl) Credit(ctx context.Context, params ports.CreditParams) (*ports.MutationResult, error) {
	if !params.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	wallet, err := s.GetOrCreate(ctx, params.CustomerID, params.CurrencyCode)
	if err != nil {
		return nil, err
	}

	result, err := s.applyMutation(ctx, wallet.ID, domain.TransactionTypeCredit, params.Amount, params.ReferenceID, params.Description)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("tx_id", result.Transaction.ID.String()).
		Str("customer_id", params.CustomerID).
		Str("amount", params.Amount.String()).
		Str("new_balance", result.NewBalance.String()).
		Msg("wallet credited")

	return result, nil
}

// Debit removes funds from the customer's wallet. The sufficiency check runs
// under the row lock, so concurrent debits can never take the balance
// negative.
func (s *LedgerServiceImpl) Debit(ctx context.Context, params ports.DebitParams) (*ports.MutationResult, error) {
	if !params.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	wallet, err := s.walletRepo.GetByCustomer(ctx, params.CustomerID, s.cfg.DefaultCurrency)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	result, err := s.applyMutation(ctx, wallet.ID, domain.TransactionTypeDebit, params.Amount, params.ReferenceID, params.Description)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("tx_id", result.Transaction.ID.String()).
		Str("customer_id", params.CustomerID).
		Str("amount", params.Amount.String()).
		Str("new_balance", result.NewBalance.String()).
		Msg("wallet debited")

	return result, nil
}

// applyMutation executes one balance change atomically: lock the wallet row,
// re-check funds for debits, write the new balance, append the ledger entry
// and the outbox event, commit. Either all four land or none do.
func (s *LedgerServiceImpl) applyMutation(
	ctx context.Context,
	walletID uuid.UUID,
	txType domain.TransactionType,
	amount decimal.Decimal,
	referenceID, description *string,
) (*ports.MutationResult, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, walletID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	previous := wallet.Balance
	var newBalance decimal.Decimal
	switch txType {
	case domain.TransactionTypeCredit:
		newBalance = previous.Add(amount)
	case domain.TransactionTypeDebit:
		if !wallet.CanDebit(amount) {
			return nil, apperror.ErrInsufficientBalance(previous, amount)
		}
		newBalance = previous.Sub(amount)
	default:
		return nil, apperror.InternalError(fmt.Errorf("unknown transaction type %q", txType))
	}

	txn := &domain.WalletTransaction{
		ID:            uuid.New(),
		WalletID:      wallet.ID,
		Type:          txType,
		Amount:        amount,
		ReferenceID:   referenceID,
		Description:   description,
		BalanceBefore: previous,
		BalanceAfter:  newBalance,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, newBalance); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("update balance: %w", err))
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("create transaction: %w", err))
	}

	wallet.Balance = newBalance
	event, err := domain.NewLedgerEvent(wallet, txn)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("build event: %w", err))
	}
	if err := s.outboxRepo.Create(ctx, dbTx, event); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("create outbox event: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	// Post-commit: refresh the balance cache (best-effort)
	if err := s.cache.Set(ctx, wallet.CustomerID, wallet.CurrencyCode, newBalance); err != nil {
		s.log.Warn().Err(err).Str("customer_id", wallet.CustomerID).Msg("failed to cache balance")
	}

	return &ports.MutationResult{
		Wallet:          wallet,
		Transaction:     txn,
		PreviousBalance: previous,
		NewBalance:      newBalance,
	}, nil
}

// Balance returns the available balance for the default currency. A missing
// wallet reads as zero so callers never need to special-case new customers.
func (s *LedgerServiceImpl) Balance(ctx context.Context, customerID string) (decimal.Decimal, error) {
	cached, found, err := s.cache.Get(ctx, customerID, s.cfg.DefaultCurrency)
	if err != nil {
		s.log.Warn().Err(err).Str("customer_id", customerID).Msg("balance cache read failed, falling through to store")
	} else if found {
		return cached, nil
	}

	wallet, err := s.walletRepo.GetByCustomer(ctx, customerID, s.cfg.DefaultCurrency)
	if err != nil {
		return decimal.Zero, apperror.ErrStorage(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return decimal.Zero, nil
	}

	if err := s.cache.Set(ctx, customerID, wallet.CurrencyCode, wallet.Balance); err != nil {
		s.log.Warn().Err(err).Str("customer_id", customerID).Msg("failed to cache balance")
	}
	return wallet.Balance, nil
}

// History returns the customer's most recent transactions, newest first.
func (s *LedgerServiceImpl) History(ctx context.Context, customerID string, limit int) ([]domain.WalletTransaction, error) {
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}

	wallet, err := s.walletRepo.GetByCustomer(ctx, customerID, s.cfg.DefaultCurrency)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return []domain.WalletTransaction{}, nil
	}

	txns, err := s.txRepo.ListByWallet(ctx, wallet.ID, limit)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("list transactions: %w", err))
	}
	return txns, nil
}
