package service

import (
	"context"
	"errors"

	"store-credit-ledger/internal/core/domain"
	"store-credit-ledger/internal/core/ports"
	"store-credit-ledger/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const settlementDescription = "checkout payment"

// SettlementServiceImpl implements ports.SettlementService on top of the
// ledger. It owns no storage of its own; every balance effect goes through
// LedgerService.Debit.
type SettlementServiceImpl struct {
	ledger ports.LedgerService
	log    zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(ledger ports.LedgerService, log zerolog.Logger) *SettlementServiceImpl {
	return &SettlementServiceImpl{ledger: ledger, log: log}
}

// Quote computes the wallet-vs-secondary split for a cart total. A storage
// failure degrades to a zero wallet portion instead of blocking the cart
// page.
func (s *SettlementServiceImpl) Quote(ctx context.Context, customerID string, cartTotal decimal.Decimal) (*domain.SettlementQuote, error) {
	if !cartTotal.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	balance, err := s.ledger.Balance(ctx, customerID)
	if err != nil {
		s.log.Warn().Err(err).Str("customer_id", customerID).Msg("balance lookup failed, quoting zero wallet portion")
		balance = decimal.Zero
	}

	return domain.NewSettlementQuote(balance, cartTotal), nil
}

// Settle executes the split at order confirmation. The quote is recomputed
// from the live balance; if a concurrent debit still wins the race between
// re-quote and debit, the wallet portion falls back to zero and the full
// total is owed to the secondary method.
func (s *SettlementServiceImpl) Settle(ctx context.Context, customerID, cartID string, cartTotal decimal.Decimal) (*domain.SettlementResult, error) {
	if !cartTotal.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	balance, err := s.ledger.Balance(ctx, customerID)
	if err != nil {
		return nil, err
	}
	quote := domain.NewSettlementQuote(balance, cartTotal)

	result := &domain.SettlementResult{
		CartID:           cartID,
		CartTotal:        cartTotal,
		WalletPortion:    quote.WalletPortion,
		RemainderPortion: quote.RemainderPortion,
		WalletBalance:    balance,
	}

	if quote.WalletPortion.IsZero() {
		s.log.Info().
			Str("cart_id", cartID).
			Str("customer_id", customerID).
			Msg("settlement with no wallet portion")
		return result, nil
	}

	ref := cartID
	desc := settlementDescription
	mutation, err := s.ledger.Debit(ctx, ports.DebitParams{
		CustomerID:  customerID,
		Amount:      quote.WalletPortion,
		ReferenceID: &ref,
		Description: &desc,
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == apperror.CodeInsufficientBalance {
			// Balance dropped between re-quote and debit. Fall back to the
			// secondary method for the whole total rather than failing the order.
			s.log.Warn().
				Str("cart_id", cartID).
				Str("customer_id", customerID).
				Msg("balance changed during settlement, falling back to secondary method")
			result.WalletPortion = decimal.Zero
			result.RemainderPortion = cartTotal
			return result, nil
		}
		return nil, err
	}

	result.TransactionID = &mutation.Transaction.ID
	result.WalletBalance = mutation.NewBalance

	s.log.Info().
		Str("cart_id", cartID).
		Str("customer_id", customerID).
		Str("wallet_portion", result.WalletPortion.String()).
		Str("remainder", result.RemainderPortion.String()).
		Msg("settlement executed")

	return result, nil
}
