package service

import (
	"context"
	"testing"

	"store-credit-ledger/internal/core/domain"
	"store-credit-ledger/internal/core/ports"
	"store-credit-ledger/internal/core/ports/mocks"
	"store-credit-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupSettlementService(t *testing.T) (*SettlementServiceImpl, *mocks.MockLedgerService) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedgerService(ctrl)
	return NewSettlementService(ledger, zerolog.Nop()), ledger
}

// ==================== Quote Tests ====================

func TestSettlementService_Quote_FullCoverage(t *testing.T) {
	svc, ledger := setupSettlementService(t)
	ctx := context.Background()

	ledger.EXPECT().Balance(ctx, "cus_1").Return(dec("1250.50"), nil)

	quote, err := svc.Quote(ctx, "cus_1", dec("1250.50"))
	require.NoError(t, err)
	assert.True(t, quote.WalletPortion.Equal(dec("1250.50")))
	assert.True(t, quote.RemainderPortion.IsZero())
	assert.True(t, quote.FullyCovered())
}

func TestSettlementService_Quote_PartialCoverage(t *testing.T) {
	svc, ledger := setupSettlementService(t)
	ctx := context.Background()

	ledger.EXPECT().Balance(ctx, "cus_1").Return(dec("75"), nil)

	quote, err := svc.Quote(ctx, "cus_1", dec("300"))
	require.NoError(t, err)
	assert.True(t, quote.WalletPortion.Equal(dec("75")))
	assert.True(t, quote.RemainderPortion.Equal(dec("225")))
	assert.False(t, quote.FullyCovered())
}

func TestSettlementService_Quote_EmptyWallet(t *testing.T) {
	svc, ledger := setupSettlementService(t)
	ctx := context.Background()

	ledger.EXPECT().Balance(ctx, "cus_new").Return(decimal.Zero, nil)

	quote, err := svc.Quote(ctx, "cus_new", dec("300"))
	require.NoError(t, err)
	assert.True(t, quote.WalletPortion.IsZero())
	assert.True(t, quote.RemainderPortion.Equal(dec("300")))
}

func TestSettlementService_Quote_StorageErrorDegradesToZero(t *testing.T) {
	svc, ledger := setupSettlementService(t)
	ctx := context.Background()

	ledger.EXPECT().Balance(ctx, "cus_1").Return(decimal.Zero, apperror.ErrStorage(assert.AnError))

	quote, err := svc.Quote(ctx, "cus_1", dec("300"))
	require.NoError(t, err)
	assert.True(t, quote.WalletPortion.IsZero())
	assert.True(t, quote.RemainderPortion.Equal(dec("300")))
}

func TestSettlementService_Quote_NonPositiveTotal(t *testing.T) {
	svc, _ := setupSettlementService(t)

	for _, total := range []decimal.Decimal{dec("-1"), decimal.Zero} {
		_, err := svc.Quote(context.Background(), "cus_1", total)
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperror.CodeInvalidAmount, appErr.Code)
	}
}

// ==================== Settle Tests ====================

func TestSettlementService_Settle_DebitsWalletPortion(t *testing.T) {
	svc, ledger := setupSettlementService(t)
	ctx := context.Background()
	txID := uuid.New()

	ledger.EXPECT().Balance(ctx, "cus_1").Return(dec("75"), nil)
	ledger.EXPECT().Debit(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, params ports.DebitParams) (*ports.MutationResult, error) {
			assert.Equal(t, "cus_1", params.CustomerID)
			assert.True(t, params.Amount.Equal(dec("75")))
			require.NotNil(t, params.ReferenceID)
			assert.Equal(t, "cart_42", *params.ReferenceID)
			require.NotNil(t, params.Description)
			assert.Equal(t, "checkout payment", *params.Description)
			return &ports.MutationResult{
				Transaction: &domain.WalletTransaction{ID: txID},
				NewBalance:  decimal.Zero,
			}, nil
		})

	result, err := svc.Settle(ctx, "cus_1", "cart_42", dec("300"))
	require.NoError(t, err)
	assert.True(t, result.WalletPortion.Equal(dec("75")))
	assert.True(t, result.RemainderPortion.Equal(dec("225")))
	require.NotNil(t, result.TransactionID)
	assert.Equal(t, txID, *result.TransactionID)
	assert.True(t, result.WalletBalance.IsZero())
}

func TestSettlementService_Settle_ZeroWalletPortionSkipsDebit(t *testing.T) {
	svc, ledger := setupSettlementService(t)
	ctx := context.Background()

	ledger.EXPECT().Balance(ctx, "cus_new").Return(decimal.Zero, nil)

	result, err := svc.Settle(ctx, "cus_new", "cart_7", dec("300"))
	require.NoError(t, err)
	assert.True(t, result.WalletPortion.IsZero())
	assert.True(t, result.RemainderPortion.Equal(dec("300")))
	assert.Nil(t, result.TransactionID)
}

func TestSettlementService_Settle_NonPositiveTotal(t *testing.T) {
	svc, _ := setupSettlementService(t)

	for _, total := range []decimal.Decimal{dec("-0.01"), decimal.Zero} {
		_, err := svc.Settle(context.Background(), "cus_1", "cart_42", total)
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperror.CodeInvalidAmount, appErr.Code)
	}
}

func TestSettlementService_Settle_FallsBackOnBalanceRace(t *testing.T) {
	svc, ledger := setupSettlementService(t)
	ctx := context.Background()

	// Balance read says 75, but a concurrent debit drained the wallet before
	// our debit took the lock.
	ledger.EXPECT().Balance(ctx, "cus_1").Return(dec("75"), nil)
	ledger.EXPECT().Debit(ctx, gomock.Any()).Return(nil, apperror.ErrInsufficientBalance(decimal.Zero, dec("75")))

	result, err := svc.Settle(ctx, "cus_1", "cart_42", dec("300"))
	require.NoError(t, err)
	assert.True(t, result.WalletPortion.IsZero())
	assert.True(t, result.RemainderPortion.Equal(dec("300")))
	assert.Nil(t, result.TransactionID)
}

func TestSettlementService_Settle_PropagatesOtherErrors(t *testing.T) {
	svc, ledger := setupSettlementService(t)
	ctx := context.Background()

	ledger.EXPECT().Balance(ctx, "cus_1").Return(dec("75"), nil)
	ledger.EXPECT().Debit(ctx, gomock.Any()).Return(nil, apperror.ErrStorage(assert.AnError))

	_, err := svc.Settle(ctx, "cus_1", "cart_42", dec("300"))
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SYS_001", appErr.Code)
}

func TestSettlementService_Settle_FullCoverage(t *testing.T) {
	svc, ledger := setupSettlementService(t)
	ctx := context.Background()
	txID := uuid.New()

	ledger.EXPECT().Balance(ctx, "cus_1").Return(dec("1250.50"), nil)
	ledger.EXPECT().Debit(ctx, gomock.Any()).Return(&ports.MutationResult{
		Transaction: &domain.WalletTransaction{ID: txID},
		NewBalance:  decimal.Zero,
	}, nil)

	result, err := svc.Settle(ctx, "cus_1", "cart_9", dec("1250.50"))
	require.NoError(t, err)
	assert.True(t, result.FullyCovered())
	assert.True(t, result.RemainderPortion.IsZero())
}
