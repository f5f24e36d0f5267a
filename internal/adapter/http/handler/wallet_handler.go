package handler

import (
	"strconv"
	"time"

	"store-credit-ledger/internal/adapter/http/dto"
	"store-credit-ledger/internal/core/domain"
	"store-credit-ledger/internal/core/ports"
	"store-credit-ledger/pkg/apperror"
	"store-credit-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles wallet ledger endpoints.
type WalletHandler struct {
	ledgerSvc ports.LedgerService
	currency  string
}

// NewWalletHandler creates a new WalletHandler. currency is the default
// currency code reported on balance reads.
func NewWalletHandler(ledgerSvc ports.LedgerService, currency string) *WalletHandler {
	return &WalletHandler{ledgerSvc: ledgerSvc, currency: currency}
}

// Credit handles POST /api/v1/wallets/:customer_id/credit.
func (h *WalletHandler) Credit(c *gin.Context) {
	var req dto.CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.ledgerSvc.Credit(c.Request.Context(), ports.CreditParams{
		CustomerID:   c.Param("customer_id"),
		Amount:       req.Amount,
		CurrencyCode: req.CurrencyCode,
		ReferenceID:  req.ReferenceID,
		Description:  req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toMutationResponse(result))
}

// Debit handles POST /api/v1/wallets/:customer_id/debit.
func (h *WalletHandler) Debit(c *gin.Context) {
	var req dto.DebitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.ledgerSvc.Debit(c.Request.Context(), ports.DebitParams{
		CustomerID:  c.Param("customer_id"),
		Amount:      req.Amount,
		ReferenceID: req.ReferenceID,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toMutationResponse(result))
}

// GetBalance handles GET /api/v1/wallets/:customer_id/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	customerID := c.Param("customer_id")

	balance, err := h.ledgerSvc.Balance(c.Request.Context(), customerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		CustomerID: customerID,
		Balance:    balance.String(),
		Currency:   h.currency,
	})
}

// ListTransactions handles GET /api/v1/wallets/:customer_id/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, apperror.Validation("limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	txns, err := h.ledgerSvc.History(c.Request.Context(), c.Param("customer_id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, toTransactionResponse(&txns[i]))
	}
	response.OK(c, out)
}

func toTransactionResponse(txn *domain.WalletTransaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:            txn.ID.String(),
		Type:          string(txn.Type),
		Amount:        txn.Amount.String(),
		BalanceBefore: txn.BalanceBefore.String(),
		BalanceAfter:  txn.BalanceAfter.String(),
		ReferenceID:   txn.ReferenceID,
		Description:   txn.Description,
		CreatedAt:     txn.CreatedAt.Format(time.RFC3339),
	}
}

func toMutationResponse(result *ports.MutationResult) dto.MutationResponse {
	return dto.MutationResponse{
		WalletID:    result.Wallet.ID.String(),
		CustomerID:  result.Wallet.CustomerID,
		Currency:    result.Wallet.CurrencyCode,
		Balance:     result.NewBalance.String(),
		Transaction: toTransactionResponse(result.Transaction),
	}
}
