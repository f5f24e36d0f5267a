package handler

import (
	"store-credit-ledger/internal/adapter/http/dto"
	"store-credit-ledger/internal/core/domain"
	"store-credit-ledger/internal/core/ports"
	"store-credit-ledger/pkg/apperror"
	"store-credit-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// CheckoutHandler handles settlement endpoints.
type CheckoutHandler struct {
	settlementSvc ports.SettlementService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(settlementSvc ports.SettlementService) *CheckoutHandler {
	return &CheckoutHandler{settlementSvc: settlementSvc}
}

// Quote handles POST /api/v1/checkout/:customer_id/quote.
func (h *CheckoutHandler) Quote(c *gin.Context) {
	var req dto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	quote, err := h.settlementSvc.Quote(c.Request.Context(), c.Param("customer_id"), req.CartTotal)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.QuoteResponse{
		CartTotal:        quote.CartTotal.String(),
		WalletPortion:    quote.WalletPortion.String(),
		RemainderPortion: quote.RemainderPortion.String(),
		FullyCovered:     quote.FullyCovered(),
	})
}

// Settle handles POST /api/v1/checkout/:customer_id/settle.
func (h *CheckoutHandler) Settle(c *gin.Context) {
	var req dto.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.settlementSvc.Settle(c.Request.Context(), c.Param("customer_id"), req.CartID, req.CartTotal)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toSettlementResponse(result))
}

func toSettlementResponse(result *domain.SettlementResult) dto.SettlementResponse {
	resp := dto.SettlementResponse{
		CartID:           result.CartID,
		CartTotal:        result.CartTotal.String(),
		WalletPortion:    result.WalletPortion.String(),
		RemainderPortion: result.RemainderPortion.String(),
		FullyCovered:     result.FullyCovered(),
		WalletBalance:    result.WalletBalance.String(),
	}
	if result.TransactionID != nil {
		id := result.TransactionID.String()
		resp.TransactionID = &id
	}
	return resp
}
