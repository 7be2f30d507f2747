package handler

import (
	"net/http"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/logic"
	"github.com/gin-gonic/gin"
)

type WithdrawalHandler struct {
	withdrawalLogic *logic.WithdrawalLogic
	timeout         storeTimeout
}

func NewWithdrawalHandler(withdrawalLogic *logic.WithdrawalLogic, timeout time.Duration) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalLogic: withdrawalLogic, timeout: storeTimeout(timeout)}
}

// GetEligibility reports whether the calling NGO may withdraw
func (h *WithdrawalHandler) GetEligibility(c *gin.Context) {
	ctx, cancel := h.timeout.context(c)
	defer cancel()
	res, err := h.withdrawalLogic.CheckWithdrawalEligibility(ctx, ngoId(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", res)
}

// RecordWithdrawal records a withdrawal when the reporting policy allows it
func (h *WithdrawalHandler) RecordWithdrawal(c *gin.Context) {
	var in logic.WithdrawalInput
	if err := c.ShouldBindJSON(&in); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.timeout.context(c)
	defer cancel()
	w, err := h.withdrawalLogic.RecordWithdrawal(ctx, ngoId(c), in)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "withdrawal recorded", w)
}

// GetWithdrawals lists the calling NGO's withdrawals
func (h *WithdrawalHandler) GetWithdrawals(c *gin.Context) {
	ctx, cancel := h.timeout.context(c)
	defer cancel()
	list, err := h.withdrawalLogic.ListWithdrawals(ctx, ngoId(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", list)
}

// GetSummary returns raised, withdrawn and available totals
func (h *WithdrawalHandler) GetSummary(c *gin.Context) {
	ctx, cancel := h.timeout.context(c)
	defer cancel()
	summary, err := h.withdrawalLogic.Summary(ctx, ngoId(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", summary)
}
