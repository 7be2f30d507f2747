package handler

import (
	"net/http"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/logic"
	"github.com/dev0xiinko/don-8-sub001/internal/model"
	"github.com/gin-gonic/gin"
)

type DonationHandler struct {
	donationLogic *logic.DonationLogic
	timeout       storeTimeout
}

func NewDonationHandler(donationLogic *logic.DonationLogic, timeout time.Duration) *DonationHandler {
	return &DonationHandler{donationLogic: donationLogic, timeout: storeTimeout(timeout)}
}

// IngestDonations records one or more donations against a campaign
func (h *DonationHandler) IngestDonations(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.timeout.context(c)
	defer cancel()
	res, err := h.donationLogic.IngestDonations(ctx, c.Param("id"), req.Donations)
	if err != nil {
		HandleError(c, err)
		return
	}

	status := http.StatusCreated
	if len(res.Accepted) == 0 {
		status = http.StatusOK
	}
	SuccessResponse(c, status, "donations recorded", res)
}

// GetDonations lists a campaign's donations, newest first
func (h *DonationHandler) GetDonations(c *gin.Context) {
	ctx, cancel := h.timeout.context(c)
	defer cancel()
	donations, err := h.donationLogic.ListDonations(ctx, c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", donations)
}

// GetStats returns the campaign aggregates
func (h *DonationHandler) GetStats(c *gin.Context) {
	ctx, cancel := h.timeout.context(c)
	defer cancel()
	stats, err := h.donationLogic.GetCampaignStats(ctx, c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", stats)
}

// UpdateStatus overrides the status of one donation (admin)
func (h *DonationHandler) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.timeout.context(c)
	defer cancel()
	donation, err := h.donationLogic.UpdateDonationStatus(ctx, c.Param("id"), c.Param("txHash"), model.DonationStatus(req.Status))
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "donation updated", donation)
}
