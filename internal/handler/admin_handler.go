package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/logic"
	"github.com/gin-gonic/gin"
)

// syncTimeout a full sync walks every campaign and gets longer than a
// single-record request
const syncTimeout = 2 * time.Minute

type AdminHandler struct {
	syncLogic *logic.SyncLogic
}

func NewAdminHandler(syncLogic *logic.SyncLogic) *AdminHandler {
	return &AdminHandler{syncLogic: syncLogic}
}

// SyncCampaigns runs the campaign store reconciliation now
func (h *AdminHandler) SyncCampaigns(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), syncTimeout)
	defer cancel()

	res, err := h.syncLogic.SyncCampaignStore(ctx)
	if err != nil && res == nil {
		HandleError(c, err)
		return
	}
	if err != nil {
		c.JSON(http.StatusMultiStatus, Response{Success: false, Message: err.Error(), Data: res})
		return
	}
	SuccessResponse(c, http.StatusOK, "sync complete", res)
}
