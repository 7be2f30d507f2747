package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/auth"
	"github.com/dev0xiinko/don-8-sub001/internal/logic"
	"github.com/dev0xiinko/don-8-sub001/internal/model"
	"github.com/dev0xiinko/don-8-sub001/internal/storage"
	"github.com/gin-gonic/gin"
)

// ReportUploader stores report files
type ReportUploader interface {
	Upload(ctx context.Context, campaignId string, file io.Reader) (*storage.Uploaded, error)
}

type CampaignHandler struct {
	campaignLogic *logic.CampaignLogic
	uploader      ReportUploader
	timeout       storeTimeout
}

func NewCampaignHandler(campaignLogic *logic.CampaignLogic, uploader ReportUploader, timeout time.Duration) *CampaignHandler {
	return &CampaignHandler{
		campaignLogic: campaignLogic,
		uploader:      uploader,
		timeout:       storeTimeout(timeout),
	}
}

// GetCampaigns lists campaigns from the flat store
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	filter := logic.CampaignFilter{
		NgoId:    c.Query("ngo_id"),
		Category: c.Query("category"),
	}
	if s := c.Query("status"); s != "" {
		status, err := model.ParseCampaignStatus(s)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		filter.Status = status
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	ctx, cancel := h.timeout.context(c)
	defer cancel()
	page, err := h.campaignLogic.ListCampaigns(ctx, filter)
	if err != nil {
		HandleError(c, err)
		return
	}

	totalPage := page.Total / int64(page.PageSize)
	if page.Total%int64(page.PageSize) != 0 {
		totalPage++
	}
	ETagResponse(c, CampaignListResponse{
		Campaigns: page.Items,
		Pagination: Pagination{
			Page:      page.Page,
			PageSize:  page.PageSize,
			Total:     page.Total,
			TotalPage: totalPage,
		},
	})
}

// GetCampaign returns the comprehensive document with its donations
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	ctx, cancel := h.timeout.context(c)
	defer cancel()
	doc, err := h.campaignLogic.GetCampaignDocument(ctx, c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	ETagResponse(c, doc)
}

// CreateCampaign creates a campaign owned by the calling NGO
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var in logic.CampaignInput
	if err := c.ShouldBindJSON(&in); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.timeout.context(c)
	defer cancel()
	doc, err := h.campaignLogic.CreateCampaign(ctx, ngoId(c), in)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "campaign created", doc)
}

// AddUpdate posts a progress update
func (h *CampaignHandler) AddUpdate(c *gin.Context) {
	var in logic.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.timeout.context(c)
	defer cancel()
	update, err := h.campaignLogic.AddUpdate(ctx, ngoId(c), c.Param("id"), in)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "update added", update)
}

// AddReport accepts either a multipart file upload or JSON metadata of a file
// already stored.
func (h *CampaignHandler) AddReport(c *gin.Context) {
	campaignId := c.Param("id")
	var report model.CampaignReport

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "file is required")
			return
		}
		file, err := header.Open()
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		defer file.Close()

		uploaded, err := h.uploader.Upload(c.Request.Context(), campaignId, file)
		if errors.Is(err, storage.ErrNotConfigured) {
			ErrorResponse(c, http.StatusServiceUnavailable, err.Error())
			return
		}
		if err != nil {
			HandleError(c, err)
			return
		}
		report = model.CampaignReport{
			FilePath: uploaded.URL,
			FileType: uploaded.Format,
			FileName: header.Filename,
		}
	} else {
		var req ReportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		report = model.CampaignReport{FilePath: req.FilePath, FileType: req.FileType, FileName: req.FileName}
	}

	ctx, cancel := h.timeout.context(c)
	defer cancel()
	saved, err := h.campaignLogic.AddReport(ctx, ngoId(c), campaignId, report)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "report added", saved)
}

// SetStatus pauses, resumes or completes a campaign
func (h *CampaignHandler) SetStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.timeout.context(c)
	defer cancel()
	if err := h.campaignLogic.SetStatus(ctx, ngoId(c), c.Param("id"), model.CampaignStatus(req.Status)); err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "status updated", gin.H{"status": req.Status})
}

func ngoId(c *gin.Context) string {
	if claims, ok := auth.ClaimsFrom(c); ok {
		return claims.Subject
	}
	return ""
}
