package handler

import (
	"net/http"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/logic"
	"github.com/dev0xiinko/don-8-sub001/internal/model"
	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	applicationLogic *logic.ApplicationLogic
	timeout          storeTimeout
}

func NewApplicationHandler(applicationLogic *logic.ApplicationLogic, timeout time.Duration) *ApplicationHandler {
	return &ApplicationHandler{applicationLogic: applicationLogic, timeout: storeTimeout(timeout)}
}

// SubmitApplication registers an NGO application for review
func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	var in logic.ApplicationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.timeout.context(c)
	defer cancel()
	app, err := h.applicationLogic.SubmitApplication(ctx, in)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "application submitted", app)
}

// GetApplications lists applications, optionally by status
func (h *ApplicationHandler) GetApplications(c *gin.Context) {
	var status model.ApplicationStatus
	if s := c.Query("status"); s != "" {
		parsed, err := model.ParseApplicationStatus(s)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		status = parsed
	}

	ctx, cancel := h.timeout.context(c)
	defer cancel()
	apps, err := h.applicationLogic.ListApplications(ctx, status)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", apps)
}

func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	ctx, cancel := h.timeout.context(c)
	defer cancel()
	app, err := h.applicationLogic.GetApplication(ctx, c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", app)
}

// UpdateStatus moves an application through review
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	status, err := model.ParseApplicationStatus(req.Status)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.timeout.context(c)
	defer cancel()
	app, err := h.applicationLogic.UpdateApplicationStatus(ctx, c.Param("id"), status, req.Notes)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "application "+string(app.Status), app)
}
