package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/hazard-reporting/internal/application"
	"github.com/oksasatya/hazard-reporting/internal/domain/entity"
	"github.com/oksasatya/hazard-reporting/internal/interface/middleware"
	"github.com/oksasatya/hazard-reporting/pkg/response"
)

type ReportHandler struct {
	Reports *application.ReportService
	Logger  *logrus.Logger
}

func NewReportHandler(reports *application.ReportService, logger *logrus.Logger) *ReportHandler {
	return &ReportHandler{Reports: reports, Logger: logger}
}

type submitReportRequest struct {
	Description string   `json:"description" binding:"required,description"`
	Urgency     string   `json:"urgency" binding:"required,urgency"`
	Latitude    *float64 `json:"latitude" binding:"required,latitude"`
	Longitude   *float64 `json:"longitude" binding:"required,longitude"`
	ImageURL    string   `json:"imageUrl" binding:"omitempty,url"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required,reportstatus"`
}

// Submit POST /api/reports. Anonymous submissions are accepted.
func (h *ReportHandler) Submit(c *gin.Context) {
	var req submitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	var caller *application.Identity
	if id, ok := middleware.IdentityFrom(c); ok {
		caller = &id
	}
	id, err := h.Reports.SubmitReport(c.Request.Context(), caller, application.SubmitInput{
		Description: req.Description,
		Urgency:     entity.Urgency(req.Urgency),
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		middleware.WriteError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"id": id}, "report submitted", nil)
}

// List GET /api/reports
func (h *ReportHandler) List(c *gin.Context) {
	items, err := h.Reports.ListReports(c.Request.Context())
	if err != nil {
		middleware.WriteError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, items, "ok", gin.H{"count": len(items)})
}

// Get GET /api/reports/:id
func (h *ReportHandler) Get(c *gin.Context) {
	r, err := h.Reports.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.WriteError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, r, "ok", nil)
}

// UpdateStatus PATCH /api/reports/:id/status
func (h *ReportHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actor, ok := middleware.IdentityFrom(c)
	if !ok {
		middleware.WriteError(c, h.Logger, application.ErrUnauthorized)
		return
	}
	r, err := h.Reports.UpdateStatus(c.Request.Context(), actor, c.Param("id"), entity.ReportStatus(req.Status))
	if err != nil {
		middleware.WriteError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, r, "status updated", nil)
}

// Search GET /api/reports/search?q=&size=
func (h *ReportHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	items, err := h.Reports.SearchReports(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		middleware.WriteError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, items, "ok", gin.H{"count": len(items)})
}

// UploadImage POST /api/reports/images (multipart field "image")
func (h *ReportHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, application.MaxImageBytes+1<<20)
	fh, err := c.FormFile("image")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "validation_failed", "invalid input", map[string]string{"image": "is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		middleware.WriteError(c, h.Logger, err)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Reports.UploadImage(c.Request.Context(), f, fh.Size, fh.Header.Get("Content-Type"))
	if err != nil {
		middleware.WriteError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"imageUrl": url}, "image uploaded", nil)
}
