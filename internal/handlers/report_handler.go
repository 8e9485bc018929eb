package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apierrors "github.com/georgehe23/GovHack-TheGamblersReport/internal/errors"
	"github.com/georgehe23/GovHack-TheGamblersReport/internal/middleware"
	"github.com/georgehe23/GovHack-TheGamblersReport/internal/repository"
	"github.com/georgehe23/GovHack-TheGamblersReport/internal/services"
)

const (
	// defaultListLimit is the number of runs returned when no limit is given.
	defaultListLimit = 20
	// maxListLimit caps the limit query parameter.
	maxListLimit = 100
)

// ReportHandler handles report-related HTTP requests.
type ReportHandler struct {
	service     services.ReportService
	maxUploadMB int
}

// NewReportHandler creates a new ReportHandler instance.
func NewReportHandler(service services.ReportService, maxUploadMB int) *ReportHandler {
	return &ReportHandler{
		service:     service,
		maxUploadMB: maxUploadMB,
	}
}

// ListRequest represents the query parameters for the list endpoint.
type ListRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// ReportResponse represents the response for single-report endpoints.
type ReportResponse struct {
	Report *repository.ReportRun `json:"report"`
}

// ReportListResponse represents the response for the list endpoint.
type ReportListResponse struct {
	Reports []repository.ReportRun `json:"reports"`
	Count   int                    `json:"count"`
}

// Create handles POST /api/v1/reports.
// It accepts one or more CSV files in the multipart "files" field, runs
// the report pipeline over them, and returns the stored run metadata.
func (h *ReportHandler) Create(c *gin.Context) {
	log := middleware.GetLogger(c)

	maxBytes := int64(h.maxUploadMB) << 20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	form, err := c.MultipartForm()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierrors.PayloadTooLarge(c, "Upload exceeds the size limit")
			return
		}
		apierrors.BadRequest(c, "Expected a multipart form upload", nil)
		return
	}

	files := form.File["files"]
	uploads := make([]services.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			apierrors.BadRequest(c, "Could not read uploaded file: "+fh.Filename, nil)
			return
		}
		defer f.Close()
		uploads = append(uploads, services.Upload{Name: fh.Filename, Reader: f})
	}

	if log != nil {
		log.Info("Processing report upload", map[string]interface{}{
			"file_count": len(uploads),
		})
	}

	run, err := h.service.CreateReport(c.Request.Context(), uploads)
	if err != nil {
		if errors.Is(err, services.ErrEmptyUpload) {
			apierrors.BadRequest(c, "No files were uploaded", nil)
			return
		}
		if errors.Is(err, services.ErrNoUsableData) {
			apierrors.BadRequest(c, "None of the uploaded files contained usable LGA data", nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to build report", err)
		return
	}

	c.JSON(http.StatusCreated, ReportResponse{Report: run})
}

// List handles GET /api/v1/reports.
// Returns recent runs, newest first. The limit query parameter is
// optional and bounded by maxListLimit.
func (h *ReportHandler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	if req.Limit == 0 {
		req.Limit = defaultListLimit
	}

	runs, err := h.service.ListReports(c.Request.Context(), req.Limit)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list reports", err)
		return
	}

	c.JSON(http.StatusOK, ReportListResponse{
		Reports: runs,
		Count:   len(runs),
	})
}

// Get handles GET /api/v1/reports/:id.
func (h *ReportHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	run, err := h.service.GetReport(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			apierrors.NotFound(c, "No report with this id")
			return
		}
		apierrors.InternalServerError(c, "Failed to fetch report", err)
		return
	}

	c.JSON(http.StatusOK, ReportResponse{Report: run})
}

// GetGeoJSON handles GET /api/v1/reports/:id/geojson.
// Serves the enriched boundary collection for the run.
func (h *ReportHandler) GetGeoJSON(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetReportGeoJSON(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			apierrors.NotFound(c, "No report with this id")
			return
		}
		apierrors.InternalServerError(c, "Failed to fetch report geometry", err)
		return
	}

	c.Data(http.StatusOK, "application/geo+json", doc)
}

// GetMap handles GET /api/v1/reports/:id/map.
// Serves the rendered choropleth page for the run.
func (h *ReportHandler) GetMap(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	html, err := h.service.GetReportMap(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			apierrors.NotFound(c, "No report with this id")
			return
		}
		apierrors.InternalServerError(c, "Failed to fetch report map", err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

// parseID reads and validates the :id path parameter. On failure it
// writes the error response and returns ok=false.
func (h *ReportHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.BadRequest(c, "id must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}
