package handler

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	appprogress "github.com/hsa8903-tech/ulsan-daun/internal/application/progress"
	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/export"
	"github.com/hsa8903-tech/ulsan-daun/internal/interfaces/http/middleware"
)

// ProgressHandler serves the grids of the site
type ProgressHandler struct {
	BaseHandler
	service *appprogress.Service
}

// NewProgressHandler creates a new ProgressHandler
func NewProgressHandler(service *appprogress.Service) *ProgressHandler {
	return &ProgressHandler{service: service}
}

// ToggleRequest selects the cell to toggle
type ToggleRequest struct {
	Row    *int   `json:"row" binding:"required,gte=0"`
	Column string `json:"column" binding:"required,max=32"`
}

// NotesRequest replaces the notes of a row
type NotesRequest struct {
	Row   *int   `json:"row" binding:"required,gte=0"`
	Notes string `json:"notes" binding:"max=500"`
}

// SaveResponse acknowledges a save
type SaveResponse struct {
	Saved bool `json:"saved"`
}

// GetSite returns the site name, buildings, processes and floors
func (h *ProgressHandler) GetSite(c *gin.Context) {
	h.Success(c, h.service.Site())
}

// GetGrid returns the grid of one building and process, creating it from
// the layout on first access
func (h *ProgressHandler) GetGrid(c *gin.Context) {
	b, p, ok := h.gridParams(c)
	if !ok {
		return
	}
	view, err := h.service.OnBuildingOrProcessChanged(c.Request.Context(), b, p)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// ToggleCell flips one unit cell. Frozen columns answer with the unchanged
// cell and changed=false.
func (h *ProgressHandler) ToggleCell(c *gin.Context) {
	b, p, ok := h.gridParams(c)
	if !ok {
		return
	}
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	cell, err := h.service.OnCellClick(c.Request.Context(), b, p, *req.Row, req.Column)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cell)
}

// UpdateNotes replaces the notes of one row
func (h *ProgressHandler) UpdateNotes(c *gin.Context) {
	b, p, ok := h.gridParams(c)
	if !ok {
		return
	}
	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	row, err := h.service.UpdateNotes(c.Request.Context(), b, p, *req.Row, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, row)
}

// ExportGrid downloads the grid as an xlsx workbook
func (h *ProgressHandler) ExportGrid(c *gin.Context) {
	b, p, ok := h.gridParams(c)
	if !ok {
		return
	}
	table, err := h.service.Grid(c.Request.Context(), b, p)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	data, err := export.WriteXLSX(table)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": export.Filename(table.Key)})
	c.Header("Content-Disposition", disposition)
	c.Data(http.StatusOK, export.ContentType, data)
}

// GetSummary returns marked and total cells for every grid of the site
func (h *ProgressHandler) GetSummary(c *gin.Context) {
	summary := h.service.Summary(c.Request.Context())
	h.List(c, summary, len(summary))
}

// GetNotices returns the notices raised while loading stored progress
func (h *ProgressHandler) GetNotices(c *gin.Context) {
	notices := h.service.Notices()
	if notices == nil {
		notices = []appprogress.Notice{}
	}
	h.List(c, notices, len(notices))
}

// SaveSnapshot persists every loaded grid
func (h *ProgressHandler) SaveSnapshot(c *gin.Context) {
	if err := h.service.OnSaveRequested(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, SaveResponse{Saved: true})
}

// RegisterRoutes mounts the progress routes on rg
func (h *ProgressHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/site", h.GetSite)

	grids := rg.Group("/grids/:building/:process")
	grids.GET("", h.GetGrid)
	grids.POST("/toggle", h.ToggleCell)
	grids.PUT("/notes", h.UpdateNotes)
	grids.GET("/export", h.ExportGrid)

	rg.GET("/progress/summary", h.GetSummary)
	rg.GET("/notices", h.GetNotices)
	rg.POST("/snapshot/save", h.SaveSnapshot)
}

func (h *ProgressHandler) gridParams(c *gin.Context) (progress.Building, progress.Process, bool) {
	b, err := progress.ParseBuilding(c.Param("building"))
	if err != nil {
		h.HandleError(c, err)
		return 0, "", false
	}
	p, err := progress.ParseProcess(c.Param("process"))
	if err != nil {
		h.HandleError(c, err)
		return 0, "", false
	}
	return b, p, true
}
