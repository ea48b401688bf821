package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hsa8903-tech/ulsan-daun/internal/interfaces/http/dto"
)

// HealthReporter supplies the state reported by /health
type HealthReporter interface {
	// DirtyCount returns the number of grids with unsaved changes
	DirtyCount() int
	// Closed reports whether the service has shut down
	Closed() bool
}

// SystemHandler serves ping, info and health endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	driver    string
	health    HealthReporter
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version, storageDriver string, health HealthReporter) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		driver:    storageDriver,
		health:    health,
		startTime: time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	GoVersion     string `json:"go_version"`
	StorageDriver string `json:"storage_driver"`
	Uptime        string `json:"uptime"`
}

// GetSystemInfo returns name, version, storage driver and uptime
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:          h.name,
		Version:       h.version,
		GoVersion:     runtime.Version(),
		StorageDriver: h.driver,
		Uptime:        time.Since(h.startTime).Round(time.Second).String(),
	})
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping answers "pong"
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string `json:"status"`
	DirtyGrids int    `json:"dirty_grids"`
}

// Health reports "ok", or 503 "closed" once the service has shut down
func (h *SystemHandler) Health(c *gin.Context) {
	if h.health == nil {
		h.Success(c, HealthResponse{Status: "ok"})
		return
	}
	resp := HealthResponse{Status: "ok", DirtyGrids: h.health.DirtyCount()}
	if h.health.Closed() {
		resp.Status = "closed"
		c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: resp})
		return
	}
	h.Success(c, resp)
}

// RegisterRoutes mounts the system routes on rg
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	system := rg.Group("/system")
	system.GET("/ping", h.Ping)
	system.GET("/info", h.GetSystemInfo)
}
