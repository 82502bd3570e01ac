package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kitapunya/expense-backend/internal/sheets"
)

type HealthResponse struct {
	Status      string             `json:"status"`
	Timestamp   time.Time          `json:"timestamp"`
	Service     string             `json:"service"`
	Version     string             `json:"version"`
	Sheets      string             `json:"sheets"`
	Master      string             `json:"master"`
	MasterFile  *sheets.MasterFile `json:"masterFile,omitempty"`
	HandleCache string             `json:"handleCache"`
}

// MasterStat reports Drive metadata of the master spreadsheet.
type MasterStat interface {
	Stat(ctx context.Context) (*sheets.MasterFile, error)
}

type HealthHandler struct {
	serviceName string
	version     string
	configured  bool
	stat        MasterStat
	cacheName   string
}

// NewHealthHandler builds the health handler. stat may be nil when Sheets
// is not configured.
func NewHealthHandler(serviceName, version string, configured bool, stat MasterStat, cacheName string) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		configured:  configured,
		stat:        stat,
		cacheName:   cacheName,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Service:     h.serviceName,
		Version:     h.version,
		Sheets:      "not_configured",
		Master:      "disabled",
		HandleCache: h.cacheName,
	}

	if h.configured {
		resp.Sheets = "configured"
	}
	if h.configured && h.stat != nil {
		statCtx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		f, err := h.stat.Stat(statCtx)
		if err != nil {
			resp.Master = "down"
			resp.Status = "degraded"
		} else {
			resp.Master = "up"
			resp.MasterFile = f
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
	r.GET("/api/health", h.HealthCheck)
}
