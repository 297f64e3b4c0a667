package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/salesmap-backend-go/internal/models"
	"github.com/jengzang/salesmap-backend-go/internal/repository"
	"github.com/jengzang/salesmap-backend-go/internal/service"
	"github.com/jengzang/salesmap-backend-go/pkg/response"
)

// SyncStatus reports the last completed sync
type SyncStatus interface {
	LastSync(ctx context.Context) (*repository.SyncRun, error)
}

// SyncHandler triggers ERP syncs
type SyncHandler struct {
	sync   *service.SyncService
	status SyncStatus
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(sync *service.SyncService, status SyncStatus) *SyncHandler {
	return &SyncHandler{sync: sync, status: status}
}

type syncRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Sync handles POST /api/v1/sync
func (h *SyncHandler) Sync(c *gin.Context) {
	var req syncRequest
	if !bindJSON(c, &req) {
		return
	}
	from, err := models.ParseDate(req.From)
	if err != nil {
		response.BadRequest(c, "Invalid from date", err)
		return
	}
	to, err := models.ParseDate(req.To)
	if err != nil {
		response.BadRequest(c, "Invalid to date", err)
		return
	}
	rng := models.DateRange{From: from, To: to}
	if err := rng.Validate(); err != nil {
		response.BadRequest(c, "Invalid date range", err)
		return
	}

	res, err := h.sync.Sync(c.Request.Context(), rng)
	if err != nil {
		response.Error(c, http.StatusBadGateway, "Sales sync failed", err)
		return
	}
	response.Success(c, res)
}

// Status handles GET /api/v1/sync/status
func (h *SyncHandler) Status(c *gin.Context) {
	run, err := h.status.LastSync(c.Request.Context())
	if err != nil {
		response.InternalError(c, "Failed to read sync status", err)
		return
	}
	response.Success(c, gin.H{"last_sync": run})
}
