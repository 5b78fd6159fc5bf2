package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"stocksync/internal/core/apperror"
	"stocksync/internal/domain/export"
	syncjob "stocksync/internal/domain/sync"
)

// ImportRunner runs one import pass on demand.
type ImportRunner interface {
	RunOnce(ctx context.Context) (*syncjob.Summary, error)
}

// ExportRunner runs one export on demand.
type ExportRunner interface {
	Run(ctx context.Context) (*export.Summary, error)
}

// JobsHandler triggers the background jobs manually, regardless of
// whether their schedules are enabled.
type JobsHandler struct {
	importer ImportRunner
	exporter ExportRunner
}

// NewJobsHandler creates the handler. Either runner may be nil when the
// corresponding job is not configured.
func NewJobsHandler(importer ImportRunner, exporter ExportRunner) *JobsHandler {
	return &JobsHandler{importer: importer, exporter: exporter}
}

// RunImport executes one import pass.
// POST /api/v1/jobs/import/run
func (h *JobsHandler) RunImport(c *gin.Context) {
	if h.importer == nil {
		_ = c.Error(apperror.NewValidation("import job is not configured, set SYNC_API_URL"))
		return
	}

	summary, err := h.importer.RunOnce(c.Request.Context())
	if err != nil && summary == nil {
		_ = c.Error(apperror.NewInternal(err))
		return
	}

	resp := gin.H{"summary": summary}
	status := http.StatusOK
	if err != nil {
		// Partial failure: some orders went through, some did not.
		resp["error"] = err.Error()
		status = http.StatusMultiStatus
	}
	c.JSON(status, resp)
}

// RunExport executes one export.
// POST /api/v1/jobs/export/run
func (h *JobsHandler) RunExport(c *gin.Context) {
	if h.exporter == nil {
		_ = c.Error(apperror.NewValidation("export job is not configured, set STOCK_SELECT_SQL"))
		return
	}

	summary, err := h.exporter.Run(c.Request.Context())
	if err != nil && summary == nil {
		_ = c.Error(apperror.NewInternal(err))
		return
	}

	resp := gin.H{"summary": summary}
	status := http.StatusOK
	if err != nil {
		// CSV written but the upload failed.
		resp["error"] = err.Error()
		status = http.StatusBadGateway
	}
	c.JSON(status, resp)
}
