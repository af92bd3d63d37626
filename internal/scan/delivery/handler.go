package delivery

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"invoicescan-backend/internal/scan/domain"
	"invoicescan-backend/internal/scan/dto"
	"invoicescan-backend/internal/scan/repository"
	"invoicescan-backend/internal/scan/usecase"

	"github.com/gin-gonic/gin"
)

// ScanJobHandler handles scan-job HTTP requests
type ScanJobHandler struct {
	scanUsecase usecase.ScanJobUsecase
}

// NewScanJobHandler creates a new ScanJobHandler
func NewScanJobHandler(scanUsecase usecase.ScanJobUsecase) *ScanJobHandler {
	return &ScanJobHandler{
		scanUsecase: scanUsecase,
	}
}

// CreateJob creates a scan job and starts executing it in the background
// POST /api/scans
func (h *ScanJobHandler) CreateJob(c *gin.Context) {
	userID := c.GetString("userID")

	var req dto.CreateScanJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := domain.KindManual
	switch req.JobType {
	case "", string(domain.KindManual):
	case string(domain.KindScheduled):
		kind = domain.KindScheduled
	case string(domain.KindIncremental):
		kind = domain.KindIncremental
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown job_type: " + req.JobType})
		return
	}

	job, err := h.scanUsecase.CreateJob(c.Request.Context(), userID, req.AccountID, kind, req.ToParams())
	if err != nil {
		h.writeError(c, err)
		return
	}

	// run detached from the request context so the scan outlives the response
	go func() {
		_ = h.scanUsecase.Execute(context.Background(), job.ID)
	}()

	c.JSON(http.StatusCreated, job)
}

// ExecuteJob runs a pending job synchronously. Normally jobs start on
// creation; this endpoint re-drives a pending job that never started.
// POST /api/scans/:id/execute
func (h *ScanJobHandler) ExecuteJob(c *gin.Context) {
	if err := h.scanUsecase.Execute(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job executed"})
}

// GetJob returns one job with its result payload
// GET /api/scans/:id
func (h *ScanJobHandler) GetJob(c *gin.Context) {
	job, err := h.scanUsecase.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// GetProgress returns the polling view of a job
// GET /api/scans/:id/progress
func (h *ScanJobHandler) GetProgress(c *gin.Context) {
	progress, err := h.scanUsecase.GetProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// ListJobs lists jobs for the authenticated user
// GET /api/scans?account_id=...&status=running&limit=50&offset=0
func (h *ScanJobHandler) ListJobs(c *gin.Context) {
	userID := c.GetString("userID")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := repository.JobFilter{
		UserID:    userID,
		AccountID: c.Query("account_id"),
		Limit:     limit,
		Offset:    offset,
	}
	if status := c.Query("status"); status != "" {
		jobStatus := domain.JobStatus(status)
		filter.Status = &jobStatus
	}

	jobs, total, err := h.scanUsecase.ListJobs(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if jobs == nil {
		jobs = []*domain.ScanJob{}
	}

	c.JSON(http.StatusOK, dto.ScanJobsResponse{
		Jobs:   jobs,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// CancelJob requests cancellation of a pending or running job
// POST /api/scans/:id/cancel
func (h *ScanJobHandler) CancelJob(c *gin.Context) {
	// body is optional
	var req dto.CancelScanJobRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.scanUsecase.Cancel(c.Request.Context(), c.Param("id"), req.Force, req.Reason); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Job cancellation requested"})
}

// RetryJob resets a failed job and runs it again
// POST /api/scans/:id/retry
func (h *ScanJobHandler) RetryJob(c *gin.Context) {
	if err := h.scanUsecase.Retry(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job retry started"})
}

// DeleteJob removes a job that is not running
// DELETE /api/scans/:id
func (h *ScanJobHandler) DeleteJob(c *gin.Context) {
	if err := h.scanUsecase.DeleteJob(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job deleted successfully"})
}

func (h *ScanJobHandler) writeError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
		return
	}

	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		c.JSON(http.StatusConflict, dto.ConflictResponse{
			Error:         conflictErr.Error(),
			ExistingJobID: conflictErr.JobID,
			Status:        string(conflictErr.Status),
			Progress:      conflictErr.Progress,
		})
		return
	}

	switch err.Error() {
	case "scan job not found", "email account not found":
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
