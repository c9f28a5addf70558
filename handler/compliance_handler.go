package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/compliance-be/repository"
	"github.com/tieubaoca/compliance-be/service"
	"github.com/tieubaoca/compliance-be/types"
)

type ComplianceHandler struct {
	engine *service.ComplianceEngine
	stream *service.ProgressStreamService
}

func NewComplianceHandler(engine *service.ComplianceEngine, stream *service.ProgressStreamService) *ComplianceHandler {
	return &ComplianceHandler{
		engine: engine,
		stream: stream,
	}
}

// HandleCheck runs a validation synchronously and returns the full
// report. Intended for small documents and scripted use; interactive
// clients should use the async variant.
func (h *ComplianceHandler) HandleCheck(c *gin.Context) {
	var req types.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.DocumentID == "" {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Invalid request body",
		})
		return
	}

	report, err := h.engine.Check(c.Request.Context(), req)
	if err != nil {
		c.JSON(checkErrorStatus(err), types.DataResponse{
			Status:  false,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   report,
	})
}

func (h *ComplianceHandler) HandleCheckAsync(c *gin.Context) {
	var req types.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.DocumentID == "" {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Invalid request body",
		})
		return
	}

	runID, err := h.engine.StartRun(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusAccepted, types.DataResponse{
		Status: true,
		Data:   types.CheckStartedResponse{RunID: runID},
	})
}

func (h *ComplianceHandler) HandleBatchCheck(c *gin.Context) {
	var req types.BatchCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.DocumentIDs) == 0 {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Invalid request body",
		})
		return
	}

	resp := h.engine.RunBatch(c.Request.Context(), req)
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   resp,
	})
}

func (h *ComplianceHandler) HandleProgress(c *gin.Context) {
	runID := c.Param("runId")
	progress, err := h.engine.GetProgress(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusNotFound, types.DataResponse{
			Status:  false,
			Message: "Run not found",
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   progress,
	})
}

func (h *ComplianceHandler) HandleCancel(c *gin.Context) {
	runID := c.Param("runId")
	if err := h.engine.CancelRun(runID); err != nil {
		c.JSON(http.StatusNotFound, types.DataResponse{
			Status:  false,
			Message: "Run not found or already finished",
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status:  true,
		Message: "Run cancelled",
	})
}

// HandleProgressStream upgrades to a websocket and pushes progress
// snapshots until the run finishes.
func (h *ComplianceHandler) HandleProgressStream(c *gin.Context) {
	h.stream.HandleProgress(c.Writer, c.Request, c.Param("runId"))
}

func checkErrorStatus(err error) int {
	if errors.Is(err, service.ErrRunNotFound) || errors.Is(err, repository.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
