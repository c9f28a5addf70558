package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/compliance-be/repository"
	"github.com/tieubaoca/compliance-be/types"
)

type ReportHandler struct {
	reportRepo repository.ReportRepo
}

func NewReportHandler(reportRepo repository.ReportRepo) *ReportHandler {
	return &ReportHandler{
		reportRepo: reportRepo,
	}
}

func (h *ReportHandler) HandleGetReport(c *gin.Context) {
	report, err := h.reportRepo.GetReport(c.Request.Context(), c.Param("reportId"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, types.DataResponse{
			Status:  false,
			Message: "Report not found",
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   report,
	})
}

// HandleListReports lists report summaries, newest first, optionally
// scoped to one document. Full results are omitted from listings.
func (h *ReportHandler) HandleListReports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	reports, err := h.reportRepo.ListReports(c.Request.Context(), c.Query("document_id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: "Failed to list reports",
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   reports,
	})
}
