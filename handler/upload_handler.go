package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/compliance-be/service"
	"github.com/tieubaoca/compliance-be/types"
	"github.com/tieubaoca/compliance-be/utils"
)

type UploadHandler struct {
	ingest    *service.IngestService
	uploadDir string
}

func NewUploadHandler(ingest *service.IngestService, uploadDir string) *UploadHandler {
	return &UploadHandler{
		ingest:    ingest,
		uploadDir: uploadDir,
	}
}

const maxUploadSize = 100 << 20 // financial reports run to hundreds of pages

// HandleUpload accepts a multipart document upload, registers it and
// indexes it in the background. The response carries the record in
// processing state; clients poll the document endpoint for completion.
func (h *UploadHandler) HandleUpload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Invalid file",
		})
		return
	}
	file.Close()

	if header.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "File too large",
		})
		return
	}

	var req types.UploadRequest
	if metadata := c.Request.FormValue("metadata"); metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &req); err != nil {
			c.JSON(http.StatusBadRequest, types.DataResponse{
				Status:  false,
				Message: "Invalid metadata",
			})
			return
		}
	}

	savedPath, err := utils.SaveUploadedFile(h.uploadDir, header)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: "Failed to store file",
		})
		return
	}

	doc, err := h.ingest.RegisterDocument(c.Request.Context(), savedPath, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: "Failed to register document",
		})
		return
	}

	go func() {
		if err := h.ingest.ProcessDocument(context.Background(), doc, savedPath); err != nil {
			slog.Error("document processing failed", "document", doc.ID, "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, types.DataResponse{
		Status: true,
		Data:   doc,
	})
}
