package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/compliance-be/service"
	"github.com/tieubaoca/compliance-be/types"
	"github.com/tieubaoca/compliance-be/utils"
)

// AdminHandler serves the JWT-protected maintenance endpoints, chiefly
// indexing regulatory rule sources.
type AdminHandler struct {
	ingest    *service.IngestService
	uploadDir string
}

func NewAdminHandler(ingest *service.IngestService, uploadDir string) *AdminHandler {
	return &AdminHandler{
		ingest:    ingest,
		uploadDir: uploadDir,
	}
}

// HandleIndexRules uploads one rule source file and indexes it into the
// framework's collection, replacing earlier vectors from the same file.
func (h *AdminHandler) HandleIndexRules(c *gin.Context) {
	framework := c.Request.FormValue("framework")
	if !service.IsKnownFramework(framework) {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Unknown framework",
		})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Invalid file",
		})
		return
	}
	file.Close()

	savedPath, err := utils.SaveUploadedFile(h.uploadDir, header)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: "Failed to store file",
		})
		return
	}

	count, err := h.ingest.IndexRules(c.Request.Context(), framework, savedPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status:  true,
		Message: "Rules indexed",
		Data:    gin.H{"framework": framework, "chunks": count},
	})
}
