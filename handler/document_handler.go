package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/compliance-be/repository"
	"github.com/tieubaoca/compliance-be/types"
)

type DocumentHandler struct {
	docRepo repository.DocumentRepo
}

func NewDocumentHandler(docRepo repository.DocumentRepo) *DocumentHandler {
	return &DocumentHandler{
		docRepo: docRepo,
	}
}

func (h *DocumentHandler) HandleListDocuments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	docs, err := h.docRepo.ListDocuments(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: "Failed to list documents",
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   docs,
	})
}

func (h *DocumentHandler) HandleGetDocument(c *gin.Context) {
	doc, err := h.docRepo.GetDocument(c.Request.Context(), c.Param("documentId"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, types.DataResponse{
			Status:  false,
			Message: "Document not found",
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   doc,
	})
}

func (h *DocumentHandler) HandleDeleteDocument(c *gin.Context) {
	if err := h.docRepo.DeleteDocument(c.Request.Context(), c.Param("documentId")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, types.DataResponse{
			Status:  false,
			Message: "Failed to delete document",
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status:  true,
		Message: "Document deleted",
	})
}
