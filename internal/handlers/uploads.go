package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gatepass/internal/models"
)

// Storage handlers

// CreateUpload - POST /api/uploads
// Mints a presigned PUT the client uploads an image to; the returned storage
// id is later attached to an event
func (h *Handlers) CreateUpload(c *gin.Context) {
	if h.storageClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage is not configured"})
		return
	}

	storageID, uploadURL, err := h.storageClient.CreateUploadURL(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.UploadResponse{
		StorageID: storageID,
		UploadURL: uploadURL,
	})
}

// GetStorageURL - GET /api/storage/:id
// Resolves an opaque storage id to a short-lived download URL
func (h *Handlers) GetStorageURL(c *gin.Context) {
	if h.storageClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage is not configured"})
		return
	}

	url, err := h.storageClient.GetURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StorageURLResponse{URL: url})
}
