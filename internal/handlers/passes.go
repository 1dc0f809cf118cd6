package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gatepass/internal/models"
)

// Passes handlers

// CreatePass - POST /api/passes
// Event owner only
func (h *Handlers) CreatePass(c *gin.Context) {
	var req models.CreatePassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pass, err := h.services.Passes.Create(c.Request.Context(), userID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pass)
}

// GetPass - GET /api/passes/:id
func (h *Handlers) GetPass(c *gin.Context) {
	pass, err := h.services.Passes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pass)
}

// ListEventPasses - GET /api/events/:id/passes
func (h *Handlers) ListEventPasses(c *gin.Context) {
	passes, err := h.services.Passes.ListByEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, passes)
}

// UpdatePass - PUT /api/passes/:id
// Event owner only
func (h *Handlers) UpdatePass(c *gin.Context) {
	var req models.UpdatePassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pass, err := h.services.Passes.Update(c.Request.Context(), userID(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pass)
}

// DeletePass - DELETE /api/passes/:id
// Event owner only
func (h *Handlers) DeletePass(c *gin.Context) {
	if err := h.services.Passes.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
