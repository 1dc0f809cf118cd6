package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"gatepass/internal/logger"
	"gatepass/internal/models"
)

// Events handlers

// ListEvents - GET /api/events
// Public catalog of active events. The unfiltered listing is served from the
// cache when one is configured; search queries always go to the backend.
func (h *Handlers) ListEvents(c *gin.Context) {
	query := c.Query("query")

	cacheable := query == "" && h.cacheClient != nil

	if cacheable {
		raw, err := h.cacheClient.GetEventList(c.Request.Context())
		if err != nil {
			logger.WithContext(c.Request.Context()).Error("Cache lookup failed", "error", err)
		} else if raw != nil {
			c.Data(http.StatusOK, "application/json", raw)
			return
		}
	}

	events, err := h.services.Events.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	if cacheable {
		if raw, err := json.Marshal(events); err == nil {
			if err := h.cacheClient.SetEventList(c.Request.Context(), raw); err != nil {
				logger.WithContext(c.Request.Context()).Error("Cache store failed", "error", err)
			}
		}
	}

	c.JSON(http.StatusOK, events)
}

// GetEvent - GET /api/events/:id
func (h *Handlers) GetEvent(c *gin.Context) {
	event, err := h.services.Events.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// CreateEvent - POST /api/events
// Requires the seller role
func (h *Handlers) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.services.Events.Create(c.Request.Context(), userID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.invalidateEventList(c)
	c.JSON(http.StatusCreated, event)
}

// UpdateEvent - PUT /api/events/:id
// Owner only
func (h *Handlers) UpdateEvent(c *gin.Context) {
	var req models.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.services.Events.Update(c.Request.Context(), userID(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.invalidateEventList(c)
	c.JSON(http.StatusOK, event)
}

// CancelEvent - DELETE /api/events/:id
// Owner only; stops sales, keeps the record
func (h *Handlers) CancelEvent(c *gin.Context) {
	if err := h.services.Events.Cancel(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	h.invalidateEventList(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetAvailability - GET /api/events/:id/availability
func (h *Handlers) GetAvailability(c *gin.Context) {
	availability, err := h.services.Availability.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, availability)
}

// JoinWaitingList - POST /api/events/:id/join
func (h *Handlers) JoinWaitingList(c *gin.Context) {
	resp, err := h.services.WaitingList.Join(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListMyEvents - GET /api/my/events
func (h *Handlers) ListMyEvents(c *gin.Context) {
	events, err := h.services.Events.ListByOwner(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// SetEventImage - POST /api/events/:id/image
// Attaches a previously uploaded storage id, or clears the image when the id
// is null
func (h *Handlers) SetEventImage(c *gin.Context) {
	var req models.SetEventImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Events.SetImage(c.Request.Context(), userID(c), c.Param("id"), req.StorageID); err != nil {
		respondError(c, err)
		return
	}

	h.invalidateEventList(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handlers) invalidateEventList(c *gin.Context) {
	if h.cacheClient == nil {
		return
	}
	if err := h.cacheClient.InvalidateEventList(c.Request.Context()); err != nil {
		logger.WithContext(c.Request.Context()).Error("Cache invalidation failed", "error", err)
	}
}
