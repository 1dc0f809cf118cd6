package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gatepass/internal/metrics"
)

// Tickets handlers

// ScanTicket - POST /api/tickets/:id/scan
// Event owner marks a ticket used at the gate; the response summarizes scan
// progress across all of the holder's tickets for the event
func (h *Handlers) ScanTicket(c *gin.Context) {
	resp, err := h.services.Tickets.Scan(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.TicketsScanned.Inc()
	c.JSON(http.StatusOK, resp)
}

// GetTicketStatus - GET /api/tickets/:id/status
// Visible to the holder and the event owner
func (h *Handlers) GetTicketStatus(c *gin.Context) {
	resp, err := h.services.Tickets.GetStatus(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListMyTickets - GET /api/my/tickets
func (h *Handlers) ListMyTickets(c *gin.Context) {
	tickets, err := h.services.Tickets.ListUserTickets(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}

// ListEventTickets - GET /api/events/:id/tickets
// Scan roster for the event owner
func (h *Handlers) ListEventTickets(c *gin.Context) {
	tickets, err := h.services.Tickets.ListEventTickets(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}
