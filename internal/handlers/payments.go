package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "gatepass/internal/errors"
	"gatepass/internal/external"
	"gatepass/internal/logger"
	"gatepass/internal/metrics"
	"gatepass/internal/models"
	"gatepass/internal/service"
)

// Payments handlers

// CreateOrder - POST /api/orders
// Opens a gateway order for the caller's active offer
func (h *Handlers) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.services.Purchases.CreateOrder(c.Request.Context(), userID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// PaymentWebhook - POST /api/webhooks/payment
// The gateway signs the raw body with HMAC-SHA256; an invalid signature is
// rejected before the payload is even parsed. Errors during finalization
// return 500 so the gateway redelivers.
func (h *Handlers) PaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	signature := c.GetHeader("X-Razorpay-Signature")
	if !h.payment.VerifyWebhookSignature(body, signature) {
		respondError(c, apperrors.ErrInvalidSignature)
		return
	}

	var event external.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse payload"})
		return
	}

	if event.Event != external.EventPaymentCaptured {
		// acknowledge everything else so the gateway stops redelivering
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	payment := event.Payload.Payment.Entity
	notes := payment.Notes

	qty, _ := strconv.Atoi(notes["quantity"])

	var passID *string
	if id, ok := notes["pass_id"]; ok && id != "" {
		passID = &id
	}

	params := service.FinalizeParams{
		EventID:         notes["event_id"],
		UserID:          notes["user_id"],
		PaymentIntentID: payment.ID,
		Amount:          payment.Amount,
		Quantity:        qty,
		PassID:          passID,
	}

	if params.EventID == "" || params.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing order metadata"})
		return
	}

	tickets, err := h.services.Purchases.Finalize(c.Request.Context(), params)
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("Failed to finalize payment",
			"error", err,
			"payment_intent_id", params.PaymentIntentID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "finalization failed"})
		return
	}

	metrics.TicketsIssued.Add(float64(len(tickets)))
	c.JSON(http.StatusOK, gin.H{"status": "processed", "tickets": len(tickets)})
}
