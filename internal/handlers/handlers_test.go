package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	apperrors "gatepass/internal/errors"
	"gatepass/internal/external"
)

func webhookRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := NewHandlers(nil, nil, nil, external.NewPaymentClient(external.PaymentConfig{
		WebhookSecret: secret,
	}))

	r := gin.New()
	r.POST("/api/webhooks/payment", h.PaymentWebhook)
	return r
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaymentWebhookRejectsBadSignature(t *testing.T) {
	r := webhookRouter("whsec_test")

	body := []byte(`{"event":"payment.captured"}`)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payment", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", sign("wrong_secret", body))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentWebhookRejectsMissingSignature(t *testing.T) {
	r := webhookRouter("whsec_test")

	body := []byte(`{"event":"payment.captured"}`)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payment", bytes.NewReader(body))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentWebhookIgnoresOtherEvents(t *testing.T) {
	r := webhookRouter("whsec_test")

	// authorized-but-not-captured payments are acknowledged without issuing
	body := []byte(`{"event":"payment.authorized"}`)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payment", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", sign("whsec_test", body))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")
}

func TestPaymentWebhookRejectsMissingMetadata(t *testing.T) {
	r := webhookRouter("whsec_test")

	// captured payment without order notes cannot be finalized
	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","amount":5000,"notes":{}}}}}`)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payment", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", sign("whsec_test", body))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRespondErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"event not found", apperrors.ErrEventNotFound, http.StatusNotFound},
		{"ticket not found", apperrors.ErrTicketNotFound, http.StatusNotFound},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusForbidden},
		{"already scanned", apperrors.ErrAlreadyScanned, http.StatusConflict},
		{"refunded", apperrors.ErrTicketRefunded, http.StatusConflict},
		{"pass sold out", apperrors.ErrPassSoldOut, http.StatusConflict},
		{"no active offer", apperrors.ErrNoActiveOffer, http.StatusConflict},
		{"event cancelled", apperrors.ErrEventCancelled, http.StatusConflict},
		{"invalid signature", apperrors.ErrInvalidSignature, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tc.err)

			assert.Equal(t, tc.code, w.Code)
		})
	}
}
