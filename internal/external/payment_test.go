package external

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	client := NewPaymentClient(PaymentConfig{WebhookSecret: "whsec_test"})

	body := []byte(`{"event":"payment.captured"}`)

	assert.True(t, client.VerifyWebhookSignature(body, sign("whsec_test", body)))
	assert.False(t, client.VerifyWebhookSignature(body, sign("wrong_secret", body)))
	assert.False(t, client.VerifyWebhookSignature(body, "not-a-signature"))
	assert.False(t, client.VerifyWebhookSignature(body, ""))

	// tampered body fails against the original signature
	signature := sign("whsec_test", body)
	assert.False(t, client.VerifyWebhookSignature([]byte(`{"event":"payment.failed"}`), signature))
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key_id", user)
		assert.Equal(t, "key_secret", pass)

		var req struct {
			Amount   int64             `json:"amount"`
			Currency string            `json:"currency"`
			Notes    map[string]string `json:"notes"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(5000), req.Amount)
		assert.Equal(t, "INR", req.Currency)
		assert.Equal(t, "evt-1", req.Notes["event_id"])

		json.NewEncoder(w).Encode(map[string]any{
			"id":       "order_123",
			"amount":   req.Amount,
			"currency": req.Currency,
			"status":   "created",
		})
	}))
	defer srv.Close()

	client := NewPaymentClient(PaymentConfig{
		BaseURL:   srv.URL,
		KeyID:     "key_id",
		KeySecret: "key_secret",
		Currency:  "INR",
	})

	order, err := client.CreateOrder(context.Background(), 5000, map[string]string{"event_id": "evt-1"})
	require.NoError(t, err)

	assert.Equal(t, "order_123", order.ID)
	assert.Equal(t, int64(5000), order.Amount)
	assert.Equal(t, "INR", order.Currency)
}

func TestCreateOrderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewPaymentClient(PaymentConfig{BaseURL: srv.URL, Currency: "INR"})

	_, err := client.CreateOrder(context.Background(), 5000, nil)
	assert.Error(t, err)
}
