package v1

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexprice/paygate/internal/config"
	"github.com/flexprice/paygate/internal/logger"
	"github.com/flexprice/paygate/internal/service"
	"github.com/flexprice/paygate/internal/signature"
	"github.com/flexprice/paygate/internal/testutil"
	"github.com/flexprice/paygate/internal/types"
)

func newTestRouter(t *testing.T) (*gin.Engine, *config.Configuration, *testutil.InMemoryLedgerStore, *testutil.InMemoryPublisher) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelInfo
	log, err := logger.NewLogger(cfg)
	require.NoError(t, err)

	store := testutil.NewInMemoryLedgerStore()
	pub := testutil.NewInMemoryPublisher()
	ingestion := service.NewIngestionService(service.ServiceParams{
		Logger:     log,
		Config:     cfg,
		LedgerRepo: store,
		Publisher:  pub,
	})

	router := gin.New()
	router.POST("/v1/webhooks/stripe", NewWebhookHandler(ingestion, log).HandleProviderWebhook)
	return router, cfg, store, pub
}

func TestWebhookEndpointAccepts(t *testing.T) {
	router, cfg, store, pub := newTestRouter(t)

	body := []byte(`{"id":"evt_123","type":"payment_intent.succeeded"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/stripe", bytes.NewReader(body))
	req.Header.Set(cfg.Webhook.SignatureHeader, signature.Sign(body, cfg.Webhook.Secret, time.Now()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Equal(t, 1, store.EventCount())
	assert.Len(t, pub.Messages(), 1)
}

func TestWebhookEndpointRejectsBadSignature(t *testing.T) {
	router, cfg, store, pub := newTestRouter(t)

	body := []byte(`{"id":"evt_123"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/stripe", bytes.NewReader(body))
	req.Header.Set(cfg.Webhook.SignatureHeader, "t=1717243200,v1=deadbeef")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"invalid signature"}`, w.Body.String())
	assert.Equal(t, 0, store.EventCount())
	assert.Empty(t, pub.Messages())
}

func TestWebhookEndpointPublishFailureIsRetryable(t *testing.T) {
	router, cfg, _, pub := newTestRouter(t)

	body := []byte(`{"id":"evt_123","type":"payment_intent.succeeded"}`)
	pub.FailNext = true

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/stripe", bytes.NewReader(body))
	req.Header.Set(cfg.Webhook.SignatureHeader, signature.Sign(body, cfg.Webhook.Secret, time.Now()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// A 5xx makes the provider redeliver; no error detail leaks
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
}
