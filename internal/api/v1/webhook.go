package v1

import (
	"io"
	"net/http"

	ierr "github.com/flexprice/paygate/internal/errors"
	"github.com/flexprice/paygate/internal/logger"
	"github.com/flexprice/paygate/internal/service"
	"github.com/gin-gonic/gin"
)

// WebhookHandler handles inbound provider webhook calls
type WebhookHandler struct {
	ingestionService service.IngestionService
	logger           *logger.Logger
}

func NewWebhookHandler(
	ingestionService service.IngestionService,
	logger *logger.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		ingestionService: ingestionService,
		logger:           logger,
	}
}

// HandleProviderWebhook verifies, stages and enqueues one webhook call.
// The provider only ever sees 2xx, 401 or 5xx: a 2xx stops redelivery, a
// 401 means the signature was bad, anything else makes the provider retry
// the whole call. No internal error detail leaks into the response body.
func (h *WebhookHandler) HandleProviderWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Errorw("failed to read webhook request body", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	headers := make(map[string]string, len(c.Request.Header))
	for name := range c.Request.Header {
		headers[name] = c.GetHeader(name)
	}

	err = h.ingestionService.Ingest(c.Request.Context(), &service.IngestRequest{
		Body:    body,
		Headers: headers,
	})
	if err != nil {
		if ierr.IsPermissionDenied(err) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
		h.logger.Errorw("webhook ingestion failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
