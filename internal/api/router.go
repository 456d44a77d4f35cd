package api

import (
	v1 "github.com/flexprice/paygate/internal/api/v1"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Webhook *v1.WebhookHandler
	Health  *v1.HealthHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.Default()

	router.GET("/health", handlers.Health.Health)

	// v1 routes
	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/stripe", handlers.Webhook.HandleProviderWebhook)
	}
}
