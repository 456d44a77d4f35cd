package config

import (
	"time"

	"github.com/flexprice/paygate/internal/types"
)

// WebhookConfig represents the configuration for inbound provider webhooks
type WebhookConfig struct {
	// Secret is the shared HMAC secret for signature verification.
	// Defaults to test_secret outside production.
	Secret string `mapstructure:"secret"`
	// SignatureHeader is the provider-specific header carrying the signature
	SignatureHeader string `mapstructure:"signature_header" default:"stripe-signature"`
	// Tolerance bounds |now - t| for signature freshness; <= 0 disables the check
	Tolerance time.Duration `mapstructure:"tolerance" default:"5m"`
	// Topic is the queue topic raw payloads are published to
	Topic string `mapstructure:"topic" default:"webhook_events"`
	// PubSub selects the transport for local/consumer modes
	PubSub types.PubSubType `mapstructure:"pubsub" default:"memory"`
}
