package config

import (
	"github.com/flexprice/paygate/internal/types"
)

// EventConfig holds configuration for raw payload publishing
type EventConfig struct {
	PublishDestination types.PublishDestination `mapstructure:"publish_destination" default:"pubsub"`
}
