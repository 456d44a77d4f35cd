package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexprice/paygate/internal/config"
	"github.com/flexprice/paygate/internal/logger"
	"github.com/flexprice/paygate/internal/types"
)

func TestProvidePubSub(t *testing.T) {
	cfg := config.GetDefaultConfig()
	log, err := logger.NewLogger(cfg)
	require.NoError(t, err)

	cfg.Webhook.PubSub = types.MemoryPubSub
	ps, err := providePubSub(cfg, log)
	require.NoError(t, err)
	assert.NotNil(t, ps)

	// An unrecognized transport must fail construction, not limp along
	// to a nil pubsub at consumer startup.
	cfg.Webhook.PubSub = "carrier_pigeon"
	ps, err = providePubSub(cfg, log)
	require.Error(t, err)
	assert.Nil(t, ps)
	assert.Contains(t, err.Error(), "carrier_pigeon")
}
