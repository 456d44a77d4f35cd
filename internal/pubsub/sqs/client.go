package sqs

import (
	"context"
	"fmt"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/flexprice/paygate/internal/config"
)

// Client wraps the SQS SDK client, constructed once per process and
// injected into the publisher and receiver.
type Client struct {
	sqs      *sqs.Client
	queueURL string
}

func NewClient(cfg *config.Configuration) (*Client, error) {
	if cfg.SQS.QueueURL == "" {
		return nil, nil
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(context.Background(),
		awsConfig.WithRegion(cfg.SQS.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	return &Client{
		sqs:      sqs.NewFromConfig(awsCfg),
		queueURL: cfg.SQS.QueueURL,
	}, nil
}

func (c *Client) SQS() *sqs.Client {
	return c.sqs
}

func (c *Client) QueueURL() string {
	return c.queueURL
}
