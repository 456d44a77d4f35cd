package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Shopify/sarama"
	"github.com/flexprice/paygate/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig
	Webhook    WebhookConfig `validate:"required"`
	Event      EventConfig
	Kafka      KafkaConfig
	SQS        SQSConfig
	DynamoDB   DynamoDBConfig
	Logging    LoggingConfig `validate:"required"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" default:":8080"`
}

type KafkaConfig struct {
	Brokers       []string             `mapstructure:"brokers"`
	ConsumerGroup string               `mapstructure:"consumer_group"`
	Topic         string               `mapstructure:"topic"`
	ClientID      string               `mapstructure:"client_id"`
	TLS           bool                 `mapstructure:"tls"`
	UseSASL       bool                 `mapstructure:"use_sasl"`
	SASLMechanism sarama.SASLMechanism `mapstructure:"sasl_mechanism"`
	SASLUser      string               `mapstructure:"sasl_user"`
	SASLPassword  string               `mapstructure:"sasl_password"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/paygate")

	// Set up environment variables support
	v.SetEnvPrefix("PAYGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ApplyDefaults fills safe defaults for optional settings. The webhook
// secret only defaults outside production so that real deployments fail
// fast on a missing secret.
func (c *Configuration) ApplyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Webhook.SignatureHeader == "" {
		c.Webhook.SignatureHeader = "stripe-signature"
	}
	if c.Webhook.Topic == "" {
		c.Webhook.Topic = "webhook_events"
	}
	if c.Webhook.PubSub == "" {
		c.Webhook.PubSub = types.MemoryPubSub
	}
	if c.Event.PublishDestination == "" {
		c.Event.PublishDestination = types.PublishToPubSub
	}
	if c.Webhook.Secret == "" && !c.IsProduction() {
		c.Webhook.Secret = "test_secret"
	}
	if c.DynamoDB.TableName == "" && !c.IsProduction() {
		c.DynamoDB.TableName = "paygate_ledger"
	}
	if c.SQS.MaxBatchSize <= 0 {
		c.SQS.MaxBatchSize = 10
	}
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.IsProduction() && c.Webhook.Secret == "" {
		return errors.New("webhook secret is required in production")
	}
	if c.DynamoDB.TableName == "" {
		return errors.New("dynamodb table_name is required")
	}
	if c.Event.PublishDestination == types.PublishToSQS && c.SQS.QueueURL == "" {
		return errors.New("sqs queue_url is required when publishing to sqs")
	}
	return nil
}

// IsProduction reports whether the process runs against real provider traffic
func (c Configuration) IsProduction() bool {
	switch c.Deployment.Mode {
	case types.ModeAWSLambdaAPI, types.ModeAWSLambdaConsumer:
		return true
	default:
		return false
	}
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or tests without a config file
func GetDefaultConfig() *Configuration {
	cfg := &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
	}
	cfg.ApplyDefaults()
	return cfg
}
