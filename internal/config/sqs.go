package config

// SQSConfig holds configuration for the SQS transport
type SQSConfig struct {
	Region   string `mapstructure:"region"`
	QueueURL string `mapstructure:"queue_url"`
	// MaxBatchSize bounds one ReceiveMessage poll; SQS caps this at 10
	MaxBatchSize int32 `mapstructure:"max_batch_size" default:"10"`
	// WaitTimeSeconds enables long polling on the receive loop
	WaitTimeSeconds int32 `mapstructure:"wait_time_seconds" default:"20"`
}
