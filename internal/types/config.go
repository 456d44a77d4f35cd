package types

type RunMode string

const (
	// ModeLocal is the mode for running both the API server and the consumer locally
	ModeLocal RunMode = "local"
	// ModeAPI is the mode for running just the ingestion API server
	ModeAPI RunMode = "api"
	// ModeConsumer is the mode for running just the queue consumer
	ModeConsumer RunMode = "consumer"
	// ModeAWSLambdaAPI is the mode for running the ingestion API in AWS Lambda
	ModeAWSLambdaAPI RunMode = "aws_lambda_api"
	// ModeAWSLambdaConsumer is the mode for running the SQS batch consumer in AWS Lambda
	ModeAWSLambdaConsumer RunMode = "aws_lambda_consumer"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
)
