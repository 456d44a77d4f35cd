package types

// PublishDestination determines where the gateway publishes raw webhook payloads
type PublishDestination string

const (
	PublishToPubSub PublishDestination = "pubsub"
	PublishToSQS    PublishDestination = "sqs"
)
