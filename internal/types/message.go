package types

// QueueMessage is one queued raw webhook payload as seen by the batch
// consumer, regardless of transport (SQS, Kafka, in-memory). ID is the
// transport's opaque message identifier used to report partial batch
// failures.
type QueueMessage struct {
	ID   string
	Body []byte
}
