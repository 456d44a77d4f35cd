package testutil

import (
	"context"
	"sync"

	ierr "github.com/flexprice/paygate/internal/errors"
	"github.com/flexprice/paygate/internal/publisher"
)

// PublishedMessage is one captured publish call
type PublishedMessage struct {
	Payload []byte
	Meta    publisher.Metadata
}

// InMemoryPublisher implements publisher.RawPublisher and records every
// publish for assertions. FailNext injects one publish failure.
type InMemoryPublisher struct {
	mu       sync.Mutex
	messages []PublishedMessage

	FailNext bool
}

func NewInMemoryPublisher() *InMemoryPublisher {
	return &InMemoryPublisher{}
}

func (p *InMemoryPublisher) PublishRaw(ctx context.Context, payload []byte, meta publisher.Metadata) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailNext {
		p.FailNext = false
		return ierr.NewError("injected publish failure").
			WithHint("Simulated queue outage").
			Mark(ierr.ErrSystem)
	}

	copied := make([]byte, len(payload))
	copy(copied, payload)
	p.messages = append(p.messages, PublishedMessage{Payload: copied, Meta: meta})
	return nil
}

func (p *InMemoryPublisher) Close() error {
	return nil
}

// Messages returns the captured publishes
func (p *InMemoryPublisher) Messages() []PublishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PublishedMessage, len(p.messages))
	copy(out, p.messages)
	return out
}

// Clear drops all captured publishes
func (p *InMemoryPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = nil
	p.FailNext = false
}
