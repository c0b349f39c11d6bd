// Package memory records batch summaries in process memory, standing in
// for Pub/Sub in tests and in half-configured deployments.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// Publisher retains every summary handed to it, in publish order.
type Publisher struct {
	mu     sync.Mutex
	events []Event
}

// Event is one recorded batch summary.
type Event struct {
	Topic   string
	Payload any
}

// New returns an empty Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish appends the summary and returns a sequence-numbered ID.
func (p *Publisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	if topic == "" {
		return "", fmt.Errorf("topic is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Event{Topic: topic, Payload: payload})
	return fmt.Sprintf("mem-%d", len(p.events)), nil
}

// Events returns the recorded summaries in publish order.
func (p *Publisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// TopicEvents returns only the summaries published to topic.
func (p *Publisher) TopicEvents(topic string) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Event
	for _, e := range p.events {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}
