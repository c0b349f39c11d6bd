// Package publisher defines the event publishing port used to announce
// batch insert summaries to downstream consumers.
package publisher

import "context"

// Publisher sends one payload to a named topic and returns a message ID.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// NoOp drops every payload. Used when publishing is unconfigured.
type NoOp struct{}

// Publish does nothing and returns an empty ID.
func (NoOp) Publish(context.Context, string, any) (string, error) {
	return "", nil
}
