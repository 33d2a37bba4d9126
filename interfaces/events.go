package interfaces

import "context"

// EventPublisher emits sync lifecycle events for downstream consumers.
// Publishing is best effort; sync progress never blocks on the broker.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
	Close() error
}
