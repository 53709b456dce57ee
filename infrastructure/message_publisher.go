package infrastructure

import "context"

// MessagePublisher sends raw payloads to a message bus subject. messageID lets the
// bus drop redelivered copies of the same event.
type MessagePublisher interface {
	Publish(ctx context.Context, subject, messageID string, data []byte) error
}
