// Package pubsub fans out change notifications to live subscribers.
package pubsub

import "context"

// Message is a payload delivered on a topic.
type Message struct {
	Topic   string
	Payload []byte
}

// Broker publishes and subscribes to topics. Subscribe returns a channel that is
// closed once ctx is cancelled or the returned cancel func is called.
type Broker interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topic string) (<-chan Message, func(), error)
}
