// Package bus implements the MessageBus contract: named-topic pub/sub
// with per-topic-per-publisher FIFO and no cross-topic ordering
// guarantee. Topics used by steadyum-go: "runner/<worker-uuid>"
// (commands) and "runner-ack/<region-key>" (step acknowledgements).
// Ingest reaches the Partitioner over HTTP; no "partitionner" topic is
// published or subscribed.
//
// Grounded on original_source/.../zenoh.rs for the topic-key contract;
// backed by Kafka (github.com/twmb/franz-go/pkg/kgo), whose
// per-partition log ordering and "new group starts at the tail"
// default directly implement the spec's FIFO and no-history-for-late-
// subscribers rules.
package bus

import "context"

// Envelope is one delivered message: the raw bytes plus the topic it
// arrived on, letting a single subscriber loop fan out by topic if it
// chooses to multiplex.
type Envelope struct {
	Topic string
	Value []byte
}

// Bus is the MessageBus contract used by the rest of steadyum-go. Both
// the Kafka-backed implementation and a process-local implementation
// (used by tests) satisfy it.
type Bus interface {
	// Publish appends value to topic. Per-topic-per-publisher FIFO is
	// preserved; no ordering is implied relative to other topics or
	// other publishers on the same topic.
	Publish(ctx context.Context, topic string, value []byte) error

	// Subscribe returns a channel of Envelopes for topic and a cancel
	// function. A subscription declared now never observes messages
	// published to topic before this call returns.
	Subscribe(ctx context.Context, topic string) (<-chan Envelope, context.CancelFunc, error)

	// Close releases any underlying connections.
	Close() error
}
