package bus

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/steadyum/steadyum-go/cmn/nlog"
)

// KafkaBus is the production Bus implementation. Publish uses a single
// shared producer client; each Subscribe spins up its own consumer
// client in a fresh, randomly-named consumer group reset to the
// partition tail, so a subscription never observes history — matching
// the MessageBus contract's "late-joining subscribers do not see
// messages published before the subscription was declared."
type KafkaBus struct {
	brokers []string

	mu        sync.Mutex
	producer  *kgo.Client
	consumers []*kgo.Client
}

// NewKafkaBus dials brokers and returns a ready-to-use Bus.
func NewKafkaBus(brokers []string) (*KafkaBus, error) {
	producer, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaBus{brokers: brokers, producer: producer}, nil
}

func (b *KafkaBus) Publish(ctx context.Context, topic string, value []byte) error {
	var perr error
	var wg sync.WaitGroup
	wg.Add(1)
	b.producer.Produce(ctx, &kgo.Record{Topic: topic, Value: value}, func(_ *kgo.Record, err error) {
		perr = err
		wg.Done()
	})
	wg.Wait()
	return perr
}

func (b *KafkaBus) Subscribe(ctx context.Context, topic string) (<-chan Envelope, context.CancelFunc, error) {
	group := "steadyum-sub-" + uuid.NewString()
	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(b.brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumerGroup(group),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
	)
	if err != nil {
		return nil, nil, err
	}

	b.mu.Lock()
	b.consumers = append(b.consumers, consumer)
	b.mu.Unlock()

	out := make(chan Envelope, 64)
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(out)
		defer consumer.Close()
		for {
			fetches := consumer.PollFetches(subCtx)
			if subCtx.Err() != nil {
				return
			}
			fetches.EachError(func(t string, p int32, err error) {
				nlog.Errorf("bus: fetch error topic=%s partition=%d: %v", t, p, err)
			})
			fetches.EachRecord(func(r *kgo.Record) {
				select {
				case out <- Envelope{Topic: r.Topic, Value: r.Value}:
				case <-subCtx.Done():
				}
			})
		}
	}()

	return out, cancel, nil
}

func (b *KafkaBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.consumers {
		c.Close()
	}
	b.producer.Close()
	return nil
}
