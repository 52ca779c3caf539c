package messaging

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Writer is the subset of kafka.Writer the bus needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Message is one event delivered to in-process subscribers.
type Message struct {
	Topic string
	Key   string
	Value []byte
}

// Kafka is the event bus adapter used by the outbox relay.
// With brokers configured it writes through kafka-go; local subscribers are
// always notified so development runs without a broker still observe events.
type Kafka struct {
	writer      Writer
	mu          sync.RWMutex
	subscribers map[string][]chan Message
	logger      *slog.Logger
}

func NewKafka(brokers []string, logger *slog.Logger) (*Kafka, error) {
	var writer Writer
	if len(brokers) > 0 {
		writer = &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		}
	}
	return NewKafkaWithWriter(writer, logger), nil
}

// NewKafkaWithWriter builds a bus around an injected writer; nil means in-process only.
func NewKafkaWithWriter(writer Writer, logger *slog.Logger) *Kafka {
	return &Kafka{
		writer:      writer,
		subscribers: make(map[string][]chan Message),
		logger:      logger,
	}
}

func (k *Kafka) Publish(ctx context.Context, topic string, key string, payload []byte) error {
	if topic == "" {
		return errors.New("messaging: topic is required")
	}
	if k.writer != nil {
		err := k.writer.WriteMessages(ctx, kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: payload,
		})
		if err != nil {
			if k.logger != nil {
				k.logger.Error("kafka write failed",
					"event", "kafka_publish_failed",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"topic", topic,
					"key", key,
					"error", err.Error(),
				)
			}
			return err
		}
	}

	k.mu.RLock()
	subs := append([]chan Message(nil), k.subscribers[topic]...)
	k.mu.RUnlock()

	message := Message{Topic: topic, Key: key, Value: append([]byte(nil), payload...)}
	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub <- message:
		default:
			if k.logger != nil {
				k.logger.Warn("dropping event for slow subscriber",
					"event", "kafka_publish_drop",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"topic", topic,
					"key", key,
				)
			}
		}
	}

	if k.logger != nil {
		k.logger.Info("event published",
			"event", "kafka_publish",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"key", key,
			"external", k.writer != nil,
		)
	}
	return nil
}

func (k *Kafka) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, Message) error,
) error {
	ch := make(chan Message, 128)

	k.mu.Lock()
	k.subscribers[topic] = append(k.subscribers[topic], ch)
	k.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				k.removeSubscriber(topic, ch)
				return
			case message := <-ch:
				if err := handler(ctx, message); err != nil && k.logger != nil {
					k.logger.Error("consumer handler failed",
						"event", "kafka_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"key", message.Key,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

// Close flushes and closes the broker writer, if any.
func (k *Kafka) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

func (k *Kafka) removeSubscriber(topic string, target chan Message) {
	k.mu.Lock()
	defer k.mu.Unlock()

	items := k.subscribers[topic]
	if len(items) == 0 {
		return
	}
	filtered := make([]chan Message, 0, len(items))
	for _, item := range items {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	k.subscribers[topic] = filtered
}
