package productsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/s0up4200/metasync/product"
)

// ErrInvalidEvent is returned for change events that cannot be applied
var ErrInvalidEvent = errors.New("invalid product change event")

// Event is a product change published by the store
type Event struct {
	Method  string          `json:"method"`
	Product product.Product `json:"product"`
}

// DecodeEvent parses and validates a change event
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	event.Method = strings.ToUpper(strings.TrimSpace(event.Method))
	switch event.Method {
	case "UPDATE", "CREATE", "DELETE":
	default:
		return Event{}, fmt.Errorf("%w: unknown method %q", ErrInvalidEvent, event.Method)
	}
	if event.Product.ID <= 0 {
		return Event{}, fmt.Errorf("%w: missing product id", ErrInvalidEvent)
	}
	return event, nil
}

// Apply queues the event on the syncer
func (s *Syncer) Apply(event Event) {
	if event.Method == "DELETE" {
		s.Delete(event.Product)
		return
	}
	s.Update(event.Product)
}

// MessageReader fetches Kafka messages and commits their offsets. *kafka.Reader implements it.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig locates the product change topic
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// KafkaSource feeds product change events from Kafka into a Syncer.
// Offsets are committed only once the changes of the fetched messages have
// been sent to the catalog, so unsent changes are redelivered after a restart.
type KafkaSource struct {
	reader MessageReader
	syncer *Syncer
	logger zerolog.Logger

	mu          sync.Mutex
	uncommitted []kafka.Message
}

// NewKafkaSource creates a consumer group reader for the topic
func NewKafkaSource(cfg KafkaConfig, syncer *Syncer, logger zerolog.Logger) (*KafkaSource, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.GroupID == "" {
		return nil, fmt.Errorf("kafka brokers, topic and group id are required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return NewKafkaSourceWithReader(reader, syncer, logger), nil
}

// NewKafkaSourceWithReader creates a source over an existing reader
func NewKafkaSourceWithReader(reader MessageReader, syncer *Syncer, logger zerolog.Logger) *KafkaSource {
	return &KafkaSource{
		reader: reader,
		syncer: syncer,
		logger: logger,
	}
}

// Consume fetches events until ctx is done and queues them on the syncer.
// Malformed events are logged and skipped. Offsets are committed by Flush.
func (k *KafkaSource) Consume(ctx context.Context) error {
	for {
		msg, err := k.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read product event: %w", err)
		}

		event, err := DecodeEvent(msg.Value)

		k.mu.Lock()
		if err == nil {
			k.syncer.Apply(event)
		}
		k.uncommitted = append(k.uncommitted, msg)
		k.mu.Unlock()

		if err != nil {
			k.logger.Warn().
				Err(err).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("Skipping product event")
			continue
		}

		k.logger.Debug().
			Str("method", event.Method).
			Str("retailer_id", event.Product.RetailerID()).
			Msg("Queued product event")
	}
}

// Flush sends the queued changes, then commits every fetched message.
// When a batch fails nothing is committed: the failed changes are requeued
// and their messages are committed after a later flush succeeds.
func (k *KafkaSource) Flush(ctx context.Context) (Result, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	result := k.syncer.Flush(ctx)
	if len(result.Failed) > 0 || len(k.uncommitted) == 0 {
		return result, nil
	}

	if err := k.reader.CommitMessages(ctx, k.uncommitted...); err != nil {
		return result, fmt.Errorf("failed to commit product event offsets: %w", err)
	}
	k.logger.Debug().Int("messages", len(k.uncommitted)).Msg("Committed product events")
	k.uncommitted = nil
	return result, nil
}

// Uncommitted returns the number of fetched messages whose offsets are not committed yet
func (k *KafkaSource) Uncommitted() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.uncommitted)
}

// Run consumes events and flushes every interval until ctx is done or the
// reader fails. It flushes once more before closing the reader.
func (k *KafkaSource) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	defer k.reader.Close()

	consumed := make(chan error, 1)
	go func() {
		consumed <- k.Consume(ctx)
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case err := <-consumed:
			k.shutdown()
			return err
		case <-ctx.Done():
			err := <-consumed
			k.shutdown()
			return err
		case <-ticker.C:
			if _, err := k.Flush(ctx); err != nil {
				k.logger.Warn().Err(err).Msg("Product events stay uncommitted until the next flush")
			}
		}
	}
}

func (k *KafkaSource) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if _, err := k.Flush(ctx); err != nil {
		k.logger.Error().Err(err).Msg("Final flush failed")
	}
	if n := k.Uncommitted(); n > 0 {
		k.logger.Warn().
			Int("uncommitted", n).
			Int("pending", k.syncer.Queue().Len()).
			Msg("Stopping with unsent product changes, their events will be redelivered")
	}
}
