package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"leadbook/internal/buyer/models"
	"leadbook/internal/platform/config"
)

// HistoryEvent is the message value written for every committed history entry.
type HistoryEvent struct {
	ID        string      `json:"id"`
	BuyerID   string      `json:"buyerId"`
	ChangedBy string      `json:"changedBy"`
	ChangedAt time.Time   `json:"changedAt"`
	Action    string      `json:"action"`
	Changes   models.Diff `json:"changes,omitempty"`
}

// Producer is the subset of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// HistoryPublisher writes history entries to a topic keyed by buyer id,
// so a buyer's events stay ordered within one partition.
type HistoryPublisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

// NewHistoryPublisher dials the brokers and makes sure the topic exists.
func NewHistoryPublisher(ctx context.Context, cfg config.Kafka, logger *slog.Logger) (*HistoryPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.HistoryTopic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	if err := EnsureTopic(ctx, kadm.NewClient(client), cfg.HistoryTopic, cfg.Partitions, cfg.ReplicationFactor); err != nil {
		client.Close()
		return nil, err
	}
	return NewHistoryPublisherWithProducer(client, cfg.HistoryTopic, logger), nil
}

// NewHistoryPublisherWithProducer wraps an existing producer.
func NewHistoryPublisherWithProducer(p Producer, topic string, logger *slog.Logger) *HistoryPublisher {
	return &HistoryPublisher{producer: p, topic: topic, logger: logger}
}

// EnsureTopic creates topic if it is missing.
func EnsureTopic(ctx context.Context, adm *kadm.Client, topic string, partitions int32, replication int16) error {
	resp, err := adm.CreateTopic(ctx, partitions, replication, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, resp.Err)
	}
	return nil
}

// Publish writes one entry synchronously.
func (p *HistoryPublisher) Publish(ctx context.Context, entry *models.HistoryEntry) error {
	value, err := json.Marshal(HistoryEvent{
		ID:        entry.ID,
		BuyerID:   entry.BuyerID,
		ChangedBy: entry.ChangedBy,
		ChangedAt: entry.ChangedAt,
		Action:    string(entry.Action),
		Changes:   entry.Changes,
	})
	if err != nil {
		return fmt.Errorf("marshal history event: %w", err)
	}

	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(entry.BuyerID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(entry.Action)},
		},
	}
	if err := p.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce history event: %w", err)
	}
	p.logger.DebugContext(ctx, "history event published",
		"buyer_id", entry.BuyerID,
		"action", entry.Action,
	)
	return nil
}

// Close flushes and closes the producer.
func (p *HistoryPublisher) Close() {
	p.producer.Close()
}
