package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DRSN-tech/catalog-sync/internal/cfg"
	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/DRSN-tech/catalog-sync/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/segmentio/kafka-go"
)

// DeadLetterProducer публикует окончательно отброшенные события в Kafka,
// чтобы их можно было разобрать и переиграть вне движка.
type DeadLetterProducer struct {
	writer *kafka.Writer
	logger logger.Logger
	cfg    *cfg.KafkaCfg
}

// deadLetterMessage — полный контекст отказа: самого события достаточно
// для повторной постановки в очередь.
type deadLetterMessage struct {
	EventID    string    `json:"event_id"`
	Source     string    `json:"source"`
	ExternalID string    `json:"external_id"`
	Operation  string    `json:"operation"`
	ReceivedAt time.Time `json:"received_at"`
	FailedAt   time.Time `json:"failed_at"`
	Error      string    `json:"error"`
}

func NewDeadLetterProducer(logger logger.Logger, cfg *cfg.KafkaCfg) (*DeadLetterProducer, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.DeadLetterTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    10,
		BatchTimeout: 500 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warnf("Kafka producer error: %s", err.Error())
			}
		},
	}

	return &DeadLetterProducer{
		writer: writer,
		logger: logger,
		cfg:    cfg,
	}, nil
}

// Publish сериализует событие с причиной отказа. Ключ — внешний id:
// отказы одной сущности попадают в одну партицию и читаются по порядку.
func (p *DeadLetterProducer) Publish(ctx context.Context, ev domain.SyncEvent, cause error) error {
	msg := deadLetterMessage{
		EventID:    ev.ID,
		Source:     string(ev.Source),
		ExternalID: ev.ExternalID,
		Operation:  string(ev.Op),
		ReceivedAt: ev.ReceivedAt,
		FailedAt:   time.Now(),
		Error:      cause.Error(),
	}

	value, err := json.Marshal(msg)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(string(ev.Source) + ":" + ev.ExternalID),
		Value: value,
	})
}

func (p *DeadLetterProducer) EnsureTopic(timeout time.Duration) error {
	conn, err := kafka.Dial(p.cfg.NetworkMode, p.cfg.Brokers[0])
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(p.cfg.DeadLetterTopic)
	if err == nil && len(partitions) > 0 {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		err := conn.CreateTopics(kafka.TopicConfig{
			Topic:             p.cfg.DeadLetterTopic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), fmt.Errorf("failed to create topic %s: %w", p.cfg.DeadLetterTopic, err))
		}
		return nil
	case <-time.After(timeout):
		_ = conn.Close()
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("timeout: %v, topic: %s", timeout, p.cfg.DeadLetterTopic))
	}
}

func (p *DeadLetterProducer) Close() error {
	return p.writer.Close()
}
