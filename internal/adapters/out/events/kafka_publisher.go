// internal/adapters/out/events/kafka_publisher.go
package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	usecase "sodistore/internal/application/usecase"
)

var ErrDisabled = errors.New("events: kafka disabled")

// KafkaSettlementPublisher publishes settlement outcomes to Kafka.
// Messages are keyed by snapshotId so outcomes for one attempt land in
// order on the same partition.
type KafkaSettlementPublisher struct {
	writer *kafka.Writer
}

// NewKafkaSettlementPublisher returns nil when brokersCSV is empty;
// the usecase treats a nil publisher as "publishing disabled".
func NewKafkaSettlementPublisher(brokersCSV, topic string) *KafkaSettlementPublisher {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil
	}

	return &KafkaSettlementPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *KafkaSettlementPublisher) Publish(ctx context.Context, ev usecase.SettlementEvent) error {
	if p == nil || p.writer == nil {
		return ErrDisabled
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.SnapshotID),
		Value: data,
		Time:  time.Now().UTC(),
	})
}

func (p *KafkaSettlementPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
