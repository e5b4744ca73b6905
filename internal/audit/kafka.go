package audit

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/adred-codev/varbroker/internal/registry"
)

// kafkaForwarder mirrors audit records onto a Kafka topic via franz-go,
// the optional external audit trail named in the domain stack.
type kafkaForwarder struct {
	client *kgo.Client
	topic  string
}

func newKafkaForwarder(brokers []string, topic string) (*kafkaForwarder, error) {
	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &kafkaForwarder{client: client, topic: topic}, nil
}

func (f *kafkaForwarder) forward(entry registry.AuditEntry) {
	record := &kgo.Record{
		Topic: f.topic,
		Key:   []byte(fmt.Sprintf("%d", entry.Handle)),
		Value: []byte(fmt.Sprintf(`{"pid":%d,"handle":%d,"kind":%q}`,
			entry.PID, entry.Handle, entry.Value.Kind.String())),
	}
	// Fire-and-forget: a dropped audit record must never block a write.
	f.client.Produce(context.Background(), record, nil)
}

func (f *kafkaForwarder) close() {
	f.client.Close()
}
