// Package audit records AUDIT-flagged writes (spec §3.5) through zap,
// distinct from the operational zerolog logger in internal/logging: this
// is a structured record stream meant for a downstream pipeline, not a
// human tailing stdout.
package audit

import (
	"go.uber.org/zap"

	"github.com/adred-codev/varbroker/internal/registry"
)

// Sink receives every AUDIT-flagged write.
type Sink struct {
	logger *zap.Logger
	kafka  *kafkaForwarder // nil unless configured
}

// NewSink builds an audit sink writing structured records through zap. If
// brokers is non-empty, every record is also forwarded to Kafka.
func NewSink(logger *zap.Logger, brokers []string, topic string) (*Sink, error) {
	s := &Sink{logger: logger}
	if len(brokers) > 0 {
		fwd, err := newKafkaForwarder(brokers, topic)
		if err != nil {
			return nil, err
		}
		s.kafka = fwd
	}
	return s, nil
}

// Record implements the registry.AuditEntry callback signature.
func (s *Sink) Record(entry registry.AuditEntry) {
	s.logger.Info("variable write",
		zap.Int32("pid", entry.PID),
		zap.Uint32("handle", uint32(entry.Handle)),
		zap.String("kind", entry.Value.Kind.String()),
	)
	if s.kafka != nil {
		s.kafka.forward(entry)
	}
}

// Close releases the underlying Kafka client, if any.
func (s *Sink) Close() {
	if s.kafka != nil {
		s.kafka.close()
	}
}
