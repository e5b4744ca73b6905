// Package relay implements registry.Relay, the out-of-process sink for
// MODIFIED_QUEUE deliveries (spec §3.4, §6.4), over NATS — the pack's
// messaging library for exactly this kind of fire-and-forget fan-out.
package relay

import (
	"encoding/binary"

	"github.com/nats-io/nats.go"

	"github.com/adred-codev/varbroker/internal/registry"
)

// NATSRelay publishes QueuePayloads to a subject derived from the
// subscriber's registered queue name.
type NATSRelay struct {
	nc     *nats.Conn
	prefix string
}

func NewNATSRelay(url, subjectPrefix string) (*NATSRelay, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &NATSRelay{nc: nc, prefix: subjectPrefix}, nil
}

// Enqueue implements registry.Relay. Non-fatal on error: a relay hiccup
// must never stall the dispatcher (spec §6.4 "diagnostic, not fatal").
func (r *NATSRelay) Enqueue(target string, payload registry.QueuePayload) bool {
	buf := encodePayload(payload)
	subject := r.prefix + target
	return r.nc.Publish(subject, buf) == nil
}

func (r *NATSRelay) Close() { r.nc.Close() }

// encodePayload packs the fixed header (handle, type, length) followed by
// inline bytes, mirroring the wire layout spec §6.4 describes for
// MODIFIED_QUEUE.
func encodePayload(p registry.QueuePayload) []byte {
	buf := make([]byte, 9+len(p.Inline))
	binary.BigEndian.PutUint32(buf[0:4], uint32(p.Handle))
	buf[4] = byte(p.Type)
	binary.BigEndian.PutUint32(buf[5:9], uint32(p.Length))
	copy(buf[9:], p.Inline)
	return buf
}
