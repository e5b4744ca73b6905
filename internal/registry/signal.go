package registry

// Signal is an asynchronous, out-of-band wake delivered to a subscriber's
// notification queue — distinct from a session's own synchronous
// request/response slot (WakeCh). This mirrors spec §3.4/§6.5: a
// notification is "one logical wake"; the subscriber's own pending request,
// if any, is untouched by it.
type Signal struct {
	Kind   NotifyKind
	Handle Handle
	TxnID  uint64
	Value  Value
}

// QueuePayload is the MODIFIED_QUEUE wire record of spec §6.4: a fixed
// header followed by inline bytes for string/blob values.
type QueuePayload struct {
	Handle Handle
	Type   Kind
	Length int
	Scalar Value
	Inline []byte
}

// MaxQueueElementSize bounds a single MODIFIED_QUEUE payload; larger
// payloads are dropped with a size-zero record rather than partially
// delivered (spec §6.4).
const MaxQueueElementSize = 4096

// BuildQueuePayload packs a Storage's current value into a QueuePayload,
// returning ok=false if it would exceed MaxQueueElementSize.
func BuildQueuePayload(handle Handle, v Value) (QueuePayload, bool) {
	p := QueuePayload{Handle: handle, Type: v.Kind, Scalar: v}
	switch v.Kind {
	case KindString:
		p.Inline = v.Str
		p.Length = len(v.Str)
	case KindBlob:
		p.Inline = v.Blob
		p.Length = len(v.Blob)
	}
	if len(p.Inline) > MaxQueueElementSize {
		return QueuePayload{}, false
	}
	return p, true
}

// Relay is component S: the out-of-process sink for MODIFIED_QUEUE
// deliveries. Enqueue returns false if the target's queue is full or the
// payload was dropped; the registry never treats that as fatal (spec §6.4:
// "diagnostic, not fatal").
type Relay interface {
	Enqueue(target string, payload QueuePayload) bool
}

// SessionDirectory lets the registry resolve a notification's subscriber
// client id back to a live *Session, and check PID liveness for the orphan
// sweep described in spec §4.7. It is implemented by whatever owns the
// session table (component K) — the registry itself stays agnostic of how
// sessions are tracked across a transport boundary.
type SessionDirectory interface {
	Lookup(id ClientID) (*Session, bool)
	IsLive(pid int32) bool
}

// AuditEntry is one line the AUDIT flag causes Set to emit (spec §3.5).
type AuditEntry struct {
	PID    int32
	Handle Handle
	Value  Value
}
