package registry

import (
	"io"
	"time"
)

// ClientID is the dense, 1-based client session identifier (spec §3.6).
type ClientID uint64

// Response is what the dispatcher hands back to a session's wake primitive
// once a request reaches a terminal state. Handle/Value/etc. are populated
// according to which request kind produced it.
type Response struct {
	Code    Code
	Handle  Handle
	Value   Value
	Type    Kind
	Flags   Flags
	Format  string
	Name    string
	Aliases []Handle
	CtxID   uint64

	// Length/RefCount/CreatedAt/ModifiedAt are only populated by GetInfo.
	Length     int
	RefCount   int
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Session is the ClientSession of spec §3.6. WakeCh is the client's wake
// primitive: the transport goroutine servicing this client blocks reading
// from it.
type Session struct {
	ID           ClientID
	PID          int32
	WakeCh       chan Response
	Signals      chan Signal
	WorkBuffer   []byte
	Blocked      bool
	InValidation bool
	Credentials  []int32

	// PrintWriter is the original caller's output sink for a PRINT
	// request currently redirected to a PRINT handler (spec §6.5).
	PrintWriter io.Writer
}

// signalQueueLen bounds a session's async notification queue; a session
// that never drains it starts dropping new signals rather than blocking
// the dispatcher (spec §6.1 "bounded queue length").
const signalQueueLen = 64

// NewSession constructs a session with a work buffer of the given size
// (chosen at client-open time per spec §3.6/§6.1).
func NewSession(id ClientID, pid int32, workBufLen int, creds []int32) *Session {
	return &Session{
		ID:          id,
		PID:         pid,
		WakeCh:      make(chan Response, 1),
		Signals:     make(chan Signal, signalQueueLen),
		WorkBuffer:  make([]byte, workBufLen),
		Credentials: creds,
	}
}

// Signal delivers an asynchronous notification wake. Non-blocking: a full
// queue drops the signal (diagnostic, matching the MODIFIED_QUEUE overflow
// policy of spec §6.4 generalized to every notification kind).
func (s *Session) Signal(sig Signal) bool {
	select {
	case s.Signals <- sig:
		return true
	default:
		return false
	}
}

// Wake delivers a terminal response to the session's wake primitive. It
// never blocks: the channel is buffered for exactly one outstanding reply,
// matching the single-producer/single-consumer slot of spec §5.
func (s *Session) Wake(r Response) {
	select {
	case s.WakeCh <- r:
	default:
	}
	s.Blocked = false
}
