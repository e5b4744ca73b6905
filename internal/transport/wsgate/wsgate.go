// Package wsgate is the WebSocket front door for varbrokerd, adapted from
// the teacher's gobwas/ws accept/read/write loop but speaking the
// registry's request/response protocol instead of broadcasting raw
// payloads to a hub.
package wsgate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/adred-codev/varbroker/internal/metrics"
	"github.com/adred-codev/varbroker/internal/ratelimit"
	"github.com/adred-codev/varbroker/internal/registry"
)

// wireValue mirrors registry.Value field-for-field; exactly one of the
// scalar fields or Str/Blob is meaningful, selected by Kind.
type wireValue struct {
	Kind string `json:"kind"`
	U16  uint16 `json:"u16,omitempty"`
	I16  int16  `json:"i16,omitempty"`
	U32  uint32 `json:"u32,omitempty"`
	I32  int32  `json:"i32,omitempty"`
	U64  uint64 `json:"u64,omitempty"`
	I64  int64  `json:"i64,omitempty"`
	F32  float32 `json:"f32,omitempty"`
	Str  string `json:"str,omitempty"`
	Blob []byte `json:"blob,omitempty"` // encoding/json base64-encodes []byte
}

func kindFromString(k string) registry.Kind {
	switch k {
	case "u16":
		return registry.KindU16
	case "i16":
		return registry.KindI16
	case "u32":
		return registry.KindU32
	case "i32":
		return registry.KindI32
	case "u64":
		return registry.KindU64
	case "i64":
		return registry.KindI64
	case "f32":
		return registry.KindF32
	case "string":
		return registry.KindString
	case "blob":
		return registry.KindBlob
	default:
		return registry.KindInvalid
	}
}

func decodeValue(wv wireValue) registry.Value {
	v := registry.Value{Kind: kindFromString(wv.Kind)}
	switch v.Kind {
	case registry.KindU16:
		v.U16 = wv.U16
	case registry.KindI16:
		v.I16 = wv.I16
	case registry.KindU32:
		v.U32 = wv.U32
	case registry.KindI32:
		v.I32 = wv.I32
	case registry.KindU64:
		v.U64 = wv.U64
	case registry.KindI64:
		v.I64 = wv.I64
	case registry.KindF32:
		v.F32 = wv.F32
	case registry.KindString:
		v.Str = []byte(wv.Str)
	case registry.KindBlob:
		v.Blob = wv.Blob
	}
	return v
}

// codeFromString is the inverse of registry.Code.String(), used to parse
// the Result field a client sends on SEND_VALIDATION_RESPONSE,
// CLOSE_PRINT_SESSION, and CALC_RESPONSE.
func codeFromString(s string) registry.Code {
	switch s {
	case "ALREADY":
		return registry.Already
	case "NOT_FOUND":
		return registry.NotFound
	case "ACCESS_DENIED":
		return registry.AccessDenied
	case "NOT_SUPPORTED":
		return registry.NotSupported
	case "RANGE":
		return registry.Range
	case "TOO_BIG":
		return registry.TooBig
	case "NO_MEM":
		return registry.NoMem
	case "NO_SPACE":
		return registry.NoSpace
	case "PIPE":
		return registry.Pipe
	case "NO_SUCH_PROCESS":
		return registry.NoSuchProcess
	default:
		return registry.OK
	}
}

func encodeValue(v registry.Value) wireValue {
	wv := wireValue{Kind: v.Kind.String()}
	switch v.Kind {
	case registry.KindU16:
		wv.U16 = v.U16
	case registry.KindI16:
		wv.I16 = v.I16
	case registry.KindU32:
		wv.U32 = v.U32
	case registry.KindI32:
		wv.I32 = v.I32
	case registry.KindU64:
		wv.U64 = v.U64
	case registry.KindI64:
		wv.I64 = v.I64
	case registry.KindF32:
		wv.F32 = v.F32
	case registry.KindString:
		wv.Str = string(v.Str)
	case registry.KindBlob:
		wv.Blob = v.Blob
	}
	return wv
}

// wireRequest/wireResponse are the JSON frames exchanged over the socket.
type wireRequest struct {
	Kind        string            `json:"kind"`
	Name        string            `json:"name,omitempty"`
	Instance    int32             `json:"instance,omitempty"`
	Handle      uint32            `json:"handle,omitempty"`
	Value       *wireValue        `json:"value,omitempty"`
	TxnID       uint64            `json:"txn_id,omitempty"`
	Result      string            `json:"result,omitempty"`
	FlagBits    uint32            `json:"flag_bits,omitempty"`
	CtxID       uint64            `json:"ctx_id,omitempty"`
	AliasBufLen int               `json:"alias_buf_len,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

type wireResponse struct {
	Code       string     `json:"code"`
	Handle     uint32     `json:"handle,omitempty"`
	Type       string     `json:"type,omitempty"`
	Name       string     `json:"name,omitempty"`
	Value      *wireValue `json:"value,omitempty"`
	CtxID      uint64     `json:"ctx_id,omitempty"`
	Flags      uint32     `json:"flags,omitempty"`
	Aliases    []uint32   `json:"aliases,omitempty"`
	Length     int        `json:"length,omitempty"`
	RefCount   int        `json:"ref_count,omitempty"`
	CreatedAt  int64      `json:"created_at,omitempty"`
	ModifiedAt int64      `json:"modified_at,omitempty"`
}

type wireSignal struct {
	Kind   string `json:"signal_kind"`
	Handle uint32 `json:"handle"`
	TxnID  uint64 `json:"txn_id,omitempty"`
}

// Server accepts TCP connections, performs the WebSocket handshake, and
// pumps each connection's frames through the dispatcher.
type Server struct {
	addr       string
	dispatcher *registry.Dispatcher
	sessions   *registry.SessionTable
	limiters   *ratelimit.Factory
	metrics    *metrics.Registry
	logger     zerolog.Logger

	listener net.Listener
	wg       sync.WaitGroup
}

func NewServer(addr string, d *registry.Dispatcher, sessions *registry.SessionTable, limiters *ratelimit.Factory, m *metrics.Registry, logger zerolog.Logger) *Server {
	return &Server{addr: addr, dispatcher: d, sessions: sessions, limiters: limiters, metrics: m, logger: logger}
}

func (s *Server) Start(ctx context.Context) error {
	if s.listener != nil {
		return errors.New("wsgate already started")
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = ln
	s.logger.Info().Str("addr", s.addr).Msg("wsgate listening")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx)
	}()
	return nil
}

func (s *Server) Stop() {
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error().Err(err).Msg("accept error")
			return
		}
		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			s.handleConnection(ctx, c)
		}(conn)
	}
}

func (s *Server) handleConnection(parent context.Context, conn net.Conn) {
	defer conn.Close()

	if _, err := ws.Upgrade(conn); err != nil {
		s.logger.Debug().Err(err).Msg("upgrade failed")
		return
	}

	session, err := s.openSession(conn)
	if err != nil {
		s.logger.Debug().Err(err).Msg("open failed")
		return
	}
	limiter := s.limiters.New()

	connCtx, cancel := context.WithCancel(parent)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.signalLoop(connCtx, session, conn)
	}()

	s.readLoop(connCtx, conn, session, limiter)
	cancel()
	<-done

	s.dispatcher.Submit(session, registry.Request{Kind: registry.ReqClose})
}

func (s *Server) openSession(conn net.Conn) (*registry.Session, error) {
	placeholder := registry.NewSession(0, nextPID(), 0, nil)
	resp := s.dispatcher.Submit(placeholder, registry.Request{Kind: registry.ReqOpen})
	if resp.Code != registry.OK {
		return nil, fmt.Errorf("open refused: %s", resp.Code)
	}
	sess, ok := s.sessions.Lookup(registry.ClientID(resp.Handle))
	if !ok {
		return nil, fmt.Errorf("registered session not found")
	}
	return sess, nil
}

func (s *Server) readLoop(ctx context.Context, conn net.Conn, session *registry.Session, limiter *rate.Limiter) {
	reader := wsutil.NewReader(conn, ws.StateServerSide)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		head, err := reader.NextFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Debug().Err(err).Msg("read frame error")
			}
			return
		}
		if head.OpCode == ws.OpClose {
			return
		}
		if head.OpCode != ws.OpText && head.OpCode != ws.OpBinary {
			if _, err := io.CopyN(io.Discard, reader, int64(head.Length)); err != nil {
				return
			}
			continue
		}

		payload := make([]byte, head.Length)
		if _, err := io.ReadFull(reader, payload); err != nil {
			return
		}

		if !limiter.Allow() {
			if s.metrics != nil {
				s.metrics.RateLimited.Inc()
			}
			continue
		}

		var wr wireRequest
		if err := json.Unmarshal(payload, &wr); err != nil {
			continue
		}
		req := decodeRequest(wr)
		// Submit hands the request to the dispatcher's single worker
		// goroutine and blocks for its result, but the result is not
		// written here: signalLoop is the sole writer of this
		// connection's socket, and every terminal response (whether
		// returned immediately or after a CALC/VALIDATE/PRINT wait)
		// flows to it through session.WakeCh. Writing it again here
		// would double-send the frame and race signalLoop's writer.
		s.dispatcher.Submit(session, req)
	}
}

// signalLoop drains both the session's terminal-reply channel and its
// asynchronous notification queue onto the socket, since both ultimately
// become frames on the same connection. It is the only goroutine that
// writes to conn once the session is open, which keeps concurrent
// WriteServerMessage calls from interleaving on the wire.
func (s *Server) signalLoop(ctx context.Context, session *registry.Session, conn net.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case resp := <-session.WakeCh:
			s.writeResponse(conn, resp)
		case sig := <-session.Signals:
			s.writeSignal(conn, sig)
		}
	}
}

func (s *Server) writeResponse(conn net.Conn, resp registry.Response) {
	wr := wireResponse{
		Code:       resp.Code.String(),
		Handle:     uint32(resp.Handle),
		Type:       resp.Type.String(),
		Name:       resp.Name,
		CtxID:      resp.CtxID,
		Flags:      uint32(resp.Flags),
		Length:     resp.Length,
		RefCount:   resp.RefCount,
	}
	if !resp.CreatedAt.IsZero() {
		wr.CreatedAt = resp.CreatedAt.Unix()
	}
	if !resp.ModifiedAt.IsZero() {
		wr.ModifiedAt = resp.ModifiedAt.Unix()
	}
	if len(resp.Aliases) > 0 {
		wr.Aliases = make([]uint32, len(resp.Aliases))
		for i, h := range resp.Aliases {
			wr.Aliases[i] = uint32(h)
		}
	}
	if resp.Type != registry.KindInvalid {
		v := encodeValue(resp.Value)
		wr.Value = &v
	}
	buf, err := json.Marshal(wr)
	if err != nil {
		return
	}
	if err := wsutil.WriteServerMessage(conn, ws.OpText, buf); err != nil {
		s.logger.Debug().Err(err).Msg("write response error")
	}
}

func (s *Server) writeSignal(conn net.Conn, sig registry.Signal) {
	buf, err := json.Marshal(wireSignal{Kind: sig.Kind.String(), Handle: uint32(sig.Handle), TxnID: sig.TxnID})
	if err != nil {
		return
	}
	if err := wsutil.WriteServerMessage(conn, ws.OpText, buf); err != nil {
		s.logger.Debug().Err(err).Msg("write signal error")
	}
}

// defaultAliasBufLen bounds how many alias handles GET_ALIASES returns when
// the client doesn't specify alias_buf_len.
const defaultAliasBufLen = 32

func decodeRequest(wr wireRequest) registry.Request {
	kind := kindFromWire(wr.Kind)
	req := registry.Request{
		Kind:     kind,
		Name:     wr.Name,
		Instance: wr.Instance,
		Handle:   registry.Handle(wr.Handle),
		TxnID:    wr.TxnID,
		Result:   codeFromString(wr.Result),
		FlagBits: registry.Flags(wr.FlagBits),
		CtxID:    wr.CtxID,
	}
	if wr.Value != nil {
		req.Value = decodeValue(*wr.Value)
	}
	if kind == registry.ReqGetAliases {
		n := wr.AliasBufLen
		if n <= 0 {
			n = defaultAliasBufLen
		}
		req.AliasBuf = make([]registry.Handle, n)
	}
	return req
}

func kindFromWire(k string) registry.RequestKind {
	switch k {
	case "OPEN":
		return registry.ReqOpen
	case "CLOSE":
		return registry.ReqClose
	case "ECHO":
		return registry.ReqEcho
	case "NEW":
		return registry.ReqNew
	case "FIND":
		return registry.ReqFind
	case "GET":
		return registry.ReqGet
	case "PRINT":
		return registry.ReqPrint
	case "SET":
		return registry.ReqSet
	case "TYPE":
		return registry.ReqType
	case "NAME":
		return registry.ReqName
	case "LENGTH":
		return registry.ReqLength
	case "NOTIFY":
		return registry.ReqNotify
	case "NOTIFY_CANCEL":
		return registry.ReqNotifyCancel
	case "GET_VALIDATION_REQUEST":
		return registry.ReqGetValidationRequest
	case "SEND_VALIDATION_RESPONSE":
		return registry.ReqSendValidationResponse
	case "OPEN_PRINT_SESSION":
		return registry.ReqOpenPrintSession
	case "CLOSE_PRINT_SESSION":
		return registry.ReqClosePrintSession
	case "GET_FIRST":
		return registry.ReqGetFirst
	case "GET_NEXT":
		return registry.ReqGetNext
	case "ALIAS":
		return registry.ReqAlias
	case "SET_FLAGS":
		return registry.ReqSetFlags
	case "CLEAR_FLAGS":
		return registry.ReqClearFlags
	case "CALC_RESPONSE":
		return registry.ReqCalcResponse
	case "GET_FLAGS":
		return registry.ReqGetFlags
	case "GET_INFO":
		return registry.ReqGetInfo
	case "GET_ALIASES":
		return registry.ReqGetAliases
	default:
		return registry.ReqInvalid
	}
}

var pidCounter int32

// nextPID stands in for the OS pid a real shared-memory client would
// present; over a socket transport the connection itself is the identity,
// so wsgate mints a monotonic one at accept time.
func nextPID() int32 {
	return atomic.AddInt32(&pidCounter, 1)
}
