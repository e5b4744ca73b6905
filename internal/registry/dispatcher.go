package registry

import "sync"

// metricsSink is the narrow slice of internal/metrics.Registry the
// dispatcher needs, kept as an interface so this package never imports the
// Prometheus client directly (component J only counts; it does not decide
// how counters are exported).
type metricsSink interface {
	ObserveRequest(kind, code string)
}

// dispatchJob is one inbox entry: a request plus the channel its submitter
// blocks on for the result.
type dispatchJob struct {
	session *Session
	req     Request
	done    chan Response
}

// inboxLen bounds how many requests from concurrent transport goroutines may
// be queued ahead of the worker before Submit blocks its caller.
const inboxLen = 256

// Dispatcher is component J: the fixed request-kind-to-handler table plus
// the post-handler unblock rule of spec §4.6. It owns the single worker
// goroutine of spec §5 — Dispatch itself has no locking and must only ever
// run on that one goroutine, which is why every concurrent caller (the
// transport layer) goes through Submit instead.
type Dispatcher struct {
	reg      *Registry
	sessions *SessionTable
	metrics  metricsSink
	table    [reqCount]handlerEntry

	inbox     chan dispatchJob
	closeOnce sync.Once
}

type handlerEntry struct {
	name string
	fn   func(d *Dispatcher, s *Session, req Request) Response
}

func NewDispatcher(reg *Registry, sessions *SessionTable, m metricsSink) *Dispatcher {
	d := &Dispatcher{reg: reg, sessions: sessions, metrics: m, inbox: make(chan dispatchJob, inboxLen)}
	d.table[ReqOpen] = handlerEntry{"OPEN", (*Dispatcher).handleOpen}
	d.table[ReqClose] = handlerEntry{"CLOSE", (*Dispatcher).handleClose}
	d.table[ReqEcho] = handlerEntry{"ECHO", (*Dispatcher).handleEcho}
	d.table[ReqNew] = handlerEntry{"NEW", (*Dispatcher).handleNew}
	d.table[ReqFind] = handlerEntry{"FIND", (*Dispatcher).handleFind}
	d.table[ReqGet] = handlerEntry{"GET", (*Dispatcher).handleGet}
	d.table[ReqPrint] = handlerEntry{"PRINT", (*Dispatcher).handlePrint}
	d.table[ReqSet] = handlerEntry{"SET", (*Dispatcher).handleSet}
	d.table[ReqType] = handlerEntry{"TYPE", (*Dispatcher).handleType}
	d.table[ReqName] = handlerEntry{"NAME", (*Dispatcher).handleName}
	d.table[ReqLength] = handlerEntry{"LENGTH", (*Dispatcher).handleLength}
	d.table[ReqNotify] = handlerEntry{"NOTIFY", (*Dispatcher).handleNotify}
	d.table[ReqNotifyCancel] = handlerEntry{"NOTIFY_CANCEL", (*Dispatcher).handleNotifyCancel}
	d.table[ReqGetValidationRequest] = handlerEntry{"GET_VALIDATION_REQUEST", (*Dispatcher).handleGetValidationRequest}
	d.table[ReqSendValidationResponse] = handlerEntry{"SEND_VALIDATION_RESPONSE", (*Dispatcher).handleSendValidationResponse}
	d.table[ReqOpenPrintSession] = handlerEntry{"OPEN_PRINT_SESSION", (*Dispatcher).handleOpenPrintSession}
	d.table[ReqClosePrintSession] = handlerEntry{"CLOSE_PRINT_SESSION", (*Dispatcher).handleClosePrintSession}
	d.table[ReqGetFirst] = handlerEntry{"GET_FIRST", (*Dispatcher).handleGetFirst}
	d.table[ReqGetNext] = handlerEntry{"GET_NEXT", (*Dispatcher).handleGetNext}
	d.table[ReqAlias] = handlerEntry{"ALIAS", (*Dispatcher).handleAlias}
	d.table[ReqSetFlags] = handlerEntry{"SET_FLAGS", (*Dispatcher).handleSetFlags}
	d.table[ReqClearFlags] = handlerEntry{"CLEAR_FLAGS", (*Dispatcher).handleClearFlags}
	d.table[ReqCalcResponse] = handlerEntry{"CALC_RESPONSE", (*Dispatcher).handleCalcResponse}
	d.table[ReqGetFlags] = handlerEntry{"GET_FLAGS", (*Dispatcher).handleGetFlags}
	d.table[ReqGetInfo] = handlerEntry{"GET_INFO", (*Dispatcher).handleGetInfo}
	d.table[ReqGetAliases] = handlerEntry{"GET_ALIASES", (*Dispatcher).handleGetAliases}
	go d.run()
	return d
}

// run is the single worker goroutine of spec §5: it is the only caller of
// Dispatch, so the registry and notification lists never need their own
// locking. It exits once the inbox is closed by Close.
func (d *Dispatcher) run() {
	for job := range d.inbox {
		job.done <- d.Dispatch(job.session, job.req)
	}
}

// Submit is the concurrency-safe entry point for transports: any number of
// goroutines may call it at once, since it only ever hands requests to the
// single worker goroutine through the inbox channel and blocks for that
// goroutine's result.
func (d *Dispatcher) Submit(s *Session, req Request) Response {
	done := make(chan Response, 1)
	d.inbox <- dispatchJob{session: s, req: req, done: done}
	return <-done
}

// Close stops the worker goroutine. Callers must ensure every transport has
// stopped submitting before calling this.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.inbox) })
}

// Dispatch is the single serialization point of spec §5: the caller is
// expected to invoke this from one worker goroutine so the Registry and
// notification lists never need their own locking. Tests call it directly
// since a test body is itself a single goroutine; every concurrent
// transport must go through Submit instead.
func (d *Dispatcher) Dispatch(s *Session, req Request) Response {
	entry := d.table[0]
	if int(req.Kind) > 0 && int(req.Kind) < int(reqCount) {
		entry = d.table[req.Kind]
	}
	if entry.fn == nil {
		resp := Response{Code: NotSupported}
		d.observe("INVALID", resp.Code)
		return resp
	}

	resp := entry.fn(d, s, req)
	d.observe(entry.name, resp.Code)

	switch {
	case resp.Code == InProgress:
		// Handler parked the session in H or in a pending transaction;
		// its wake primitive fires later from UnblockClients/Close.
	case req.Kind == ReqOpen || req.Kind == ReqClose:
		// These manage their own session-table side effects and wake.
	default:
		s.Wake(resp)
	}
	return resp
}

func (d *Dispatcher) observe(name string, code Code) {
	if d.metrics != nil {
		d.metrics.ObserveRequest(name, code.String())
	}
}

func (d *Dispatcher) handleOpen(s *Session, req Request) Response {
	ns := d.sessions.Register(s.PID, s.Credentials)
	if ns == nil {
		return Response{Code: NoSpace}
	}
	ns.Wake(Response{Code: OK, Handle: Handle(ns.ID)})
	return Response{Code: OK, Handle: Handle(ns.ID)}
}

func (d *Dispatcher) handleClose(s *Session, req Request) Response {
	d.reg.Close(s)
	d.sessions.Close(s.ID)
	s.Wake(Response{Code: OK})
	return Response{Code: OK}
}

func (d *Dispatcher) handleEcho(s *Session, req Request) Response {
	return Response{Code: OK, Value: req.Value}
}

func (d *Dispatcher) handleNew(s *Session, req Request) Response {
	h, code := d.reg.AddNew(req.NewInfo)
	return Response{Code: code, Handle: h}
}

func (d *Dispatcher) handleFind(s *Session, req Request) Response {
	h, code := d.reg.Find(s, req.Name, req.Instance)
	return Response{Code: code, Handle: h}
}

func (d *Dispatcher) handleGet(s *Session, req Request) Response {
	resp, code := d.reg.GetByHandle(s, req.Handle)
	resp.Code = code
	return resp
}

func (d *Dispatcher) handlePrint(s *Session, req Request) Response {
	resp, code := d.reg.PrintByHandle(s, req.Handle)
	resp.Code = code
	return resp
}

func (d *Dispatcher) handleSet(s *Session, req Request) Response {
	resp, code := d.reg.Set(s, req.Handle, req.Value)
	resp.Code = code
	return resp
}

func (d *Dispatcher) handleType(s *Session, req Request) Response {
	t, code := d.reg.GetType(s, req.Handle)
	return Response{Code: code, Type: t}
}

func (d *Dispatcher) handleName(s *Session, req Request) Response {
	n, code := d.reg.GetName(s, req.Handle)
	return Response{Code: code, Name: n}
}

func (d *Dispatcher) handleLength(s *Session, req Request) Response {
	n, code := d.reg.GetLength(s, req.Handle)
	return Response{Code: code, Handle: Handle(n)}
}

func (d *Dispatcher) handleNotify(s *Session, req Request) Response {
	code := d.reg.Attach(s, req.Handle, req.NotifyKind, req.MQTarget)
	return Response{Code: code}
}

func (d *Dispatcher) handleNotifyCancel(s *Session, req Request) Response {
	code := d.reg.CancelNotify(s, req.Handle, req.NotifyKind)
	return Response{Code: code}
}

func (d *Dispatcher) handleGetValidationRequest(s *Session, req Request) Response {
	h, v, code := d.reg.GetValidationRequest(req.TxnID)
	return Response{Code: code, Handle: h, Value: v}
}

func (d *Dispatcher) handleSendValidationResponse(s *Session, req Request) Response {
	code := d.reg.ResolveValidation(s, req.TxnID, req.Result)
	return Response{Code: code}
}

func (d *Dispatcher) handleOpenPrintSession(s *Session, req Request) Response {
	h, w, code := d.reg.OpenPrintSession(req.TxnID)
	if code == OK {
		s.PrintWriter = w
	}
	return Response{Code: code, Handle: h}
}

func (d *Dispatcher) handleClosePrintSession(s *Session, req Request) Response {
	code := d.reg.ClosePrintSession(req.TxnID, req.Result)
	return Response{Code: code}
}

func (d *Dispatcher) handleGetFirst(s *Session, req Request) Response {
	ctxID, h, code := d.reg.GetFirst(s, req.Search)
	return Response{Code: code, Handle: h, CtxID: ctxID}
}

func (d *Dispatcher) handleGetNext(s *Session, req Request) Response {
	h, code := d.reg.GetNext(s, req.CtxID)
	return Response{Code: code, Handle: h, CtxID: req.CtxID}
}

func (d *Dispatcher) handleAlias(s *Session, req Request) Response {
	h, code := d.reg.Alias(s, req.AliasReq)
	return Response{Code: code, Handle: h}
}

func (d *Dispatcher) handleSetFlags(s *Session, req Request) Response {
	f, code := d.reg.SetFlags(s, req.Handle, req.FlagBits)
	return Response{Code: code, Flags: f}
}

func (d *Dispatcher) handleClearFlags(s *Session, req Request) Response {
	f, code := d.reg.ClearFlags(s, req.Handle, req.FlagBits)
	return Response{Code: code, Flags: f}
}

func (d *Dispatcher) handleCalcResponse(s *Session, req Request) Response {
	resp, code := d.reg.CalcResponse(s, req.Handle, req.Result)
	resp.Code = code
	return resp
}

func (d *Dispatcher) handleGetFlags(s *Session, req Request) Response {
	f, code := d.reg.GetFlags(s, req.Handle)
	return Response{Code: code, Flags: f}
}

func (d *Dispatcher) handleGetInfo(s *Session, req Request) Response {
	info, code := d.reg.GetInfo(s, req.Handle)
	if code != OK {
		return Response{Code: code}
	}
	return Response{
		Code:       code,
		Handle:     info.Handle,
		Name:       info.Name,
		Type:       info.Type,
		Flags:      info.Flags,
		Format:     info.Format,
		Length:     info.Length,
		RefCount:   info.RefCount,
		CreatedAt:  info.CreatedAt,
		ModifiedAt: info.ModifiedAt,
	}
}

func (d *Dispatcher) handleGetAliases(s *Session, req Request) Response {
	aliases, code := d.reg.GetAliases(s, req.Handle, req.AliasBuf)
	return Response{Code: code, Aliases: aliases}
}
