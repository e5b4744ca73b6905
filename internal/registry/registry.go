package registry

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// VariableInfo is the input to AddNew (spec §4.1).
type VariableInfo struct {
	Name     string
	Instance int32
	GUID     string
	Kind     Kind
	Capacity int // required for KindString/KindBlob
	Initial  Value
	Flags    Flags
	Perm     Permission
	Format   string
	TagSpec  string
}

// VariableInfoOut is the read-side projection returned by GetInfo.
type VariableInfoOut struct {
	Handle     Handle
	Name       string
	Instance   int32
	Type       Kind
	Length     int
	Flags      Flags
	Format     string
	RefCount   int
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Registry is component E: the variable store, its name index (D), and the
// supporting tables (G transactions, H blocked set, I search contexts) that
// every operation in spec §4.1 touches.
type Registry struct {
	maxVariables int

	idents    []*Identifier      // dense, handle-1 indexed, never shrinks
	storages  map[uint64]*Storage
	nameIndex map[string]Handle // component D

	nextStorageID uint64
	tagNames      map[string]int32
	nextTagID     int32

	blocked *BlockedSet
	txns    *TransactionTable
	search  *SearchTable

	sessions        SessionDirectory
	relay           Relay
	auditFn         func(AuditEntry)
	onSignalDropped func()
	nowFn           func() time.Time
}

// Config bundles the Registry's dependencies (spec §9's "owned server
// instance with explicit lifetime" replacing the original's global state).
type Config struct {
	MaxVariables int
	Sessions     SessionDirectory
	Relay        Relay
	Audit        func(AuditEntry)

	// OnSignalDropped is invoked whenever a subscriber's signal queue is
	// full and a notification is dropped (spec §6.1 "bounded queue length,
	// diagnostic not fatal") — wired to a metrics counter by the caller.
	OnSignalDropped func()
}

func NewRegistry(cfg Config) *Registry {
	max := cfg.MaxVariables
	if max <= 0 {
		max = 65536
	}
	return &Registry{
		maxVariables:    max,
		storages:        make(map[uint64]*Storage),
		nameIndex:       make(map[string]Handle),
		tagNames:        make(map[string]int32),
		blocked:         NewBlockedSet(),
		txns:            NewTransactionTable(),
		search:          NewSearchTable(),
		sessions:        cfg.Sessions,
		relay:           cfg.Relay,
		auditFn:         cfg.Audit,
		onSignalDropped: cfg.OnSignalDropped,
		nowFn:           time.Now,
	}
}

func (r *Registry) now() time.Time {
	if r.nowFn != nil {
		return r.nowFn()
	}
	return time.Now()
}

func canonicalName(name string, instance int32) string {
	n := strings.ToLower(name)
	if instance != 0 {
		return fmt.Sprintf("[%d]%s", instance, n)
	}
	return n
}

func (r *Registry) internTag(name string) int32 {
	if id, ok := r.tagNames[name]; ok {
		return id
	}
	r.nextTagID++
	r.tagNames[name] = r.nextTagID
	return r.nextTagID
}

func (r *Registry) lookupHandle(h Handle) (*Identifier, bool) {
	if h < 1 || int(h) > len(r.idents) {
		return nil, false
	}
	return r.idents[h-1], true
}

func (r *Registry) live(pid int32) bool {
	if r.sessions == nil {
		return true
	}
	return r.sessions.IsLive(pid)
}

func (r *Registry) deliverTo(clientID uint64, sig Signal) {
	if r.sessions == nil {
		return
	}
	if target, ok := r.sessions.Lookup(ClientID(clientID)); ok {
		if !target.Signal(sig) && r.onSignalDropped != nil {
			r.onSignalDropped()
		}
	}
}

// AddNew implements spec §4.1 AddNew.
func (r *Registry) AddNew(info VariableInfo) (Handle, Code) {
	if len(r.idents) >= r.maxVariables {
		return 0, NoSpace
	}
	canon := canonicalName(info.Name, info.Instance)
	if _, exists := r.nameIndex[canon]; exists {
		// Open Question (a): reject rather than overwrite or silently ignore.
		return 0, NotSupported
	}

	capacity := info.Capacity
	switch info.Kind {
	case KindString, KindBlob:
		if capacity == 0 {
			return 0, NotSupported
		}
	}

	r.nextStorageID++
	st := &Storage{
		RefID:      r.nextStorageID,
		RefCount:   1,
		Value:      info.Initial,
		Capacity:   capacity,
		Flags:      info.Flags &^ FlagAlias,
		Tags:       ParseTagSpec(info.TagSpec, r.internTag),
		Format:     info.Format,
		Perm:       info.Perm,
		CreatedAt:  r.now(),
		ModifiedAt: r.now(),
	}
	r.storages[st.RefID] = st

	handle := Handle(len(r.idents) + 1)
	ident := &Identifier{Handle: handle, Instance: info.Instance, Name: canon, GUID: info.GUID, Storage: st}
	r.idents = append(r.idents, ident)
	r.nameIndex[canon] = handle
	return handle, OK
}

// AliasRequest is the input to Alias (spec §4.1).
type AliasRequest struct {
	TargetName     string
	TargetInstance int32
	AliasName      string
	AliasInstance  int32
}

// Alias implements spec §4.1 Alias, covering both the create-new-identifier
// and move-existing-identifier branches.
func (r *Registry) Alias(session *Session, req AliasRequest) (Handle, Code) {
	targetHandle, code := r.Find(session, req.TargetName, req.TargetInstance)
	if code != OK {
		return 0, code
	}
	if req.TargetName == req.AliasName && req.TargetInstance == req.AliasInstance {
		return 0, NotSupported
	}
	target := r.idents[targetHandle-1]
	aliasCanon := canonicalName(req.AliasName, req.AliasInstance)

	if existingHandle, ok := r.nameIndex[aliasCanon]; ok {
		existing := r.idents[existingHandle-1]
		if existing.Storage == target.Storage {
			return 0, NotSupported
		}
		oldStorage := existing.Storage
		if oldStorage.RefCount <= 1 {
			return 0, NotSupported // would orphan old storage
		}
		if mc := MoveNotifications(oldStorage, target.Storage, existingHandle); mc != OK {
			return 0, mc
		}
		oldStorage.RefCount--
		oldStorage.RemoveAlias(existingHandle)
		if oldStorage.RefCount <= 1 {
			oldStorage.Flags &^= FlagAlias
		}
		existing.Storage = target.Storage
		target.Storage.RefCount++
		target.Storage.AddAlias(targetHandle, existingHandle)
		target.Storage.Flags |= FlagAlias
		return existingHandle, OK
	}

	if len(r.idents) >= r.maxVariables {
		return 0, NoSpace
	}
	newHandle := Handle(len(r.idents) + 1)
	ident := &Identifier{Handle: newHandle, Instance: req.AliasInstance, Name: aliasCanon, Storage: target.Storage}
	r.idents = append(r.idents, ident)
	r.nameIndex[aliasCanon] = newHandle
	target.Storage.RefCount++
	target.Storage.AddAlias(targetHandle, newHandle)
	target.Storage.Flags |= FlagAlias
	return newHandle, OK
}

// Find implements spec §4.1 Find.
func (r *Registry) Find(session *Session, name string, instance int32) (Handle, Code) {
	canon := canonicalName(name, instance)
	handle, ok := r.nameIndex[canon]
	if !ok {
		return 0, NotFound
	}
	ident := r.idents[handle-1]
	if !ident.Storage.Perm.CanRead(session.Credentials) {
		return 0, NotFound
	}
	return handle, OK
}

func (r *Registry) readValue(st *Storage, handle Handle) (Response, Code) {
	return Response{Code: OK, Handle: handle, Value: st.Value, Type: st.Value.Kind, Flags: st.Flags, Format: st.Format}, OK
}

// GetByHandle implements spec §4.1 GetByHandle.
func (r *Registry) GetByHandle(session *Session, handle Handle) (Response, Code) {
	ident, ok := r.lookupHandle(handle)
	if !ok {
		return Response{}, NotFound
	}
	st := ident.Storage
	if !st.Perm.CanRead(session.Credentials) {
		return Response{}, NotFound
	}
	if st.NotifyMask&MaskCalc != 0 {
		live := st.Signal(session.PID, NotifyCalc, r.live, func(n *Notification) {
			r.deliverTo(n.SubscriberClientID, Signal{Kind: NotifyCalc, Handle: handle})
		})
		if live != NoSuchProcess {
			r.blocked.Block(st, NotifyCalc, session)
			return Response{Code: InProgress}, InProgress
		}
	}
	return r.readValue(st, handle)
}

// PrintByHandle implements spec §4.1 PrintByHandle.
func (r *Registry) PrintByHandle(session *Session, handle Handle) (Response, Code) {
	ident, ok := r.lookupHandle(handle)
	if !ok {
		return Response{}, NotFound
	}
	st := ident.Storage
	if !st.Perm.CanRead(session.Credentials) {
		return Response{}, NotFound
	}
	if st.NotifyMask&MaskCalc != 0 {
		live := st.Signal(session.PID, NotifyCalc, r.live, func(n *Notification) {
			r.deliverTo(n.SubscriberClientID, Signal{Kind: NotifyCalc, Handle: handle})
		})
		if live != NoSuchProcess {
			r.blocked.Block(st, NotifyCalc, session)
			return Response{Code: InProgress}, InProgress
		}
	}
	if st.NotifyMask&MaskPrint != 0 {
		txn := r.txns.Create(session, handle, NotifyPrint)
		live := st.Signal(session.PID, NotifyPrint, r.live, func(n *Notification) {
			r.deliverTo(n.SubscriberClientID, Signal{Kind: NotifyPrint, Handle: handle, TxnID: txn.ID})
		})
		if live != NoSuchProcess {
			r.blocked.Block(st, NotifyPrint, session)
			return Response{Code: Pipe}, Pipe
		}
		r.txns.Remove(txn.ID)
	}
	if st.Flags.Has(FlagPassword) {
		return Response{Code: OK, Handle: handle, Value: Value{Kind: KindString, Str: []byte("********")}, Type: KindString, Flags: st.Flags, Format: st.Format}, OK
	}
	return r.readValue(st, handle)
}

func metricTransform(current, incoming Value) Value {
	if incoming.Kind != current.Kind {
		return incoming // type mismatch surfaces as the normal conversion error path
	}
	switch current.Kind {
	case KindU16:
		if incoming.U16 == 0 {
			return Value{Kind: KindU16, U16: 0}
		}
		return Value{Kind: KindU16, U16: current.U16 + incoming.U16}
	case KindU32:
		if incoming.U32 == 0 {
			return Value{Kind: KindU32, U32: 0}
		}
		return Value{Kind: KindU32, U32: current.U32 + incoming.U32}
	case KindU64:
		if incoming.U64 == 0 {
			return Value{Kind: KindU64, U64: 0}
		}
		return Value{Kind: KindU64, U64: current.U64 + incoming.U64}
	default:
		return current // non-unsigned-integer types are ignored by METRIC, spec §3.5
	}
}

func (r *Registry) fanOutModified(session *Session, st *Storage, handle Handle) {
	st.Signal(session.PID, NotifyModified, r.live, func(n *Notification) {
		r.deliverTo(n.SubscriberClientID, Signal{Kind: NotifyModified, Handle: handle})
	})

	payload, ok := BuildQueuePayload(handle, st.Value)
	if !ok {
		payload = QueuePayload{Handle: handle, Type: st.Value.Kind, Length: 0}
	}
	var queued []uint64
	st.Signal(session.PID, NotifyModifiedQueue, r.live, func(n *Notification) {
		queued = append(queued, n.SubscriberClientID)
		if r.relay != nil {
			r.relay.Enqueue(n.SubscriberQueue, payload)
		}
	})
	// Record the payload on each delivered node (spec §4.2 Payload), done
	// after Signal returns since its in-place list compaction makes the
	// list unsafe to search from inside the delivery callback.
	for _, clientID := range queued {
		st.Payload(clientID, NotifyModifiedQueue, payload.Inline)
	}
}

// Set implements spec §4.1 Set.
func (r *Registry) Set(session *Session, handle Handle, incoming Value) (Response, Code) {
	ident, ok := r.lookupHandle(handle)
	if !ok {
		return Response{}, NotFound
	}
	st := ident.Storage
	if st.Flags.Has(FlagReadOnly) {
		return Response{}, AccessDenied
	}
	if !st.Perm.CanWrite(session.Credentials) {
		return Response{}, AccessDenied
	}

	toWrite := incoming
	if st.Flags.Has(FlagMetric) && st.Value.Kind.isInteger() && st.Value.Kind.isUnsigned() {
		toWrite = metricTransform(st.Value, incoming)
	}

	if st.Flags.Has(FlagTrigger) {
		r.fanOutModified(session, st, handle)
		return Response{Code: OK}, OK
	}

	if st.NotifyMask&MaskValidate != 0 && !session.InValidation {
		txn := r.txns.Create(session, handle, NotifyValidate)
		txn.PendingValue = toWrite
		live := st.Signal(session.PID, NotifyValidate, r.live, func(n *Notification) {
			r.deliverTo(n.SubscriberClientID, Signal{Kind: NotifyValidate, Handle: handle, TxnID: txn.ID})
		})
		if live != NoSuchProcess {
			r.blocked.Block(st, NotifyValidate, session)
			return Response{Code: InProgress}, InProgress
		}
		r.txns.Remove(txn.ID)
	}

	return r.applyWrite(session, st, handle, toWrite)
}

// applyWrite performs the actual typed write once any VALIDATE gate has
// cleared (either there were no validators, or SEND_VALIDATION_RESPONSE
// approved it).
func (r *Registry) applyWrite(session *Session, st *Storage, handle Handle, toWrite Value) (Response, Code) {
	next, code := ConvertForWrite(st.Value, st.Capacity, toWrite)
	if code == Already {
		r.blocked.UnblockClients(st, NotifyCalc, func(s *Session) {
			s.Wake(Response{Code: OK, Value: st.Value})
		})
		return Response{Code: Already}, Already
	}
	if code != OK {
		return Response{}, code
	}

	st.Value = next
	if !st.Flags.Has(FlagVolatile) {
		st.Flags |= FlagDirty
	}
	st.ModifiedAt = r.now()
	if st.Flags.Has(FlagAudit) && r.auditFn != nil {
		r.auditFn(AuditEntry{PID: session.PID, Handle: handle, Value: next})
	}

	r.blocked.UnblockClients(st, NotifyCalc, func(s *Session) {
		s.Wake(Response{Code: OK, Value: st.Value})
	})

	r.fanOutModified(session, st, handle)
	return Response{Code: OK}, OK
}

// ResolveValidation implements the SEND_VALIDATION_RESPONSE side of the
// VALIDATE round-trip: looks up the transaction, and on approval performs
// the deferred write with the original requester's session (flagged
// InValidation to avoid re-entrant validation), otherwise unblocks the
// requester with the validator's rejection code.
func (r *Registry) ResolveValidation(validator *Session, txnID uint64, verdict Code) Code {
	txn, code := r.txns.Remove(txnID)
	if code != OK {
		return NotFound
	}
	ident, ok := r.lookupHandle(txn.Handle)
	if !ok {
		return NotFound
	}
	st := ident.Storage
	if !st.Perm.CanWrite(validator.Credentials) {
		return AccessDenied
	}

	requester := txn.Session
	if verdict != OK {
		r.blocked.RemoveSession(requester, r.storages)
		requester.Wake(Response{Code: verdict})
		return OK
	}

	requester.InValidation = true
	resp, wcode := r.applyWrite(requester, st, txn.Handle, txn.PendingValue)
	requester.InValidation = false
	resp.Code = wcode
	r.blocked.RemoveSession(requester, r.storages)
	requester.Wake(resp)
	return OK
}

// GetValidationRequest returns the pending value for a VALIDATE
// transaction, for the GET_VALIDATION_REQUEST request kind.
func (r *Registry) GetValidationRequest(txnID uint64) (Handle, Value, Code) {
	txn, code := r.txns.Get(txnID)
	if code != OK {
		return 0, Value{}, NotFound
	}
	return txn.Handle, txn.PendingValue, OK
}

// OpenPrintSession resolves a PRINT transaction id to the handle and the
// original requester's output writer (spec §6.5).
func (r *Registry) OpenPrintSession(txnID uint64) (Handle, io.Writer, Code) {
	txn, code := r.txns.Get(txnID)
	if code != OK {
		return 0, nil, NotFound
	}
	return txn.Handle, txn.Session.PrintWriter, OK
}

// ClosePrintSession completes a PRINT round-trip, unblocking the original
// caller with the given result code.
func (r *Registry) ClosePrintSession(txnID uint64, result Code) Code {
	txn, code := r.txns.Remove(txnID)
	if code != OK {
		return NotFound
	}
	if _, ok := r.lookupHandle(txn.Handle); !ok {
		return NotFound
	}
	r.blocked.RemoveSession(txn.Session, r.storages)
	txn.Session.Wake(Response{Code: result})
	return OK
}

// CalcResponse implements spec §4.1 CalcResponse. The CALC handler is
// expected to have already called Set() with the computed value before
// invoking this; Set()'s own success path already released every CALC
// waiter with the fresh value, so the OK branch here is just bookkeeping.
// On error, waiters are released with the stale stored value and the
// responder's error code.
func (r *Registry) CalcResponse(session *Session, handle Handle, result Code) (Response, Code) {
	ident, ok := r.lookupHandle(handle)
	if !ok {
		return Response{}, NotFound
	}
	st := ident.Storage
	if !st.Perm.CanWrite(session.Credentials) {
		return Response{}, AccessDenied
	}
	isSubscriber := false
	for _, n := range st.NotifyList {
		if n.Kind == NotifyCalc && n.SubscriberPID == session.PID {
			isSubscriber = true
			break
		}
	}
	if !isSubscriber {
		return Response{}, AccessDenied
	}
	if result != OK {
		r.blocked.UnblockClients(st, NotifyCalc, func(s *Session) {
			s.Wake(Response{Code: result, Value: st.Value})
		})
	}
	return Response{Code: OK}, OK
}

// SetFlags implements spec §4.1 SetFlags.
func (r *Registry) SetFlags(session *Session, handle Handle, bits Flags) (Flags, Code) {
	ident, ok := r.lookupHandle(handle)
	if !ok {
		return 0, NotFound
	}
	st := ident.Storage
	if !st.Perm.CanWrite(session.Credentials) {
		return 0, AccessDenied
	}
	st.Flags |= bits & SettableMask
	return st.Flags, OK
}

// ClearFlags implements spec §4.1 ClearFlags.
func (r *Registry) ClearFlags(session *Session, handle Handle, bits Flags) (Flags, Code) {
	ident, ok := r.lookupHandle(handle)
	if !ok {
		return 0, NotFound
	}
	st := ident.Storage
	if !st.Perm.CanWrite(session.Credentials) {
		return 0, AccessDenied
	}
	st.Flags &^= bits & SettableMask
	return st.Flags, OK
}

func (r *Registry) checkRead(session *Session, handle Handle) (*Identifier, Code) {
	ident, ok := r.lookupHandle(handle)
	if !ok {
		return nil, NotFound
	}
	if !ident.Storage.Perm.CanRead(session.Credentials) {
		return nil, NotFound
	}
	return ident, OK
}

// GetType implements spec §4.1 GetType.
func (r *Registry) GetType(session *Session, handle Handle) (Kind, Code) {
	ident, code := r.checkRead(session, handle)
	if code != OK {
		return KindInvalid, code
	}
	return ident.Storage.Value.Kind, OK
}

// GetName implements spec §4.1 GetName.
func (r *Registry) GetName(session *Session, handle Handle) (string, Code) {
	ident, code := r.checkRead(session, handle)
	if code != OK {
		return "", code
	}
	return ident.Name, OK
}

// GetLength implements spec §4.1 GetLength.
func (r *Registry) GetLength(session *Session, handle Handle) (int, Code) {
	ident, code := r.checkRead(session, handle)
	if code != OK {
		return 0, code
	}
	switch ident.Storage.Value.Kind {
	case KindString:
		return len(ident.Storage.Value.Str), OK
	case KindBlob:
		return len(ident.Storage.Value.Blob), OK
	default:
		return ident.Storage.Capacity, OK
	}
}

// GetFlags implements spec §4.1 GetFlags.
func (r *Registry) GetFlags(session *Session, handle Handle) (Flags, Code) {
	ident, code := r.checkRead(session, handle)
	if code != OK {
		return 0, code
	}
	return ident.Storage.Flags, OK
}

// GetInfo implements spec §4.1 GetInfo.
func (r *Registry) GetInfo(session *Session, handle Handle) (VariableInfoOut, Code) {
	ident, code := r.checkRead(session, handle)
	if code != OK {
		return VariableInfoOut{}, code
	}
	st := ident.Storage
	length := st.Capacity
	switch st.Value.Kind {
	case KindString:
		length = len(st.Value.Str)
	case KindBlob:
		length = len(st.Value.Blob)
	}
	return VariableInfoOut{
		Handle:     handle,
		Name:       ident.Name,
		Instance:   ident.Instance,
		Type:       st.Value.Kind,
		Length:     length,
		Flags:      st.Flags,
		Format:     st.Format,
		RefCount:   st.RefCount,
		CreatedAt:  st.CreatedAt,
		ModifiedAt: st.ModifiedAt,
	}, OK
}

// GetAliases implements spec §4.1 GetAliases.
func (r *Registry) GetAliases(session *Session, handle Handle, buf []Handle) ([]Handle, Code) {
	ident, code := r.checkRead(session, handle)
	if code != OK {
		return nil, code
	}
	aliases := ident.Storage.Aliases
	if len(aliases) == 0 {
		return nil, NotFound
	}
	if len(buf) < len(aliases) {
		return nil, TooBig
	}
	n := copy(buf, aliases)
	return buf[:n], OK
}

// GetFirst implements spec §4.8 GetFirst.
func (r *Registry) GetFirst(session *Session, params SearchParams) (uint64, Handle, Code) {
	ctx := r.search.Alloc(session.ID, params)
	h, code := r.advance(ctx, 1)
	if code != OK {
		r.search.Release(ctx)
		return 0, 0, code
	}
	return ctx.ID, h, OK
}

// GetNext implements spec §4.8 GetNext.
func (r *Registry) GetNext(session *Session, ctxID uint64) (Handle, Code) {
	ctx, ok := r.search.Get(ctxID)
	if !ok || ctx.Owner != session.ID {
		return 0, NotFound
	}
	h, code := r.advance(ctx, ctx.LastHandle+1)
	if code != OK {
		r.search.Release(ctx)
	}
	return h, code
}

func (r *Registry) advance(ctx *SearchContext, start Handle) (Handle, Code) {
	for h := start; int(h) <= len(r.idents); h++ {
		ident := r.idents[h-1]
		if matches(ident, ctx.Params) {
			ctx.LastHandle = h
			return h, OK
		}
	}
	return 0, NotFound
}

// Close implements spec §4.7 Close: unblocks the session, cancels its
// notifications, wakes readers parked on any storage left with no CALC
// subscriber with NoSuchProcess, and sweeps its pending transactions.
func (r *Registry) Close(session *Session) {
	r.blocked.RemoveSession(session, r.storages)
	for _, st := range r.storages {
		st.CancelSubscriber(uint64(session.ID))
		if !st.hasKind(NotifyCalc) {
			r.blocked.UnblockClients(st, NotifyCalc, func(s *Session) {
				s.Wake(Response{Code: NoSuchProcess})
			})
		}
	}
	r.txns.RemoveBySession(session)
}

// BlockedCount exposes component H's observability counter.
func (r *Registry) BlockedCount() int { return r.blocked.Count() }

// VariableCount exposes the registry's current size for NO_SPACE-adjacent metrics.
func (r *Registry) VariableCount() int { return len(r.idents) }

// Attach implements Notify (component F) Attach for a request kind such as
// NOTIFY, gating access behind read (MODIFIED/CALC) or write (VALIDATE/
// PRINT handler registration requires the ability to answer with a write).
func (r *Registry) Attach(session *Session, handle Handle, kind NotifyKind, mq string) Code {
	ident, ok := r.lookupHandle(handle)
	if !ok {
		return NotFound
	}
	if !ident.Storage.Perm.CanRead(session.Credentials) {
		return NotFound
	}
	if (kind == NotifyValidate || kind == NotifyPrint) && !ident.Storage.Perm.CanWrite(session.Credentials) {
		return AccessDenied
	}
	ident.Storage.Attach(&Notification{
		SubscriberClientID: uint64(session.ID),
		SubscriberPID:      session.PID,
		SubscriberQueue:    mq,
		RegisteredOn:       handle,
		Kind:               kind,
	})
	return OK
}

// CancelNotify implements NOTIFY_CANCEL.
func (r *Registry) CancelNotify(session *Session, handle Handle, kind NotifyKind) Code {
	ident, ok := r.lookupHandle(handle)
	if !ok {
		return NotFound
	}
	ident.Storage.Cancel(kind, handle, uint64(session.ID))
	return OK
}
