package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestRegistry() (*Registry, *SessionTable, *Dispatcher) {
	sessions := NewSessionTable(64)
	reg := NewRegistry(Config{MaxVariables: 16, Sessions: sessions})
	d := NewDispatcher(reg, sessions, nil)
	return reg, sessions, d
}

func openSession(t *testing.T, d *Dispatcher, sessions *SessionTable, pid int32) *Session {
	t.Helper()
	placeholder := NewSession(0, pid, 0, nil)
	resp := d.Dispatch(placeholder, Request{Kind: ReqOpen})
	require.Equal(t, OK, resp.Code)
	s, ok := sessions.Lookup(ClientID(resp.Handle))
	require.True(t, ok)
	// Consume the registration wake, as a real client does after OPEN, so
	// the session's one-reply slot is free for its next terminal response.
	opened := <-s.WakeCh
	require.Equal(t, OK, opened.Code)
	return s
}

func TestAddNewFindGet(t *testing.T) {
	_, sessions, d := newTestRegistry()
	s := openSession(t, d, sessions, 1)

	resp := d.Dispatch(s, Request{Kind: ReqNew, NewInfo: VariableInfo{
		Name: "speed", Kind: KindU32, Initial: Value{Kind: KindU32, U32: 10},
	}})
	require.Equal(t, OK, resp.Code)
	handle := resp.Handle

	found := d.Dispatch(s, Request{Kind: ReqFind, Name: "speed"})
	require.Equal(t, OK, found.Code)
	require.Equal(t, handle, found.Handle)

	got := d.Dispatch(s, Request{Kind: ReqGet, Handle: handle})
	require.Equal(t, OK, got.Code)
	require.Equal(t, uint32(10), got.Value.U32)
}

func TestAddNewDuplicateRejected(t *testing.T) {
	_, sessions, d := newTestRegistry()
	s := openSession(t, d, sessions, 1)

	info := VariableInfo{Name: "dup", Kind: KindU16}
	first := d.Dispatch(s, Request{Kind: ReqNew, NewInfo: info})
	require.Equal(t, OK, first.Code)

	second := d.Dispatch(s, Request{Kind: ReqNew, NewInfo: info})
	require.Equal(t, NotSupported, second.Code)
}

func TestSetAlreadyShortCircuits(t *testing.T) {
	_, sessions, d := newTestRegistry()
	s := openSession(t, d, sessions, 1)

	created := d.Dispatch(s, Request{Kind: ReqNew, NewInfo: VariableInfo{
		Name: "v", Kind: KindI32, Initial: Value{Kind: KindI32, I32: 3},
	}})
	require.Equal(t, OK, created.Code)

	resp := d.Dispatch(s, Request{Kind: ReqSet, Handle: created.Handle, Value: Value{Kind: KindI32, I32: 3}})
	require.Equal(t, Already, resp.Code)
}

func TestSetReadOnlyRejected(t *testing.T) {
	_, sessions, d := newTestRegistry()
	s := openSession(t, d, sessions, 1)

	created := d.Dispatch(s, Request{Kind: ReqNew, NewInfo: VariableInfo{
		Name: "ro", Kind: KindU16, Flags: FlagReadOnly,
	}})
	require.Equal(t, OK, created.Code)

	resp := d.Dispatch(s, Request{Kind: ReqSet, Handle: created.Handle, Value: Value{Kind: KindU16, U16: 1}})
	require.Equal(t, AccessDenied, resp.Code)
}

func TestPermissionGatesReadAndWrite(t *testing.T) {
	_, sessions, d := newTestRegistry()
	owner := openSession(t, d, sessions, 1)
	stranger := openSession(t, d, sessions, 2)
	stranger.Credentials = []int32{99}

	created := d.Dispatch(owner, Request{Kind: ReqNew, NewInfo: VariableInfo{
		Name: "secret", Kind: KindU16, Perm: Permission{Read: []int32{7}, Write: []int32{7}},
	}})
	require.Equal(t, OK, created.Code)

	resp := d.Dispatch(stranger, Request{Kind: ReqGet, Handle: created.Handle})
	require.Equal(t, NotFound, resp.Code)

	write := d.Dispatch(stranger, Request{Kind: ReqSet, Handle: created.Handle, Value: Value{Kind: KindU16, U16: 1}})
	require.Equal(t, AccessDenied, write.Code)
}

func TestAliasCreatesSecondIdentifierSharingStorage(t *testing.T) {
	_, sessions, d := newTestRegistry()
	s := openSession(t, d, sessions, 1)

	created := d.Dispatch(s, Request{Kind: ReqNew, NewInfo: VariableInfo{
		Name: "base", Kind: KindU16, Initial: Value{Kind: KindU16, U16: 1},
	}})
	require.Equal(t, OK, created.Code)

	aliasResp := d.Dispatch(s, Request{Kind: ReqAlias, AliasReq: AliasRequest{
		TargetName: "base", AliasName: "alias1",
	}})
	require.Equal(t, OK, aliasResp.Code)
	require.NotEqual(t, created.Handle, aliasResp.Handle)

	setResp := d.Dispatch(s, Request{Kind: ReqSet, Handle: aliasResp.Handle, Value: Value{Kind: KindU16, U16: 5}})
	require.Equal(t, OK, setResp.Code)

	getOrig := d.Dispatch(s, Request{Kind: ReqGet, Handle: created.Handle})
	require.Equal(t, uint16(5), getOrig.Value.U16)
}

func TestCalcBlocksRequesterUntilResponderWrites(t *testing.T) {
	_, sessions, d := newTestRegistry()
	calcHandler := openSession(t, d, sessions, 1)
	reader := openSession(t, d, sessions, 2)

	created := d.Dispatch(calcHandler, Request{Kind: ReqNew, NewInfo: VariableInfo{
		Name: "computed", Kind: KindU32, Initial: Value{Kind: KindU32, U32: 0},
	}})
	require.Equal(t, OK, created.Code)

	attach := d.Dispatch(calcHandler, Request{Kind: ReqNotify, Handle: created.Handle, NotifyKind: NotifyCalc})
	require.Equal(t, OK, attach.Code)

	getResp := d.Dispatch(reader, Request{Kind: ReqGet, Handle: created.Handle})
	require.Equal(t, InProgress, getResp.Code)
	require.True(t, reader.Blocked)

	select {
	case sig := <-calcHandler.Signals:
		require.Equal(t, NotifyCalc, sig.Kind)
		require.Equal(t, created.Handle, sig.Handle)
	default:
		t.Fatal("expected a CALC signal")
	}

	setResp := d.Dispatch(calcHandler, Request{Kind: ReqSet, Handle: created.Handle, Value: Value{Kind: KindU32, U32: 99}})
	require.Equal(t, OK, setResp.Code)

	final := <-reader.WakeCh
	require.Equal(t, OK, final.Code)
	require.Equal(t, uint32(99), final.Value.U32)
}

func TestSearchSkipsHiddenAndMatchesFlags(t *testing.T) {
	_, sessions, d := newTestRegistry()
	s := openSession(t, d, sessions, 1)

	visible := d.Dispatch(s, Request{Kind: ReqNew, NewInfo: VariableInfo{Name: "vis", Kind: KindU16, Flags: FlagVolatile}})
	require.Equal(t, OK, visible.Code)
	hidden := d.Dispatch(s, Request{Kind: ReqNew, NewInfo: VariableInfo{Name: "hid", Kind: KindU16, Flags: FlagHidden | FlagVolatile}})
	require.Equal(t, OK, hidden.Code)

	first := d.Dispatch(s, Request{Kind: ReqGetFirst, Search: SearchParams{
		Kinds: QueryFlags, FlagMask: FlagVolatile,
	}})
	require.Equal(t, OK, first.Code)
	require.Equal(t, visible.Handle, first.Handle)

	next := d.Dispatch(s, Request{Kind: ReqGetNext, CtxID: first.CtxID})
	require.Equal(t, NotFound, next.Code)
}
