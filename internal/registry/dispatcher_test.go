package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetFlagsReflectsSetAndClear(t *testing.T) {
	_, sessions, d := newTestRegistry()
	s := openSession(t, d, sessions, 1)

	created := d.Dispatch(s, Request{Kind: ReqNew, NewInfo: VariableInfo{
		Name: "flagged", Kind: KindU16,
	}})
	require.Equal(t, OK, created.Code)

	set := d.Dispatch(s, Request{Kind: ReqSetFlags, Handle: created.Handle, FlagBits: FlagVolatile})
	require.Equal(t, OK, set.Code)
	require.True(t, set.Flags.Has(FlagVolatile))

	got := d.Dispatch(s, Request{Kind: ReqGetFlags, Handle: created.Handle})
	require.Equal(t, OK, got.Code)
	require.True(t, got.Flags.Has(FlagVolatile))

	cleared := d.Dispatch(s, Request{Kind: ReqClearFlags, Handle: created.Handle, FlagBits: FlagVolatile})
	require.Equal(t, OK, cleared.Code)
	require.False(t, cleared.Flags.Has(FlagVolatile))
}

func TestGetInfoReportsNameTypeAndLength(t *testing.T) {
	_, sessions, d := newTestRegistry()
	s := openSession(t, d, sessions, 1)

	created := d.Dispatch(s, Request{Kind: ReqNew, NewInfo: VariableInfo{
		Name: "info_target", Kind: KindString, Capacity: 16, Initial: Value{Kind: KindString, Str: []byte("hello")},
	}})
	require.Equal(t, OK, created.Code)

	info := d.Dispatch(s, Request{Kind: ReqGetInfo, Handle: created.Handle})
	require.Equal(t, OK, info.Code)
	require.Equal(t, "info_target", info.Name)
	require.Equal(t, KindString, info.Type)
	require.Equal(t, 5, info.Length)
	require.False(t, info.CreatedAt.IsZero())
}

func TestGetAliasesListsEveryAliasOfTheTarget(t *testing.T) {
	_, sessions, d := newTestRegistry()
	s := openSession(t, d, sessions, 1)

	created := d.Dispatch(s, Request{Kind: ReqNew, NewInfo: VariableInfo{
		Name: "aliased_base", Kind: KindU16,
	}})
	require.Equal(t, OK, created.Code)

	aliasResp := d.Dispatch(s, Request{Kind: ReqAlias, AliasReq: AliasRequest{
		TargetName: "aliased_base", AliasName: "aliased_other",
	}})
	require.Equal(t, OK, aliasResp.Code)

	got := d.Dispatch(s, Request{Kind: ReqGetAliases, Handle: created.Handle, AliasBuf: make([]Handle, 4)})
	require.Equal(t, OK, got.Code)
	require.Contains(t, got.Aliases, aliasResp.Handle)
}

func TestGetAliasesOnUnaliasedHandleIsNotFound(t *testing.T) {
	_, sessions, d := newTestRegistry()
	s := openSession(t, d, sessions, 1)

	created := d.Dispatch(s, Request{Kind: ReqNew, NewInfo: VariableInfo{Name: "lonely", Kind: KindU16}})
	require.Equal(t, OK, created.Code)

	got := d.Dispatch(s, Request{Kind: ReqGetAliases, Handle: created.Handle, AliasBuf: make([]Handle, 4)})
	require.Equal(t, NotFound, got.Code)
}

func TestCalcResponseErrorUnblocksWaiterWithResultCode(t *testing.T) {
	_, sessions, d := newTestRegistry()
	calcHandler := openSession(t, d, sessions, 1)
	reader := openSession(t, d, sessions, 2)

	created := d.Dispatch(calcHandler, Request{Kind: ReqNew, NewInfo: VariableInfo{
		Name: "calc_target", Kind: KindU32, Initial: Value{Kind: KindU32, U32: 0},
	}})
	require.Equal(t, OK, created.Code)

	attach := d.Dispatch(calcHandler, Request{Kind: ReqNotify, Handle: created.Handle, NotifyKind: NotifyCalc})
	require.Equal(t, OK, attach.Code)

	getResp := d.Dispatch(reader, Request{Kind: ReqGet, Handle: created.Handle})
	require.Equal(t, InProgress, getResp.Code)

	calcResp := d.Dispatch(calcHandler, Request{Kind: ReqCalcResponse, Handle: created.Handle, Result: Pipe})
	require.Equal(t, OK, calcResp.Code)

	final := <-reader.WakeCh
	require.Equal(t, Pipe, final.Code)
}

func TestCalcResponseFromNonSubscriberIsDenied(t *testing.T) {
	_, sessions, d := newTestRegistry()
	owner := openSession(t, d, sessions, 1)
	stranger := openSession(t, d, sessions, 2)

	created := d.Dispatch(owner, Request{Kind: ReqNew, NewInfo: VariableInfo{
		Name: "calc_guarded", Kind: KindU32,
	}})
	require.Equal(t, OK, created.Code)

	resp := d.Dispatch(stranger, Request{Kind: ReqCalcResponse, Handle: created.Handle, Result: OK})
	require.Equal(t, AccessDenied, resp.Code)
}
