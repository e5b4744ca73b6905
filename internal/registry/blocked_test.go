package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlockedSetReleasesInInsertionOrder(t *testing.T) {
	b := NewBlockedSet()
	st := &Storage{RefID: 1}

	var order []ClientID
	s1 := &Session{ID: 1, WakeCh: make(chan Response, 1)}
	s2 := &Session{ID: 2, WakeCh: make(chan Response, 1)}
	s3 := &Session{ID: 3, WakeCh: make(chan Response, 1)}

	b.Block(st, NotifyCalc, s1)
	b.Block(st, NotifyCalc, s2)
	b.Block(st, NotifyCalc, s3)
	require.Equal(t, 3, b.Count())
	require.True(t, st.NotifyMask.Has(MaskHasCalcBlock))

	b.UnblockClients(st, NotifyCalc, func(s *Session) { order = append(order, s.ID) })

	require.Equal(t, []ClientID{1, 2, 3}, order)
	require.Equal(t, 0, b.Count())
	require.False(t, st.NotifyMask.Has(MaskHasCalcBlock))
}

func TestBlockedSetRemoveSessionClearsOnlyItsEntries(t *testing.T) {
	b := NewBlockedSet()
	st := &Storage{RefID: 7}
	storages := map[uint64]*Storage{7: st}

	dying := &Session{ID: 1}
	surviving := &Session{ID: 2}
	b.Block(st, NotifyValidate, dying)
	b.Block(st, NotifyValidate, surviving)

	b.RemoveSession(dying, storages)
	require.Equal(t, 1, b.Count())

	var remaining []ClientID
	b.UnblockClients(st, NotifyValidate, func(s *Session) { remaining = append(remaining, s.ID) })
	require.Equal(t, []ClientID{2}, remaining)
}
