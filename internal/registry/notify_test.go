package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMoveNotificationsRefusesExclusiveConflict(t *testing.T) {
	src := &Storage{RefID: 1}
	dst := &Storage{RefID: 2}
	src.Attach(&Notification{SubscriberClientID: 1, SubscriberPID: 1, RegisteredOn: 10, Kind: NotifyValidate})
	dst.Attach(&Notification{SubscriberClientID: 2, SubscriberPID: 2, RegisteredOn: 20, Kind: NotifyValidate})

	code := MoveNotifications(src, dst, 10)
	require.Equal(t, NotSupported, code)
	require.Len(t, src.NotifyList, 1, "refused move must leave the source list untouched")
}

func TestMoveNotificationsMergesNonExclusive(t *testing.T) {
	src := &Storage{RefID: 1}
	dst := &Storage{RefID: 2}
	src.Attach(&Notification{SubscriberClientID: 1, SubscriberPID: 1, RegisteredOn: 10, Kind: NotifyModified})

	code := MoveNotifications(src, dst, 10)
	require.Equal(t, OK, code)
	require.Len(t, dst.NotifyList, 1)
	require.Len(t, src.NotifyList, 0)
}

func TestSignalSuppressesSelfNotification(t *testing.T) {
	st := &Storage{RefID: 1}
	st.Attach(&Notification{SubscriberClientID: 1, SubscriberPID: 5, Kind: NotifyModified})

	var delivered bool
	code := st.Signal(5, NotifyModified, nil, func(n *Notification) { delivered = true })
	require.Equal(t, NoSuchProcess, code)
	require.False(t, delivered)
}

func TestSignalPrunesDeadSubscriber(t *testing.T) {
	st := &Storage{RefID: 1}
	st.Attach(&Notification{SubscriberClientID: 1, SubscriberPID: 5, Kind: NotifyModified})

	liveFn := func(pid int32) bool { return false }
	code := st.Signal(1, NotifyModified, liveFn, func(n *Notification) {})
	require.Equal(t, NoSuchProcess, code)
	require.Len(t, st.NotifyList, 0)
	require.Equal(t, Flags(0), st.NotifyMask)
}
