package registry

// NotifyKind enumerates the four semantic hooks plus the queued variant of
// MODIFIED (spec §3.4).
type NotifyKind int

const (
	NotifyModified NotifyKind = iota
	NotifyModifiedQueue
	NotifyCalc
	NotifyValidate
	NotifyPrint
)

// exclusive reports whether this kind may have at most one live subscriber
// serviced at a time (CALC/VALIDATE/PRINT — "exclusive in intent", spec §3.4).
func (k NotifyKind) exclusive() bool {
	return k == NotifyCalc || k == NotifyValidate || k == NotifyPrint
}

// Mask bits. The low five bits mirror presence of each NotifyKind; the high
// three bits record that a client is currently parked awaiting that
// exclusive kind (HAS_CALC_BLOCK / HAS_VALIDATE_BLOCK / HAS_PRINT_BLOCK).
const (
	MaskModified Flags = 1 << iota
	MaskModifiedQueue
	MaskCalc
	MaskValidate
	MaskPrint
	MaskHasCalcBlock
	MaskHasValidateBlock
	MaskHasPrintBlock
)

func presenceBit(k NotifyKind) Flags {
	switch k {
	case NotifyModified:
		return MaskModified
	case NotifyModifiedQueue:
		return MaskModifiedQueue
	case NotifyCalc:
		return MaskCalc
	case NotifyValidate:
		return MaskValidate
	case NotifyPrint:
		return MaskPrint
	default:
		return 0
	}
}

func blockBit(k NotifyKind) Flags {
	switch k {
	case NotifyCalc:
		return MaskHasCalcBlock
	case NotifyValidate:
		return MaskHasValidateBlock
	case NotifyPrint:
		return MaskHasPrintBlock
	default:
		return 0
	}
}

// Notification is one node on a Storage's notification list (spec §3.4).
type Notification struct {
	SubscriberClientID uint64
	SubscriberPID      int32
	// SubscriberQueue is the relay target the subscriber dequeues
	// out-of-band payloads from (used by MODIFIED_QUEUE).
	SubscriberQueue string
	Pending         bool
	RegisteredOn    Handle
	Kind            NotifyKind

	// LastPayload holds the most recent out-of-band payload attached via
	// Payload() for MODIFIED_QUEUE deliveries. The relay does not read it:
	// it receives the payload directly from the registry's fan-out.
	LastPayload []byte
}

// isLive reports whether the subscriber process is still reachable. liveFn
// is supplied by the caller (transport-specific PID liveness check); a nil
// liveFn treats every subscriber as live.
func (n *Notification) isLive(liveFn func(pid int32) bool) bool {
	if liveFn == nil {
		return true
	}
	return liveFn(n.SubscriberPID)
}

// Attach appends a notification node to s's list and recomputes the mask.
func (s *Storage) Attach(n *Notification) {
	s.NotifyList = append(s.NotifyList, n)
	s.recomputeMask(nil)
}

// Cancel removes every node of kind matching (handle, clientID). If none of
// that kind remain, the presence bit is cleared.
func (s *Storage) Cancel(kind NotifyKind, handle Handle, clientID uint64) {
	out := s.NotifyList[:0]
	for _, n := range s.NotifyList {
		if n.Kind == kind && n.RegisteredOn == handle && n.SubscriberClientID == clientID {
			continue
		}
		out = append(out, n)
	}
	s.NotifyList = out
	s.recomputeMask(nil)
}

// CancelSubscriber removes every notification registered by clientID,
// regardless of kind — used on session Close (spec §4.7).
func (s *Storage) CancelSubscriber(clientID uint64) {
	out := s.NotifyList[:0]
	for _, n := range s.NotifyList {
		if n.SubscriberClientID == clientID {
			continue
		}
		out = append(out, n)
	}
	s.NotifyList = out
	s.recomputeMask(nil)
}

// Signal walks s's notification list in insertion order, invoking deliver
// for each live node of kind matching. Self-notification is suppressed when
// callerPID == subscriber PID (spec §4.2). A subscriber that liveFn reports
// dead is pruned from the list (best-effort orphan sweep, spec §4.7).
// Returns NoSuchProcess if nothing was delivered: either no live subscriber
// of that kind remained, or the only live ones belong to callerPID.
func (s *Storage) Signal(callerPID int32, kind NotifyKind, liveFn func(pid int32) bool, deliver func(*Notification)) Code {
	var delivered bool
	kept := s.NotifyList[:0]
	for _, n := range s.NotifyList {
		if n.Kind != kind {
			kept = append(kept, n)
			continue
		}
		if !n.isLive(liveFn) {
			continue // orphan sweep: drop dead subscriber
		}
		kept = append(kept, n)
		if n.SubscriberPID == callerPID {
			continue // suppress self-notification
		}
		deliver(n)
		delivered = true
	}
	s.NotifyList = kept
	s.recomputeMask(nil)
	if !delivered {
		return NoSuchProcess
	}
	return OK
}

// Payload attaches an out-of-band payload to the most recently signaled
// queued-kind node for clientID (spec §4.2, used only by MODIFIED_QUEUE).
func (s *Storage) Payload(clientID uint64, kind NotifyKind, buf []byte) {
	for i := len(s.NotifyList) - 1; i >= 0; i-- {
		n := s.NotifyList[i]
		if n.Kind == kind && n.SubscriberClientID == clientID {
			n.LastPayload = buf
			return
		}
	}
}

// MoveNotifications transfers every node registered under handle from s to
// dst, subject to the exclusive-kind conflict check of spec §4.2: an
// exclusive kind (CALC/VALIDATE/PRINT) already present on dst refuses the
// move outright, leaving both lists untouched.
func MoveNotifications(s, dst *Storage, handle Handle) Code {
	var moving []*Notification
	for _, n := range s.NotifyList {
		if n.RegisteredOn == handle {
			moving = append(moving, n)
		}
	}
	for _, n := range moving {
		if n.Kind.exclusive() && dst.hasKind(n.Kind) {
			return NotSupported
		}
	}
	if len(moving) == 0 {
		return OK
	}
	remaining := s.NotifyList[:0]
	for _, n := range s.NotifyList {
		if n.RegisteredOn == handle {
			continue
		}
		remaining = append(remaining, n)
	}
	s.NotifyList = remaining
	dst.NotifyList = append(dst.NotifyList, moving...)
	s.recomputeMask(nil)
	dst.recomputeMask(nil)
	return OK
}

func (s *Storage) hasKind(kind NotifyKind) bool {
	for _, n := range s.NotifyList {
		if n.Kind == kind {
			return true
		}
	}
	return false
}

// recomputeMask is MaskOf (component F): the logical OR of per-kind presence
// bits derived from the notify list, preserving whatever HAS_*_BLOCK bits
// the blocked-client set has currently set (those are refreshed separately
// via SetBlockBit, since the notify list has no visibility into H).
func (s *Storage) recomputeMask(_ func(NotifyKind) bool) {
	blockBits := s.NotifyMask & (MaskHasCalcBlock | MaskHasValidateBlock | MaskHasPrintBlock)
	var mask Flags
	seen := map[NotifyKind]bool{}
	for _, n := range s.NotifyList {
		seen[n.Kind] = true
	}
	for k, ok := range seen {
		if ok {
			mask |= presenceBit(k)
		}
	}
	s.NotifyMask = mask | blockBits
}

// SetBlockBit is invoked by the blocked-client set whenever it parks or
// releases the last waiter of an exclusive kind on s.
func (s *Storage) SetBlockBit(kind NotifyKind, set bool) {
	bit := blockBit(kind)
	if bit == 0 {
		return
	}
	if set {
		s.NotifyMask |= bit
	} else {
		s.NotifyMask &^= bit
	}
}
