package registry

// blockedKey identifies one (Storage, NotifyKind) parking lot.
type blockedKey struct {
	storageRef uint64
	kind       NotifyKind
}

type parkedClient struct {
	session *Session
}

// BlockedSet is component H: clients suspended awaiting a CALC/VALIDATE/
// PRINT counterparty response.
type BlockedSet struct {
	entries map[blockedKey][]*parkedClient
	total   int
}

func NewBlockedSet() *BlockedSet {
	return &BlockedSet{entries: make(map[blockedKey][]*parkedClient)}
}

// Block parks session awaiting kind completion on storage. When it is the
// first blockee for that (storage, kind) pair, Block also sets the
// corresponding HAS_*_BLOCK mask bit via Storage.SetBlockBit.
func (b *BlockedSet) Block(storage *Storage, kind NotifyKind, session *Session) {
	key := blockedKey{storage.RefID, kind}
	wasEmpty := len(b.entries[key]) == 0
	b.entries[key] = append(b.entries[key], &parkedClient{session: session})
	b.total++
	session.Blocked = true
	if wasEmpty {
		storage.SetBlockBit(kind, true)
	}
}

// UnblockClients releases every session parked on (storage, kind), calling
// apply(session) on each in insertion order, visiting each session exactly
// once (spec §4.5). UnblockClients does not wake the sessions itself; apply
// is responsible for that.
func (b *BlockedSet) UnblockClients(storage *Storage, kind NotifyKind, apply func(*Session)) {
	key := blockedKey{storage.RefID, kind}
	parked := b.entries[key]
	if len(parked) == 0 {
		return
	}
	delete(b.entries, key)
	b.total -= len(parked)
	storage.SetBlockBit(kind, false)
	for _, p := range parked {
		apply(p.session)
	}
}

// RemoveSession drops every parked entry belonging to session across all
// (storage, kind) keys, used when a client session closes mid-block.
func (b *BlockedSet) RemoveSession(session *Session, storages map[uint64]*Storage) {
	for key, parked := range b.entries {
		out := parked[:0]
		for _, p := range parked {
			if p.session == session {
				b.total--
				continue
			}
			out = append(out, p)
		}
		if len(out) == 0 {
			delete(b.entries, key)
			if st, ok := storages[key.storageRef]; ok {
				st.SetBlockBit(key.kind, false)
			}
		} else {
			b.entries[key] = out
		}
	}
}

// Count returns the number of currently blocked clients (observability metric).
func (b *BlockedSet) Count() int { return b.total }
