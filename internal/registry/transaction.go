package registry

// Transaction correlates two clients across a deferred CALC/VALIDATE/PRINT
// operation (spec §3.7, §4.4).
type Transaction struct {
	ID      uint64
	Session *Session
	Handle  Handle
	Kind    NotifyKind

	// PendingValue carries the candidate value for a VALIDATE transaction,
	// returned to the validator by GET_VALIDATION_REQUEST.
	PendingValue Value
}

// TransactionTable is component G: a monotonic id counter plus lookup.
type TransactionTable struct {
	next  uint64
	byID  map[uint64]*Transaction
}

func NewTransactionTable() *TransactionTable {
	return &TransactionTable{byID: make(map[uint64]*Transaction)}
}

// Create assigns a fresh transaction id and stores the record.
func (t *TransactionTable) Create(session *Session, handle Handle, kind NotifyKind) *Transaction {
	t.next++
	txn := &Transaction{ID: t.next, Session: session, Handle: handle, Kind: kind}
	t.byID[txn.ID] = txn
	return txn
}

// Get looks up a transaction by id; NotFound if it has been removed or
// never existed (e.g. the owning client died and Close swept it away).
func (t *TransactionTable) Get(id uint64) (*Transaction, Code) {
	txn, ok := t.byID[id]
	if !ok {
		return nil, NotFound
	}
	return txn, OK
}

// Remove both returns and detaches the transaction.
func (t *TransactionTable) Remove(id uint64) (*Transaction, Code) {
	txn, ok := t.byID[id]
	if !ok {
		return nil, NotFound
	}
	delete(t.byID, id)
	return txn, OK
}

// RemoveBySession sweeps every transaction owned by session (spec §4.7
// Close, §7 "transaction leaks on abrupt client death are swept on Close").
func (t *TransactionTable) RemoveBySession(session *Session) {
	for id, txn := range t.byID {
		if txn.Session == session {
			delete(t.byID, id)
		}
	}
}
