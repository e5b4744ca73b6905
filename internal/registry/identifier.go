package registry

// Handle is a dense, 1-based, never-reused identifier for a
// VariableIdentifier (spec §3.1).
type Handle uint32

// Identifier represents one name under which a value is reachable. Multiple
// Identifiers may share one Storage (aliasing); the Storage pointer is
// non-owning — Storage lifetime is governed by its own reference count.
type Identifier struct {
	Handle   Handle
	Instance int32
	Name     string // lower-cased fully qualified name, "[<instance>]<name>" when Instance != 0
	GUID     string
	Storage  *Storage
}
