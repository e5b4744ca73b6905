package registry

// Permission is the per-variable ACL (component B): a read UID list and a
// write UID list. An empty list means "no restriction" — this mirrors the
// common GUID_NONE convention of variable servers in this family, where a
// variable created without an explicit ACL is reachable by any credential.
type Permission struct {
	Read  []int32
	Write []int32
}

// CanRead reports whether the caller's credential set satisfies the read ACL.
func (p Permission) CanRead(creds []int32) bool { return satisfies(p.Read, creds) }

// CanWrite reports whether the caller's credential set satisfies the write ACL.
func (p Permission) CanWrite(creds []int32) bool { return satisfies(p.Write, creds) }

func satisfies(acl []int32, creds []int32) bool {
	if len(acl) == 0 {
		return true
	}
	for _, want := range acl {
		for _, have := range creds {
			if want == have {
				return true
			}
		}
	}
	return false
}
