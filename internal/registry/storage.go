package registry

import "time"

// Storage is the shared value cell behind one or more Identifiers (spec §3.2).
type Storage struct {
	RefID      uint64
	RefCount   int
	Value      Value
	Capacity   int // declared capacity for string/blob kinds
	Flags      Flags
	Tags       TagSet
	Format     string
	Perm       Permission
	NotifyList []*Notification
	NotifyMask Flags

	// Aliases lists every Identifier handle sharing this Storage, including
	// the self-alias installed the first time a second Identifier attaches
	// (spec §3.2, §9 "Alias graph").
	Aliases []Handle

	CreatedAt  time.Time
	ModifiedAt time.Time
}

// AddAlias records handle on the alias list, installing the Storage's own
// original handle as a self-alias the first time the list becomes non-empty.
func (s *Storage) AddAlias(original, handle Handle) {
	if len(s.Aliases) == 0 {
		s.Aliases = append(s.Aliases, original)
	}
	s.Aliases = append(s.Aliases, handle)
}

// RemoveAlias removes handle from the alias list (used when moving an
// existing identifier away to a different Storage).
func (s *Storage) RemoveAlias(handle Handle) {
	out := s.Aliases[:0]
	for _, h := range s.Aliases {
		if h == handle {
			continue
		}
		out = append(out, h)
	}
	s.Aliases = out
}
