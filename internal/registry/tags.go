package registry

import (
	"strconv"
	"strings"
)

// MaxTags bounds the fixed-size tag bag described in spec §3.2 ("fixed-size
// bag of small integers, 0-terminated").
const MaxTags = 16

// TagSet is a parsed, de-duplicated bag of small integer tag ids.
type TagSet struct {
	ids []int32
}

// ParseTagSpec parses a comma-separated tag spec (component C) into a TagSet.
// Unknown tag names are assigned ids from the supplied interner so the same
// name always maps to the same id across the registry's lifetime.
func ParseTagSpec(spec string, intern func(name string) int32) TagSet {
	var ts TagSet
	if spec == "" {
		return ts
	}
	for _, part := range strings.Split(spec, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		var id int32
		if n, err := strconv.ParseInt(name, 10, 32); err == nil {
			id = int32(n)
		} else if intern != nil {
			id = intern(name)
		} else {
			continue
		}
		if len(ts.ids) >= MaxTags {
			break
		}
		if !ts.contains(id) {
			ts.ids = append(ts.ids, id)
		}
	}
	return ts
}

func (ts TagSet) contains(id int32) bool {
	for _, t := range ts.ids {
		if t == id {
			return true
		}
	}
	return false
}

// HasAll reports whether ts contains every tag in query (subset match, the
// "all tags present" predicate used by Search, spec §4.8).
func (ts TagSet) HasAll(query TagSet) bool {
	for _, q := range query.ids {
		if !ts.contains(q) {
			return false
		}
	}
	return true
}

func (ts TagSet) IsEmpty() bool { return len(ts.ids) == 0 }
