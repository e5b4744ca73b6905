package registry

import (
	"regexp"
	"strings"
)

// QueryKind is the bitset of enabled predicates for a search (spec §3.8).
type QueryKind uint32

const (
	QueryRegex QueryKind = 1 << iota
	QueryMatch
	QueryIMatch
	QueryFlags
	QueryTags
	QueryInstanceID
)

// SearchParams carries the parsed query parameters of a GetFirst request.
type SearchParams struct {
	Kinds        QueryKind
	InstanceID   int32
	FlagMask     Flags
	NegateFlags  bool
	Tags         TagSet
	Regex        *regexp.Regexp
	Substring    string
}

// SearchContext is the iterator state of spec §3.8. Deleted contexts move to
// a free list and keep their slot, per Open Question (b): contexts are
// per-client but not exclusive — a client may hold several at once, keyed
// by (owner, id).
type SearchContext struct {
	ID         uint64
	Owner      ClientID
	LastHandle Handle
	Params     SearchParams
	inUse      bool
}

// SearchTable owns the pool of SearchContexts.
type SearchTable struct {
	next  uint64
	slots []*SearchContext
}

func NewSearchTable() *SearchTable { return &SearchTable{} }

// Alloc returns a free context, reusing a slot from the free list when one
// exists (spec §3.8 "reusable: deleted contexts move to a free list").
func (t *SearchTable) Alloc(owner ClientID, params SearchParams) *SearchContext {
	for _, ctx := range t.slots {
		if !ctx.inUse {
			ctx.inUse = true
			ctx.Owner = owner
			ctx.Params = params
			ctx.LastHandle = 0
			return ctx
		}
	}
	t.next++
	ctx := &SearchContext{ID: t.next, Owner: owner, Params: params, inUse: true}
	t.slots = append(t.slots, ctx)
	return ctx
}

// Get looks up a live context by id.
func (t *SearchTable) Get(id uint64) (*SearchContext, bool) {
	for _, ctx := range t.slots {
		if ctx.ID == id && ctx.inUse {
			return ctx, true
		}
	}
	return nil, false
}

// Release returns ctx to the free list (exhausted iterator, spec §4.8).
func (t *SearchTable) Release(ctx *SearchContext) { ctx.inUse = false }

// matches reports whether an Identifier satisfies the AND of every enabled
// predicate in params, against the given candidate's Storage. HIDDEN
// variables are always excluded, unconditionally, before predicates run.
func matches(ident *Identifier, params SearchParams) bool {
	st := ident.Storage
	if st.Flags.Has(FlagHidden) {
		return false
	}
	if params.Kinds&QueryInstanceID != 0 && ident.Instance != params.InstanceID {
		return false
	}
	if params.Kinds&QueryFlags != 0 {
		has := st.Flags&params.FlagMask == params.FlagMask
		if params.NegateFlags {
			has = st.Flags&params.FlagMask == 0
		}
		if !has {
			return false
		}
	}
	if params.Kinds&QueryTags != 0 && !params.Tags.IsEmpty() && !st.Tags.HasAll(params.Tags) {
		return false
	}
	if params.Kinds&QueryRegex != 0 {
		if params.Regex == nil || !params.Regex.MatchString(ident.Name) {
			return false
		}
	}
	if params.Kinds&QueryMatch != 0 && !strings.Contains(ident.Name, params.Substring) {
		return false
	}
	if params.Kinds&QueryIMatch != 0 &&
		!strings.Contains(strings.ToLower(ident.Name), strings.ToLower(params.Substring)) {
		return false
	}
	return true
}
