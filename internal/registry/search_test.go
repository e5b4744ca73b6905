package registry

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchesTagSubset(t *testing.T) {
	var nextTag int32
	ids := map[string]int32{}
	intern := func(name string) int32 {
		if id, ok := ids[name]; ok {
			return id
		}
		nextTag++
		ids[name] = nextTag
		return nextTag
	}
	tags := ParseTagSpec("engine,telemetry", intern)

	ident := &Identifier{Name: "rpm", Storage: &Storage{Tags: tags}}
	query := ParseTagSpec("engine", intern)

	require.True(t, matches(ident, SearchParams{Kinds: QueryTags, Tags: query}))

	missing := ParseTagSpec("nonexistent", intern)
	require.False(t, matches(ident, SearchParams{Kinds: QueryTags, Tags: missing}))
}

func TestMatchesRegex(t *testing.T) {
	ident := &Identifier{Name: "sensor.temp.01", Storage: &Storage{}}
	re := regexp.MustCompile(`^sensor\.temp\.\d+$`)
	require.True(t, matches(ident, SearchParams{Kinds: QueryRegex, Regex: re}))

	other := &Identifier{Name: "sensor.humidity.01", Storage: &Storage{}}
	require.False(t, matches(other, SearchParams{Kinds: QueryRegex, Regex: re}))
}

func TestMatchesExcludesHiddenUnconditionally(t *testing.T) {
	ident := &Identifier{Name: "secret", Storage: &Storage{Flags: FlagHidden}}
	require.False(t, matches(ident, SearchParams{}))
}

func TestSearchTableReusesReleasedSlot(t *testing.T) {
	tbl := NewSearchTable()
	ctx1 := tbl.Alloc(1, SearchParams{})
	tbl.Release(ctx1)

	ctx2 := tbl.Alloc(2, SearchParams{})
	require.Equal(t, ctx1.ID, ctx2.ID, "released context should be reused rather than growing the pool")
}
