package aprs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilters_Tokens(t *testing.T) {
	fs := ParseFilters("r/35/-106/100 p/N0/KC0 b/W1AW t/pm s/># o/LEADER")
	require.Len(t, fs, 6)
	assert.IsType(t, RangeFilter{}, fs[0])
	assert.IsType(t, PrefixFilter{}, fs[1])
	assert.IsType(t, BudlistFilter{}, fs[2])
	assert.IsType(t, TypeFilter{}, fs[3])
	assert.IsType(t, SymbolFilter(""), fs[4])
	assert.IsType(t, ObjectFilter{}, fs[5])
}

func TestParseFilters_DropsBadTokens(t *testing.T) {
	assert.Len(t, ParseFilters("x/unknown noslash r/bad/args r/1/2"), 0)
	assert.Len(t, ParseFilters(""), 0)
	assert.Len(t, ParseFilters("   "), 0)
}

func TestMatchAny_EmptyMatchesAll(t *testing.T) {
	p := mustParse(t, "N0CALL>APRS:>whatever")
	assert.True(t, MatchAny(nil, p))
}

func TestFilter_CombinedOrSemantics(t *testing.T) {
	// source prefix N0 matches even though the message has no position
	fs := ParseFilters("r/35/-106/100 p/N0 t/pm")
	p := mustParse(t, "N0CALL>APRS::KC0ABC   :hi")
	assert.True(t, MatchAny(fs, p))

	// telemetry from another source matches nothing in the list
	far := mustParse(t, "VK2ABC>APRS:T#005,199,045,12,1,0,00000000")
	assert.False(t, MatchAny(fs, far))
}

func TestRangeFilter(t *testing.T) {
	f := RangeFilter{Lat: 35.89, Lon: -106.04, Km: 50}
	near := mustParse(t, "N0CALL>APRS:!3553.50N/10602.50W>")
	assert.True(t, f.Match(near))

	noPos := mustParse(t, "N0CALL>APRS:>status")
	assert.False(t, f.Match(noPos))
}

func TestPrefixFilter_CaseSensitive(t *testing.T) {
	f := PrefixFilter{"N0"}
	assert.True(t, f.Match(&Packet{Source: "N0CALL"}))
	assert.False(t, f.Match(&Packet{Source: "n0call"}))
}

func TestBudlistFilter(t *testing.T) {
	f := BudlistFilter{"W1AW"}
	assert.True(t, f.Match(&Packet{Source: "W1AW"}))
	assert.True(t, f.Match(&Packet{Source: "X", Destination: "W1AW"}))
	assert.True(t, f.Match(&Packet{Source: "X", Destination: "Y", Path: []string{"W1AW*"}}))
	assert.False(t, f.Match(&Packet{Source: "W1AW-1"}))
}

func TestTypeFilter(t *testing.T) {
	fs := ParseFilters("t/m")
	msg := mustParse(t, "N0CALL>APRS::KC0ABC   :hi")
	pos := mustParse(t, "N0CALL>APRS:!3553.50N/10602.50W>")
	wx := mustParse(t, "N0CALL>APRS:_10090556c220s004g005t077")
	assert.True(t, MatchAny(fs, msg))
	assert.False(t, MatchAny(fs, pos))
	assert.False(t, MatchAny(fs, wx))
}

func TestSymbolFilter(t *testing.T) {
	f := SymbolFilter("#")
	digi := mustParse(t, "N0CALL>APRS:!3553.50N/10602.50W#PHG5360")
	car := mustParse(t, "N0CALL>APRS:!3553.50N/10602.50W>")
	assert.True(t, f.Match(digi))
	assert.False(t, f.Match(car))
}

func TestObjectFilter(t *testing.T) {
	f := ObjectFilter{"LEADER"}
	obj := mustParse(t, "N0CALL>APRS:;LEADER   *092345z4903.50N/07201.75W>")
	other := mustParse(t, "N0CALL>APRS:;TRAILER  *092345z4903.50N/07201.75W>")
	assert.True(t, f.Match(obj))
	assert.False(t, f.Match(other))
}
