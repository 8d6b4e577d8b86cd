package annotate

import (
	"strings"
	"testing"

	"github.com/dkessler/txvep/internal/genome"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLocation_SameExon(t *testing.T) {
	tr := newFixtureTranscript("ENSTL1", 1, [][2]int64{{1000, 1099}, {2000, 2099}}, 1000, 2099, 1, strings.Repeat("A", 200))

	ch := genome.Change{Pos: 1050, Ref: "A", Alt: "T"}
	assert.Equal(t, "ENSTL1:exon1", BuildLocation(tr, ch))
}

func TestBuildLocation_CrossExonFallsBackToBareAccession(t *testing.T) {
	tr := newFixtureTranscript("ENSTL2", 1, [][2]int64{{1000, 1099}, {2000, 2099}}, 1000, 2099, 1, strings.Repeat("A", 200))

	ch := genome.Change{Pos: 1090, Ref: strings.Repeat("A", 20), Alt: "-"}
	assert.Equal(t, "ENSTL2", BuildLocation(tr, ch))
}

func TestBuildDNAChange_ForwardSNV(t *testing.T) {
	tr := newFixtureTranscript("ENSTL3", 1, [][2]int64{{1000, 1099}}, 1000, 1099, 1, strings.Repeat("A", 100))

	got, err := BuildDNAChange(tr, genome.Change{Pos: 1050, Ref: "A", Alt: "T"})
	require.NoError(t, err)
	assert.Equal(t, "c.51", got)
}

func TestBuildDNAChange_NonCodingUsesNPrefix(t *testing.T) {
	tr := newFixtureTranscript("ENSTL4", 1, [][2]int64{{1000, 1099}}, 0, 0, 0, "")

	got, err := BuildDNAChange(tr, genome.Change{Pos: 1050, Ref: "A", Alt: "T"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "n."))
}

// Insertion order is inverted: the later-transcribed flank is rendered
// first, so an insertion between c.50 and c.51 reads "c.51_50".
func TestBuildDNAChange_ForwardInsertionInvertedOrder(t *testing.T) {
	tr := newFixtureTranscript("ENSTL5", 1, [][2]int64{{1000, 1099}}, 1000, 1099, 1, strings.Repeat("A", 100))

	got, err := BuildDNAChange(tr, genome.Change{Pos: 1050, Ref: "-", Alt: "A"})
	require.NoError(t, err)
	assert.Equal(t, "c.51_50", got)
}

func TestBuildDNAChange_ReverseInsertionInvertedOrder(t *testing.T) {
	tr := newFixtureTranscript("ENSTL6", -1, [][2]int64{{1000, 1099}}, 1000, 1099, 1, strings.Repeat("A", 100))

	got, err := BuildDNAChange(tr, genome.Change{Pos: 1050, Ref: "-", Alt: "A"})
	require.NoError(t, err)
	assert.Equal(t, "c.51_50", got)
}

func TestBuildDNAChange_MultiBaseRange(t *testing.T) {
	tr := newFixtureTranscript("ENSTL7", 1, [][2]int64{{1000, 1099}}, 1000, 1099, 1, strings.Repeat("A", 100))

	got, err := BuildDNAChange(tr, genome.Change{Pos: 1050, Ref: "AAA", Alt: "-"})
	require.NoError(t, err)
	assert.Equal(t, "c.51_53", got)
}
