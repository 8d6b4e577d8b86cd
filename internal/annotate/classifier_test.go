package annotate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifier_LiesInCDS_UTR(t *testing.T) {
	tr := newFixtureTranscript("ENSTC1", 1, [][2]int64{{1000, 1199}}, 1010, 1189, 11, strings.Repeat("A", 180))
	c := NewClassifier(tr, DefaultOptions())

	assert.True(t, c.LiesIn5UTR(1000))
	assert.False(t, c.LiesInCDS(1000))

	assert.True(t, c.LiesInCDS(1010))
	assert.True(t, c.LiesInCDS(1189))
	assert.False(t, c.LiesIn5UTR(1010))
	assert.False(t, c.LiesIn3UTR(1189))

	assert.True(t, c.LiesIn3UTR(1199))
	assert.False(t, c.LiesInCDS(1199))
}

// On the minus strand, 5'UTR sits above cds_end and 3'UTR below cds_start.
func TestClassifier_ReverseStrand_UTRIsMirrored(t *testing.T) {
	tr := newFixtureTranscript("ENSTC2", -1, [][2]int64{{1000, 1199}}, 1010, 1189, 11, strings.Repeat("A", 180))
	c := NewClassifier(tr, DefaultOptions())

	assert.True(t, c.LiesIn5UTR(1199))
	assert.True(t, c.LiesIn3UTR(1000))
}

func TestClassifier_SpliceDonorAcceptorRegion(t *testing.T) {
	opts := DefaultOptions()
	tr := newFixtureTranscript("ENSTC3", 1, [][2]int64{{100, 150}, {200, 250}}, 100, 250, 1, strings.Repeat("A", 151))
	c := NewClassifier(tr, opts)

	// Donor dinucleotide immediately after exon0.
	assert.True(t, c.LiesInSpliceDonor(151))
	assert.True(t, c.LiesInSpliceDonor(152))
	assert.False(t, c.LiesInSpliceDonor(153))

	// Acceptor dinucleotide immediately before exon1.
	assert.True(t, c.LiesInSpliceAcceptor(199))
	assert.True(t, c.LiesInSpliceAcceptor(198))
	assert.False(t, c.LiesInSpliceAcceptor(197))

	// Splice region widens past the dinucleotide but is still bounded.
	assert.True(t, c.LiesInSpliceRegion(153))
	assert.False(t, c.LiesInSpliceRegion(175))

	// Deep intronic bases are neither donor, acceptor, nor region.
	assert.False(t, c.LiesInSpliceDonor(175))
	assert.False(t, c.LiesInSpliceAcceptor(175))
}

func TestClassifier_UpstreamDownstream(t *testing.T) {
	opts := DefaultOptions()
	forward := newFixtureTranscript("ENSTC4", 1, [][2]int64{{1000, 2000}}, 0, 0, 0, "")
	c := NewClassifier(forward, opts)

	assert.True(t, c.LiesInUpstream(500))
	assert.False(t, c.LiesInDownstream(500))
	assert.True(t, c.LiesInDownstream(2500))
	assert.False(t, c.LiesInUpstream(2500))
	assert.False(t, c.LiesInUpstream(1500)) // inside the transcript

	reverse := newFixtureTranscript("ENSTC5", -1, [][2]int64{{1000, 2000}}, 0, 0, 0, "")
	c = NewClassifier(reverse, opts)

	assert.True(t, c.LiesInDownstream(500))
	assert.True(t, c.LiesInUpstream(2500))
}

func TestClassifier_Overlaps(t *testing.T) {
	tr := newFixtureTranscript("ENSTC6", 1, [][2]int64{{1000, 1099}}, 1010, 1089, 11, strings.Repeat("A", 80))
	c := NewClassifier(tr, DefaultOptions())

	assert.True(t, c.OverlapsWithExon(990, 1005))
	assert.True(t, c.OverlapsWithCDS(1005, 1015))
	assert.True(t, c.OverlapsWith5UTR(995, 1005))
	assert.False(t, c.OverlapsWith5UTR(1010, 1020))
}
