package annotate

import "github.com/dkessler/txvep/internal/cache"

// newFixtureTranscript builds a *cache.Transcript for coordinate-projection
// and dispatch tests. exons is genomic-ascending [start,end] pairs; Number
// is derived from strand so callers never have to reason about
// transcription order by hand.
func newFixtureTranscript(id string, strand int8, exons [][2]int64, cdsStart, cdsEnd, refCDSStart int64, cdsSeq string) *cache.Transcript {
	t := &cache.Transcript{
		ID:          id,
		GeneID:      id + "_gene",
		GeneName:    id + "Gene",
		Chrom:       "1",
		Strand:      strand,
		CDSStart:    cdsStart,
		CDSEnd:      cdsEnd,
		RefCDSStart: refCDSStart,
		CDSSequence: cdsSeq,
	}
	n := len(exons)
	for i, e := range exons {
		num := i + 1
		if strand == -1 {
			num = n - i
		}
		t.Exons = append(t.Exons, cache.Exon{Number: num, Start: e[0], End: e[1]})
	}
	t.Start = exons[0][0]
	t.End = exons[n-1][1]
	return t
}
