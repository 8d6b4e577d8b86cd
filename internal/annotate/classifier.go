package annotate

import "github.com/dkessler/txvep/internal/cache"

// Classifier answers region-membership predicates for one transcript.
// It is pure: every method reads only its arguments and the transcript, and
// allocates nothing.
type Classifier struct {
	t    *cache.Transcript
	opts Options
}

// NewClassifier builds a region classifier for t using opts' window sizes.
func NewClassifier(t *cache.Transcript, opts Options) *Classifier {
	return &Classifier{t: t, opts: opts}
}

// LiesInExon reports whether p falls within any exon.
func (c *Classifier) LiesInExon(p int64) bool {
	return c.t.FindExon(p) != nil
}

// LiesInCDS reports whether p falls within the transcript's CDS bounds and
// within an exon (an intron between two coding exons is not CDS).
func (c *Classifier) LiesInCDS(p int64) bool {
	return c.t.ContainsCDS(p) && c.LiesInExon(p)
}

// LiesIn5UTR reports whether p is an exonic, coding-transcript position 5'
// of cds_start.
func (c *Classifier) LiesIn5UTR(p int64) bool {
	if !c.t.IsProteinCoding() || !c.LiesInExon(p) {
		return false
	}
	if c.t.IsForwardStrand() {
		return p < c.t.CDSStart
	}
	return p > c.t.CDSEnd
}

// LiesIn3UTR reports whether p is an exonic, coding-transcript position 3'
// of cds_end.
func (c *Classifier) LiesIn3UTR(p int64) bool {
	if !c.t.IsProteinCoding() || !c.LiesInExon(p) {
		return false
	}
	if c.t.IsForwardStrand() {
		return p > c.t.CDSEnd
	}
	return p < c.t.CDSStart
}

// donorWindow and acceptorWindow return the genomic donor window 3' of and
// the acceptor window 5' of exon idx (transcription order), each as
// [start,end] inclusive; ok is false on the side where no flanking exon
// exists.
func (c *Classifier) donorWindow(idx int, length int64) (int64, int64, bool) {
	if idx < 0 || idx+1 >= c.t.ExonCount() {
		return 0, 0, false
	}
	e := c.t.ExonInTranscriptionOrder(idx)
	if c.t.IsForwardStrand() {
		return e.End + 1, e.End + length, true
	}
	return e.Start - length, e.Start - 1, true
}

func (c *Classifier) acceptorWindow(idx int, length int64) (int64, int64, bool) {
	if idx-1 < 0 {
		return 0, 0, false
	}
	e := c.t.ExonInTranscriptionOrder(idx)
	if c.t.IsForwardStrand() {
		return e.Start - length, e.Start - 1, true
	}
	return e.End + 1, e.End + length, true
}

func within(p, lo, hi int64, ok bool) bool {
	return ok && p >= lo && p <= hi
}

// LiesInSpliceDonor reports whether p is within SpliceDonorLen intronic
// bases immediately 3' of some exon (donor side of that exon).
func (c *Classifier) LiesInSpliceDonor(p int64) bool {
	for idx := 0; idx < c.t.ExonCount(); idx++ {
		lo, hi, ok := c.donorWindow(idx, c.opts.SpliceDonorLen)
		if within(p, lo, hi, ok) {
			return true
		}
	}
	return false
}

// LiesInSpliceAcceptor reports whether p is within SpliceAcceptorLen
// intronic bases immediately 5' of some exon.
func (c *Classifier) LiesInSpliceAcceptor(p int64) bool {
	for idx := 0; idx < c.t.ExonCount(); idx++ {
		lo, hi, ok := c.acceptorWindow(idx, c.opts.SpliceAcceptorLen)
		if within(p, lo, hi, ok) {
			return true
		}
	}
	return false
}

// LiesInSpliceRegion reports whether p is within the broader splice region
// window: SpliceRegionExonicLen exonic bases at a boundary, or
// SpliceRegionIntronicLen intronic bases beyond the donor/acceptor
// dinucleotide.
func (c *Classifier) LiesInSpliceRegion(p int64) bool {
	for idx := 0; idx < c.t.ExonCount(); idx++ {
		e := c.t.ExonInTranscriptionOrder(idx)
		if c.exonicSpliceRegion(e, p) {
			return true
		}
		if dlo, dhi, ok := c.donorWindow(idx, c.opts.SpliceDonorLen+c.opts.SpliceRegionIntronicLen); within(p, dlo, dhi, ok) {
			return true
		}
		if alo, ahi, ok := c.acceptorWindow(idx, c.opts.SpliceAcceptorLen+c.opts.SpliceRegionIntronicLen); within(p, alo, ahi, ok) {
			return true
		}
	}
	return false
}

// exonicSpliceRegion reports whether p is within SpliceRegionExonicLen
// bases of either boundary of e.
func (c *Classifier) exonicSpliceRegion(e *cache.Exon, p int64) bool {
	if p < e.Start || p > e.End {
		return false
	}
	n := c.opts.SpliceRegionExonicLen
	return p < e.Start+n || p > e.End-n
}

// LiesInUpstream reports whether p is within NearGeneDistance bases 5' of
// tx_start (strand-aware) and outside the transcript.
func (c *Classifier) LiesInUpstream(p int64) bool {
	if c.t.Contains(p) {
		return false
	}
	if c.t.IsForwardStrand() {
		return p < c.t.Start && c.t.Start-p <= c.opts.NearGeneDistance
	}
	return p > c.t.End && p-c.t.End <= c.opts.NearGeneDistance
}

// LiesInDownstream reports whether p is within NearGeneDistance bases 3' of
// tx_end (strand-aware) and outside the transcript.
func (c *Classifier) LiesInDownstream(p int64) bool {
	if c.t.Contains(p) {
		return false
	}
	if c.t.IsForwardStrand() {
		return p > c.t.End && p-c.t.End <= c.opts.NearGeneDistance
	}
	return p < c.t.Start && c.t.Start-p <= c.opts.NearGeneDistance
}

// overlapsPointPredicate applies a point predicate across every base in
// [start,end], short-circuiting on the first hit.
func overlapsPointPredicate(start, end int64, pred func(int64) bool) bool {
	for p := start; p <= end; p++ {
		if pred(p) {
			return true
		}
	}
	return false
}

// OverlapsWithExon reports whether any base of [start,end] lies in an exon.
func (c *Classifier) OverlapsWithExon(start, end int64) bool {
	return overlapsPointPredicate(start, end, c.LiesInExon)
}

// OverlapsWithCDS reports whether any base of [start,end] lies in the CDS.
func (c *Classifier) OverlapsWithCDS(start, end int64) bool {
	return overlapsPointPredicate(start, end, c.LiesInCDS)
}

// OverlapsWith5UTR reports whether any base of [start,end] lies in the 5' UTR.
func (c *Classifier) OverlapsWith5UTR(start, end int64) bool {
	return overlapsPointPredicate(start, end, c.LiesIn5UTR)
}

// OverlapsWith3UTR reports whether any base of [start,end] lies in the 3' UTR.
func (c *Classifier) OverlapsWith3UTR(start, end int64) bool {
	return overlapsPointPredicate(start, end, c.LiesIn3UTR)
}

// OverlapsWithSpliceDonor reports whether [start,end] touches a donor window.
func (c *Classifier) OverlapsWithSpliceDonor(start, end int64) bool {
	return overlapsPointPredicate(start, end, c.LiesInSpliceDonor)
}

// OverlapsWithSpliceAcceptor reports whether [start,end] touches an acceptor window.
func (c *Classifier) OverlapsWithSpliceAcceptor(start, end int64) bool {
	return overlapsPointPredicate(start, end, c.LiesInSpliceAcceptor)
}

// OverlapsWithSpliceRegion reports whether [start,end] touches the broader
// splice region window (donor, acceptor, or the exonic edge).
func (c *Classifier) OverlapsWithSpliceRegion(start, end int64) bool {
	return overlapsPointPredicate(start, end, c.LiesInSpliceRegion)
}
