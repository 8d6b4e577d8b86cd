package annotate

import (
	"github.com/dkessler/txvep/internal/cache"
	"github.com/dkessler/txvep/internal/genome"
)

// Normalize left-aligns an insertion or deletion within a single exon of t,
// on the transcript's strand of transcription: the equivalent
// change is shifted upstream (in transcription order) as far as the
// reference sequence permits without altering the alternate haplotype.
// Pure SNVs, block substitutions, and changes that are not entirely
// contained within one exon are returned unchanged.
func Normalize(t *cache.Transcript, ch genome.Change) genome.Change {
	if ch.IsSNV() || ch.IsBlockSubstitution() {
		return ch
	}
	exon := singleContainingExon(t, ch)
	if exon == nil {
		return ch
	}
	seq, ok := splicedExonSequence(t, exon)
	if !ok {
		return ch
	}

	p := NewProjector(t)
	exonIdx := p.transcriptionOrderIndexOf(exon)
	exonTxStart := t.CumulativeLen(exonIdx)

	if ch.IsDeletion() {
		return normalizeDeletion(t, p, exon, exonTxStart, seq, ch)
	}
	return normalizeInsertion(t, p, exon, exonTxStart, seq, ch)
}

func normalizeDeletion(t *cache.Transcript, p *Projector, exon *cache.Exon, exonTxStart int64, seq string, ch genome.Change) genome.Change {
	iv := ch.Interval()
	startOff, err1 := p.GenomeToTxOffset(int64(iv.Start))
	endOff, err2 := p.GenomeToTxOffset(int64(iv.End))
	if err1 != nil || err2 != nil {
		return ch
	}
	firstOff := startOff
	if endOff < firstOff {
		firstOff = endOff
	}
	length := len(ch.Ref)
	localAnchor := int(firstOff - exonTxStart)
	if localAnchor < 0 || localAnchor+length > len(seq) {
		return ch
	}

	deleted := []byte(seq[localAnchor : localAnchor+length])
	for localAnchor > 0 && seq[localAnchor-1] == deleted[len(deleted)-1] {
		copy(deleted[1:], deleted[:len(deleted)-1])
		deleted[0] = seq[localAnchor-1]
		localAnchor--
	}

	newFirstOff := exonTxStart + int64(localAnchor)
	newGenomicFirst := txOffsetToGenomicInExon(t, exon, newFirstOff)

	out := ch
	refStr := string(deleted)
	if t.IsReverseStrand() {
		refStr = reverseComplementString(refStr)
		out.Pos = genome.Pos(newGenomicFirst) - genome.Pos(length) + 1
	} else {
		out.Pos = genome.Pos(newGenomicFirst)
	}
	out.Ref = refStr
	return out
}

func normalizeInsertion(t *cache.Transcript, p *Projector, exon *cache.Exon, exonTxStart int64, seq string, ch genome.Change) genome.Change {
	boundaryOff, ok := insertionBoundaryOffset(t, p, ch)
	if !ok {
		return ch
	}
	localAnchor := int(boundaryOff - exonTxStart)
	if localAnchor < 0 || localAnchor > len(seq) {
		return ch
	}

	inserted := []byte(reverseComplementIfReverse(t, ch.Alt))
	for localAnchor > 0 && seq[localAnchor-1] == inserted[len(inserted)-1] {
		copy(inserted[1:], inserted[:len(inserted)-1])
		inserted[0] = seq[localAnchor-1]
		localAnchor--
	}

	newBoundaryOff := exonTxStart + int64(localAnchor)

	out := ch
	out.Alt = reverseComplementIfReverse(t, string(inserted))
	if t.IsReverseStrand() {
		out.Pos = genome.Pos(txOffsetToGenomicInExon(t, exon, newBoundaryOff-1))
	} else {
		out.Pos = genome.Pos(txOffsetToGenomicInExon(t, exon, newBoundaryOff))
	}
	return out
}

// insertionBoundaryOffset returns the 0-based transcript offset of the
// number of bases transcribed before the insertion point, trying both
// sides of the (Pos-1, Pos) anchor since one may fall outside the exon at
// its edge.
func insertionBoundaryOffset(t *cache.Transcript, p *Projector, ch genome.Change) (int64, bool) {
	if t.IsReverseStrand() {
		if off, err := p.GenomeToTxOffset(int64(ch.Pos)); err == nil {
			return off + 1, true
		}
		if off, err := p.GenomeToTxOffset(int64(ch.Pos) - 1); err == nil {
			return off, true
		}
		return 0, false
	}
	if off, err := p.GenomeToTxOffset(int64(ch.Pos)); err == nil {
		return off, true
	}
	if off, err := p.GenomeToTxOffset(int64(ch.Pos) - 1); err == nil {
		return off + 1, true
	}
	return 0, false
}

func reverseComplementIfReverse(t *cache.Transcript, s string) string {
	if t.IsReverseStrand() {
		return reverseComplementString(s)
	}
	return s
}

func reverseComplementString(s string) string {
	return ReverseComplement(s)
}

// singleContainingExon returns the exon fully containing ch's interval (or,
// for an insertion, the exon adjacent to its anchor), or nil if the change
// spans an exon boundary or lands outside any exon.
func singleContainingExon(t *cache.Transcript, ch genome.Change) *cache.Exon {
	if ch.IsInsertion() {
		if e := t.FindExon(int64(ch.Pos)); e != nil {
			return e
		}
		return t.FindExon(int64(ch.Pos) - 1)
	}
	iv := ch.Interval()
	startExon := t.FindExon(int64(iv.Start))
	endExon := t.FindExon(int64(iv.End))
	if startExon == nil || endExon == nil || startExon.Start != endExon.Start {
		return nil
	}
	return startExon
}

// splicedExonSequence returns the spliced sub-sequence of t.MRNASequence
// corresponding to exon, in transcription order.
func splicedExonSequence(t *cache.Transcript, exon *cache.Exon) (string, bool) {
	if t.MRNASequence == "" {
		return "", false
	}
	p := NewProjector(t)
	idx := p.transcriptionOrderIndexOf(exon)
	start := t.CumulativeLen(idx)
	length := exon.Len()
	if start < 0 || start+length > int64(len(t.MRNASequence)) {
		return "", false
	}
	return t.MRNASequence[start : start+length], true
}

// txOffsetToGenomicInExon inverts GenomeToTxOffset for an offset known to
// fall within exon.
func txOffsetToGenomicInExon(t *cache.Transcript, exon *cache.Exon, txOff int64) int64 {
	p := NewProjector(t)
	idx := p.transcriptionOrderIndexOf(exon)
	delta := txOff - t.CumulativeLen(idx)
	if t.IsReverseStrand() {
		return exon.End - delta
	}
	return exon.Start + delta
}
