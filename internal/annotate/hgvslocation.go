package annotate

import (
	"fmt"

	"github.com/dkessler/txvep/internal/cache"
	"github.com/dkessler/txvep/internal/genome"
)

// BuildLocation constructs the exon-qualified location string for a
// normalized change against transcript t: "<accession>:exon<k>" when both
// endpoints fall in the same exon, else the bare accession.
func BuildLocation(t *cache.Transcript, ch genome.Change) string {
	first, last := locationEndpoints(ch)
	e1 := t.FindExon(first)
	e2 := t.FindExon(last)
	if e1 != nil && e2 != nil && e1.Start == e2.Start && e1.End == e2.End {
		return fmt.Sprintf("%s:exon%d", t.ID, e1.Number)
	}
	return t.ID
}

// locationEndpoints returns the two genomic bases whose exon membership
// determines the location string: for an insertion, its two flanking
// bases; otherwise the interval's own bounds.
func locationEndpoints(ch genome.Change) (int64, int64) {
	if ch.IsInsertion() {
		return int64(ch.Pos) - 1, int64(ch.Pos)
	}
	iv := ch.Interval()
	return int64(iv.Start), int64(iv.End)
}

// BuildDNAChange constructs the DNA change string: "c."-prefixed for
// coding transcripts, "n."-prefixed otherwise.
func BuildDNAChange(t *cache.Transcript, ch genome.Change) (string, error) {
	prefix := byte('c')
	if !t.IsProteinCoding() {
		prefix = 'n'
	}
	p := NewProjector(t)

	switch {
	case ch.IsInsertion():
		firstGenomic, lastGenomic := insertionTranscriptionOrder(t, ch)
		firstPos, err := p.GenomeToCdnaPos(firstGenomic)
		if err != nil {
			return "", err
		}
		lastPos, err := p.GenomeToCdnaPos(lastGenomic)
		if err != nil {
			return "", err
		}
		// Insertion order is inverted: the later-transcribed flank is
		// rendered first.
		return fmt.Sprintf("%c.%s_%s", prefix, lastPos, firstPos), nil

	default:
		iv := ch.Interval()
		if iv.Start == iv.End {
			pos, err := p.GenomeToCdnaPos(int64(iv.Start))
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%c.%s", prefix, pos), nil
		}
		firstPos, err := p.GenomeToCdnaPos(int64(iv.Start))
		if err != nil {
			return "", err
		}
		lastPos, err := p.GenomeToCdnaPos(int64(iv.End))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%c.%s_%s", prefix, firstPos, lastPos), nil
	}
}

// insertionTranscriptionOrder returns the insertion's two flanking genomic
// bases ordered (earlier-transcribed, later-transcribed).
func insertionTranscriptionOrder(t *cache.Transcript, ch genome.Change) (first, last int64) {
	if t.IsReverseStrand() {
		return int64(ch.Pos), int64(ch.Pos) - 1
	}
	return int64(ch.Pos) - 1, int64(ch.Pos)
}
