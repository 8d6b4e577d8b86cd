package annotate

import (
	"strconv"
	"strings"

	"github.com/dkessler/txvep/internal/cache"
)

// CdnaPos is an HGVS cDNA position: an anchor integer plus an optional
// intronic offset. Star marks a 3'-UTR anchor ("*10"); a negative Anchor
// with Star false marks a 5'-UTR anchor ("-5"); IntronOffset is nonzero only
// for intronic positions ("123+4", "*10-2").
type CdnaPos struct {
	Anchor       int64
	Star         bool
	IntronOffset int64
}

// String renders the position in HGVS notation.
func (c CdnaPos) String() string {
	var sb strings.Builder
	if c.Star {
		sb.WriteByte('*')
	}
	sb.WriteString(strconv.FormatInt(c.Anchor, 10))
	switch {
	case c.IntronOffset > 0:
		sb.WriteByte('+')
		sb.WriteString(strconv.FormatInt(c.IntronOffset, 10))
	case c.IntronOffset < 0:
		sb.WriteString(strconv.FormatInt(c.IntronOffset, 10))
	}
	return sb.String()
}

// Projector maps genomic positions to transcript offsets and cDNA positions
// for a single transcript. It is a thin, stateless-beyond-caching
// wrapper around one *cache.Transcript; building one is cheap enough to do
// once per dispatch call.
type Projector struct {
	t *cache.Transcript

	cdsStartOff int64 // 0-based tx offset of the first coding base
	cdsEndOff   int64 // 0-based tx offset of the last coding base
}

// NewProjector builds a coordinate projector for t. For non-coding
// transcripts the whole spliced sequence is treated as a single "coding"
// span so that TxOffsetToCdnaPos numbers it 1..N without UTR distinctions,
// matching the n. numbering convention.
func NewProjector(t *cache.Transcript) *Projector {
	p := &Projector{t: t}
	if t.IsProteinCoding() {
		p.cdsStartOff = t.RefCDSStart - 1
		p.cdsEndOff = p.cdsStartOff + int64(len(t.CDSSequence)) - 1
	} else {
		p.cdsStartOff = 0
		p.cdsEndOff = t.TotalExonLen() - 1
	}
	return p
}

func (p *Projector) dir() int64 {
	if p.t.IsReverseStrand() {
		return -1
	}
	return 1
}

// lastTranscribedBase returns the genomic coordinate of the last base of e
// in transcription order (the donor-side boundary).
func (p *Projector) lastTranscribedBase(e *cache.Exon) int64 {
	if p.t.IsReverseStrand() {
		return e.Start
	}
	return e.End
}

// firstTranscribedBase returns the genomic coordinate of the first base of
// e in transcription order (the acceptor-side boundary).
func (p *Projector) firstTranscribedBase(e *cache.Exon) int64 {
	if p.t.IsReverseStrand() {
		return e.End
	}
	return e.Start
}

// exonAt is ExonInTranscriptionOrder with bounds treated as "no exon".
func (p *Projector) exonAt(idx int) *cache.Exon {
	if idx < 0 || idx >= p.t.ExonCount() {
		return nil
	}
	return p.t.ExonInTranscriptionOrder(idx)
}

// GenomeToTxOffset maps a genomic position within some exon to its 0-based
// offset in the spliced transcript sequence. Returns ErrProjectionOutOfRange
// if g is intronic or outside the transcript.
func (p *Projector) GenomeToTxOffset(g int64) (int64, error) {
	idx, inIntron, err := p.LocateExon(g)
	if err != nil {
		return 0, err
	}
	if inIntron {
		return 0, &ErrProjectionOutOfRange{TranscriptID: p.t.ID, Position: g}
	}
	e := p.exonAt(idx)
	delta := p.dir() * (g - p.firstTranscribedBase(e))
	return p.t.CumulativeLen(idx) + delta, nil
}

// LocateExon identifies the exon (transcription-order index) containing g,
// or the nearer flanking exon if g is intronic.
func (p *Projector) LocateExon(g int64) (exonIdx int, inIntron bool, err error) {
	if !p.t.Contains(g) {
		return 0, false, &ErrProjectionOutOfRange{TranscriptID: p.t.ID, Position: g}
	}
	if e := p.t.FindExon(g); e != nil {
		return p.transcriptionOrderIndexOf(e), false, nil
	}
	idx, _, _ := p.intronAnchor(g)
	return idx, true, nil
}

// transcriptionOrderIndexOf converts an exon located by genomic position
// back into its transcription-order index, using the loader-assigned
// Number field (always 1-based in transcription order).
func (p *Projector) transcriptionOrderIndexOf(e *cache.Exon) int {
	n := p.t.ExonCount()
	if e.Number >= 1 && e.Number <= n {
		return e.Number - 1
	}
	for i := 0; i < n; i++ {
		if cand := p.t.ExonInTranscriptionOrder(i); cand.Start == e.Start && cand.End == e.End {
			return i
		}
	}
	return 0
}

// intronAnchor resolves an intronic genomic position g to the nearer
// flanking exon in transcription order, the signed HGVS intron offset from
// that exon's boundary (positive on the donor side, negative on the
// acceptor side), and whether the resolved exon is the upstream (donor)
// side of the intron.
func (p *Projector) intronAnchor(g int64) (idx int, offset int64, isDonorSide bool) {
	genomicIdx := p.t.FindNearestExonIdx(g)
	txIdx := p.txOrderIndexFromGenomicIdx(genomicIdx)

	// Determine which side of exon txIdx the intron containing g falls on,
	// then identify the up/down pair bracketing it.
	var upIdx, downIdx int
	if e := p.exonAt(txIdx); e != nil && p.dir()*(g-p.lastTranscribedBase(e)) > 0 {
		upIdx, downIdx = txIdx, txIdx+1
	} else {
		upIdx, downIdx = txIdx-1, txIdx
	}

	up, down := p.exonAt(upIdx), p.exonAt(downIdx)
	switch {
	case up == nil:
		return downIdx, -(p.dir() * (p.firstTranscribedBase(down) - g)), false
	case down == nil:
		return upIdx, p.dir() * (g - p.lastTranscribedBase(up)), true
	}

	distUp := p.dir() * (g - p.lastTranscribedBase(up))
	distDown := p.dir() * (p.firstTranscribedBase(down) - g)
	if distUp <= distDown {
		return upIdx, distUp, true
	}
	return downIdx, -distDown, false
}

// txOrderIndexFromGenomicIdx converts a genomic-ascending exon index (as
// returned by FindNearestExonIdx) into a transcription-order index.
func (p *Projector) txOrderIndexFromGenomicIdx(genomicIdx int) int {
	if p.t.IsReverseStrand() {
		return p.t.ExonCount() - 1 - genomicIdx
	}
	return genomicIdx
}

// CDSOffsets returns the 0-based transcript-offset span of the CDS,
// [start,end] inclusive. For non-coding transcripts this spans the whole
// transcript.
func (p *Projector) CDSOffsets() (start, end int64) {
	return p.cdsStartOff, p.cdsEndOff
}

// TxOffsetToCdnaPos converts a 0-based spliced-transcript offset into its
// HGVS anchor, with zero intron offset.
func (p *Projector) TxOffsetToCdnaPos(off int64) CdnaPos {
	switch {
	case off < p.cdsStartOff:
		return CdnaPos{Anchor: off - p.cdsStartOff}
	case off > p.cdsEndOff:
		return CdnaPos{Anchor: off - p.cdsEndOff, Star: true}
	default:
		return CdnaPos{Anchor: off - p.cdsStartOff + 1}
	}
}

// GenomeToCdnaPos maps a genomic position, exonic or intronic, to its full
// HGVS cDNA position including any intron offset.
func (p *Projector) GenomeToCdnaPos(g int64) (CdnaPos, error) {
	if !p.t.Contains(g) {
		return CdnaPos{}, &ErrProjectionOutOfRange{TranscriptID: p.t.ID, Position: g}
	}
	if e := p.t.FindExon(g); e != nil {
		off, err := p.GenomeToTxOffset(g)
		if err != nil {
			return CdnaPos{}, err
		}
		return p.TxOffsetToCdnaPos(off), nil
	}

	idx, offset, isDonorSide := p.intronAnchor(g)
	e := p.exonAt(idx)
	var boundaryOff int64
	if isDonorSide {
		boundaryOff = p.t.CumulativeLen(idx) + e.Len() - 1
	} else {
		boundaryOff = p.t.CumulativeLen(idx)
	}
	pos := p.TxOffsetToCdnaPos(boundaryOff)
	pos.IntronOffset = offset
	return pos, nil
}
