// Package cache provides the reference-data provider consumed by the
// annotation engine: an immutable, process-wide, read-only view of
// transcript models plus the genome-wide interval index used to find
// candidate transcripts for a variant. Neither concern is part of the
// annotation core itself: this package is the
// collaborator the core is written against.
package cache

import "github.com/dkessler/txvep/internal/genome"

// Transcript is an immutable record describing one transcript's exon/intron/
// UTR/CDS structure and spliced sequence. Exons are always stored sorted by
// genomic coordinate regardless of strand; TranscriptionOrder walks them in
// the direction they are transcribed.
type Transcript struct {
	ID           string // Accession, e.g. ENST00000311936
	GeneID       string // Parent gene ID
	GeneName     string // Parent gene symbol
	Chrom        string // Chromosome name as it appears in the source data
	ChromID      genome.ChromosomeID
	Start        int64 // tx_start, 1-based inclusive
	End          int64 // tx_end, 1-based inclusive
	Strand       int8  // +1 or -1
	Biotype      string // Transcript biotype
	IsCanonical  bool   // Ensembl canonical flag
	IsMANESelect bool   // MANE Select transcript
	Exons        []Exon // Ordered by genomic coordinate, ascending, regardless of strand

	CDSStart int64 // cds_start, genomic 1-based; 0 (or == End) if non-coding
	CDSEnd   int64 // cds_end, genomic 1-based; 0 (or == End) if non-coding

	// MRNASequence is the spliced nucleotide sequence in transcription
	// order: on the plus strand for + transcripts, already
	// reverse-complemented for - transcripts. RefCDSStart is the 1-based
	// offset of the first coding base within MRNASequence.
	MRNASequence string
	RefCDSStart  int64

	// CDSSequence/UTR3Sequence/ProteinSequence are convenience slices of
	// MRNASequence retained for the exonic protein-effect builders,
	// which read wild-type codons directly rather than re-deriving them
	// from MRNASequence on every call.
	CDSSequence     string
	UTR3Sequence    string
	ProteinSequence string

	// cumulative[i] is the number of spliced bases in exons before exon i
	// in transcription order. Built lazily and cached; see cumulativeLens.
	cumulative []int64
}

// Exon is a single exon within a transcript, in genomic coordinates.
type Exon struct {
	Number   int   // 1-based, in transcription order
	Start    int64 // Genomic start, 1-based
	End      int64 // Genomic end, 1-based inclusive
	CDSStart int64 // CDS portion start, 0 if entirely non-coding
	CDSEnd   int64 // CDS portion end, 0 if entirely non-coding
	Frame    int   // Reading frame (0, 1, or 2), -1 if non-coding
}

// IsProteinCoding reports whether the transcript declares a CDS.
func (t *Transcript) IsProteinCoding() bool {
	return t.CDSStart > 0 && t.CDSEnd > 0 && t.CDSStart < t.CDSEnd
}

// IsForwardStrand reports whether the transcript is on the plus strand.
func (t *Transcript) IsForwardStrand() bool {
	return t.Strand == 1
}

// IsReverseStrand reports whether the transcript is on the minus strand.
func (t *Transcript) IsReverseStrand() bool {
	return t.Strand == -1
}

// StrandOf returns the genome.Strand value corresponding to the transcript.
func (t *Transcript) StrandOf() genome.Strand {
	if t.Strand == -1 {
		return genome.Minus
	}
	return genome.Plus
}

// Contains reports whether pos lies within [Start, End].
func (t *Transcript) Contains(pos int64) bool {
	return pos >= t.Start && pos <= t.End
}

// ContainsCDS reports whether pos lies within the transcript's CDS bounds.
func (t *Transcript) ContainsCDS(pos int64) bool {
	if !t.IsProteinCoding() {
		return false
	}
	return pos >= t.CDSStart && pos <= t.CDSEnd
}

// ExonInTranscriptionOrder returns the i-th exon (0-based) walking in the
// direction the transcript is transcribed: ascending genomic order on the
// plus strand, descending on the minus strand.
func (t *Transcript) ExonInTranscriptionOrder(i int) *Exon {
	n := len(t.Exons)
	if i < 0 || i >= n {
		return nil
	}
	if t.IsReverseStrand() {
		return &t.Exons[n-1-i]
	}
	return &t.Exons[i]
}

// ExonCount returns the number of exons.
func (t *Transcript) ExonCount() int {
	return len(t.Exons)
}

// FindExon returns the exon containing pos, or nil if pos is intronic or
// outside the transcript. Exons are always stored in ascending genomic
// order, so a single binary search serves both strands.
func (t *Transcript) FindExon(pos int64) *Exon {
	n := len(t.Exons)
	if n == 0 {
		return nil
	}
	lo, hi := 0, n-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		e := &t.Exons[mid]
		if pos >= e.Start && pos <= e.End {
			return e
		}
		if pos < e.Start {
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return nil
}

// FindNearestExonIdx returns the genomic-order index (0-based, ascending)
// of the exon containing pos, or the nearest exon by genomic distance if
// pos is intronic.
func (t *Transcript) FindNearestExonIdx(pos int64) int {
	n := len(t.Exons)
	if n == 0 {
		return -1
	}
	lo, hi := 0, n-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		e := &t.Exons[mid]
		if pos >= e.Start && pos <= e.End {
			return mid
		}
		if pos < e.Start {
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	if lo >= n {
		return n - 1
	}
	if hi < 0 {
		return 0
	}
	distHi := pos - t.Exons[hi].End
	if distHi < 0 {
		distHi = -distHi
	}
	distLo := t.Exons[lo].Start - pos
	if distLo < 0 {
		distLo = -distLo
	}
	if distHi <= distLo {
		return hi
	}
	return lo
}

// IsCoding reports whether the exon carries any CDS.
func (e *Exon) IsCoding() bool {
	return e.CDSStart > 0 && e.CDSEnd > 0
}

// Len returns the exon's genomic length in bases.
func (e *Exon) Len() int64 {
	return e.End - e.Start + 1
}

// cumulativeLens returns, and lazily builds, the per-exon cumulative
// spliced-length prefix sums in transcription order: cumulative[i] is the
// total exon length transcribed strictly before exon i. This is the O(exon
// count) scratch structure, preallocated once per transcript rather than
// recomputed per base.
func (t *Transcript) cumulativeLens() []int64 {
	if t.cumulative != nil {
		return t.cumulative
	}
	n := len(t.Exons)
	cum := make([]int64, n)
	var running int64
	for i := 0; i < n; i++ {
		cum[i] = running
		running += t.ExonInTranscriptionOrder(i).Len()
	}
	t.cumulative = cum
	return cum
}

// CumulativeLen returns the number of spliced bases transcribed strictly
// before the i-th exon in transcription order.
func (t *Transcript) CumulativeLen(i int) int64 {
	cum := t.cumulativeLens()
	if i < 0 || i >= len(cum) {
		return 0
	}
	return cum[i]
}

// TotalExonLen returns the total spliced transcript length in bases.
func (t *Transcript) TotalExonLen() int64 {
	cum := t.cumulativeLens()
	n := len(t.Exons)
	if n == 0 {
		return 0
	}
	return cum[n-1] + t.ExonInTranscriptionOrder(n-1).Len()
}

// EnsureMRNA fills in MRNASequence/RefCDSStart from the CDS/UTR3 sequence
// fragments the reference-data loaders already populate, when a full
// spliced sequence was not supplied directly. The 5'UTR portion is
// synthesized as 'N' bases of the correct length when the true sequence
// isn't available to the loader; consumers that need real 5'UTR bases
// should populate MRNASequence directly instead of relying on this.
func (t *Transcript) EnsureMRNA() {
	if t.MRNASequence != "" {
		return
	}
	if !t.IsProteinCoding() || t.CDSSequence == "" {
		return
	}
	fiveUTRLen := t.fivePrimeUTRLen()
	utr5 := make([]byte, fiveUTRLen)
	for i := range utr5 {
		utr5[i] = 'N'
	}
	t.MRNASequence = string(utr5) + t.CDSSequence + t.UTR3Sequence
	t.RefCDSStart = int64(fiveUTRLen) + 1
}

// fivePrimeUTRLen computes the number of spliced bases upstream of the
// first coding base, using only exon/CDS genomic coordinates.
func (t *Transcript) fivePrimeUTRLen() int {
	var total int64
	if t.IsForwardStrand() {
		for i := 0; i < len(t.Exons); i++ {
			e := &t.Exons[i]
			if e.End < t.CDSStart {
				total += e.Len()
				continue
			}
			if e.Start <= t.CDSStart {
				total += t.CDSStart - e.Start
			}
			break
		}
	} else {
		for i := len(t.Exons) - 1; i >= 0; i-- {
			e := &t.Exons[i]
			if e.Start > t.CDSEnd {
				total += e.Len()
				continue
			}
			if e.End >= t.CDSEnd {
				total += e.End - t.CDSEnd
			}
			break
		}
	}
	return int(total)
}
