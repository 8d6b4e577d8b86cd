package annotate

import (
	"sort"
	"strings"

	"github.com/dkessler/txvep/internal/cache"
	"github.com/dkessler/txvep/internal/genome"
)

// IntervalIndex is the read-only interval-query surface the dispatcher
// needs from a transcript store. *cache.Cache and *cache.CacheWithLoader
// both satisfy it.
type IntervalIndex interface {
	Search(chrom string, start, end int64) []*cache.Transcript
	SearchLarge(chrom string, start, end int64) []*cache.Transcript
	LeftNeighbor(chrom string, pos int64) *cache.Transcript
	RightNeighbor(chrom string, pos int64) *cache.Transcript
	Chromosomes() []string
}

// Dispatcher implements the per-transcript annotation algorithm: it
// gathers candidate transcripts from the interval index, classifies the
// change against each, and routes coding-exonic changes to the built-in
// codon-shape classifier that stands in for the external protein-effect
// builders. It holds a reference to the shared, immutable index and a
// copy of the tuning options; both are safe to use from many goroutines at
// once per call.
type Dispatcher struct {
	idx  IntervalIndex
	opts Options
}

// NewDispatcher builds a dispatcher over idx using opts.
func NewDispatcher(idx IntervalIndex, opts Options) *Dispatcher {
	return &Dispatcher{idx: idx, opts: opts}
}

// Annotate runs the full dispatch algorithm for one normalized genome
// change on chrom and returns every annotation the engine produces.
func (d *Dispatcher) Annotate(chrom string, ch genome.Change) ([]*Annotation, error) {
	if !d.chromosomeKnown(chrom) {
		return nil, &ErrChromosomeUnknown{Chromosome: chrom}
	}

	qStart, qEnd := changeEndpoints(ch)
	structural := ch.IsStructural(int(d.opts.StructuralVariantThreshold))

	var candidates []*cache.Transcript
	if structural {
		candidates = d.idx.SearchLarge(chrom, qStart, qEnd)
	} else {
		candidates = d.idx.Search(chrom, qStart, qEnd)
	}

	if len(candidates) == 0 {
		return d.noCandidatePath(chrom, ch, structural, qStart, qEnd)
	}

	anns := make([]*Annotation, 0, len(candidates))
	for _, t := range candidates {
		if structural {
			anns = append(anns, d.structuralAnnotation(t, chrom, ch))
			continue
		}
		anns = append(anns, d.classifyAgainstTranscript(t, ch))
	}
	if len(anns) == 0 {
		return nil, &ErrAnnotationEmpty{Chromosome: chrom, Position: int64(ch.Pos)}
	}
	return anns, nil
}

func (d *Dispatcher) chromosomeKnown(chrom string) bool {
	chroms := d.idx.Chromosomes()
	i := sort.SearchStrings(chroms, chrom)
	return i < len(chroms) && chroms[i] == chrom
}

// changeEndpoints returns the two genomic bases relevant to overlap
// queries and region classification: an insertion's flanking pair for a
// pure insertion, otherwise the change's own interval bounds.
func changeEndpoints(ch genome.Change) (int64, int64) {
	if ch.IsInsertion() {
		return int64(ch.Pos) - 1, int64(ch.Pos)
	}
	iv := ch.Interval()
	return int64(iv.Start), int64(iv.End)
}

// noCandidatePath handles the case where no transcript overlaps the
// change's interval.
func (d *Dispatcher) noCandidatePath(chrom string, ch genome.Change, structural bool, qStart, qEnd int64) ([]*Annotation, error) {
	if structural {
		return []*Annotation{d.structuralAnnotation(nil, chrom, ch)}, nil
	}

	var anns []*Annotation
	if left := d.idx.LeftNeighbor(chrom, qStart); left != nil {
		if dist := qStart - left.End; dist <= d.opts.NearGeneDistance {
			tag := TagDownstream
			if left.IsReverseStrand() {
				tag = TagUpstream
			}
			anns = append(anns, d.flankingAnnotation(left, ch, tag))
		}
	}
	if right := d.idx.RightNeighbor(chrom, qEnd); right != nil {
		if dist := right.Start - qEnd; dist <= d.opts.NearGeneDistance {
			tag := TagUpstream
			if right.IsReverseStrand() {
				tag = TagDownstream
			}
			anns = append(anns, d.flankingAnnotation(right, ch, tag))
		}
	}
	if len(anns) == 0 {
		anns = append(anns, &Annotation{
			VariantID:   FormatVariantID(chrom, int64(ch.Pos), ch.Ref, ch.Alt),
			Tag:         TagIntergenic,
			Consequence: soTermFor(TagIntergenic),
			Impact:      GetImpact(soTermFor(TagIntergenic)),
			Allele:      ch.Alt,
		})
	}
	return anns, nil
}

// flankingAnnotation builds an UPSTREAM/DOWNSTREAM annotation against a
// neighboring transcript that does not overlap the change. No HGVS
// location or DNA string is produced: there is no cDNA position outside
// the transcript.
func (d *Dispatcher) flankingAnnotation(t *cache.Transcript, ch genome.Change, tag ConsequenceTag) *Annotation {
	return &Annotation{
		VariantID:    FormatVariantID(t.Chrom, int64(ch.Pos), ch.Ref, ch.Alt),
		TranscriptID: t.ID,
		GeneName:     t.GeneName,
		GeneID:       t.GeneID,
		Tag:          tag,
		Consequence:  soTermFor(tag),
		Impact:       GetImpact(soTermFor(tag)),
		IsCanonical:  t.IsCanonical,
		Allele:       ch.Alt,
		Biotype:      t.Biotype,
	}
}

// structuralAnnotation builds the SV annotation for a structural change,
// either against a candidate transcript's chromosome or, when t is nil, the
// intergenic locus. Inversions are never auto-detected from a plain
// (ref, alt) pair; callers with independently-known breakpoint pairs should
// use FormatSVInversion directly.
func (d *Dispatcher) structuralAnnotation(t *cache.Transcript, chrom string, ch genome.Change) *Annotation {
	locus := ""
	if t != nil {
		locus = chrom
	}

	iv := ch.Interval()
	var tag ConsequenceTag
	var text string
	switch {
	case ch.IsInsertion():
		tag = TagSVInsertion
		text = FormatSVInsertion(locus, genome.Pos(int64(ch.Pos)-1), ch.Alt)
	case ch.IsDeletion():
		tag = TagSVDeletion
		text = FormatSVDeletion(locus, iv.Start, iv.End)
	default:
		tag = TagSVSubstitution
		text = FormatSVSubstitution(locus, iv.Start, iv.End, ch.Alt)
	}

	a := &Annotation{
		VariantID:   FormatVariantID(chrom, int64(ch.Pos), ch.Ref, ch.Alt),
		Tag:         tag,
		Consequence: soTermFor(tag),
		Impact:      GetImpact(soTermFor(tag)),
		Allele:      ch.Alt,
		HGVSc:       text,
	}
	if t != nil {
		a.TranscriptID = t.ID
		a.GeneName = t.GeneName
		a.GeneID = t.GeneID
		a.IsCanonical = t.IsCanonical
		a.Biotype = t.Biotype
	}
	return a
}

// classifyAgainstTranscript implements the per-strand walker:
// splice check first, then exon/UTR/intron classification, delegating
// CDS-exonic changes to classifyCDS.
func (d *Dispatcher) classifyAgainstTranscript(t *cache.Transcript, ch genome.Change) *Annotation {
	cls := NewClassifier(t, d.opts)
	first, last := changeEndpoints(ch)

	if cls.OverlapsWithSpliceDonor(first, last) || cls.OverlapsWithSpliceAcceptor(first, last) || cls.OverlapsWithSpliceRegion(first, last) {
		tag := TagSplicing
		if !t.IsProteinCoding() {
			tag = TagNcRNASplicing
		}
		return d.buildAnnotation(t, ch, tag, "")
	}

	if !cls.OverlapsWithExon(first, last) {
		tag := TagIntronic
		if !t.IsProteinCoding() {
			tag = TagNcRNAIntronic
		}
		return d.buildAnnotation(t, ch, tag, "")
	}

	if !t.IsProteinCoding() {
		return d.buildAnnotation(t, ch, TagNcRNAExonic, "")
	}

	switch {
	case cls.OverlapsWithCDS(first, last):
		tag, diag := d.classifyCDS(t, ch)
		return d.buildAnnotation(t, ch, tag, diag)
	case cls.OverlapsWith5UTR(first, last):
		return d.buildAnnotation(t, ch, TagUTR5, "")
	case cls.OverlapsWith3UTR(first, last):
		return d.buildAnnotation(t, ch, TagUTR3, "")
	default:
		return &Annotation{
			VariantID:    FormatVariantID(t.Chrom, int64(ch.Pos), ch.Ref, ch.Alt),
			TranscriptID: t.ID,
			Tag:          TagError,
			Consequence:  soTermFor(TagError),
			Diagnostic:   "exonic coding change classified into neither CDS nor UTR",
		}
	}
}

// buildAnnotation attaches the HGVS location and DNA-change strings
// to a change already classified with tag, folding a TranscriptDatabase­
// Inconsistent projection failure into a recovered TagError annotation
// rather than aborting the sibling candidates.
func (d *Dispatcher) buildAnnotation(t *cache.Transcript, ch genome.Change, tag ConsequenceTag, diagnostic string) *Annotation {
	if tag == TagError {
		return &Annotation{
			VariantID:    FormatVariantID(t.Chrom, int64(ch.Pos), ch.Ref, ch.Alt),
			TranscriptID: t.ID,
			GeneName:     t.GeneName,
			GeneID:       t.GeneID,
			Tag:          TagError,
			Consequence:  soTermFor(TagError),
			Diagnostic:   diagnostic,
		}
	}

	norm := Normalize(t, ch)
	location := BuildLocation(t, norm)
	dna, err := BuildDNAChange(t, norm)
	if err != nil {
		return &Annotation{
			VariantID:    FormatVariantID(t.Chrom, int64(ch.Pos), ch.Ref, ch.Alt),
			TranscriptID: t.ID,
			GeneName:     t.GeneName,
			GeneID:       t.GeneID,
			Tag:          TagError,
			Consequence:  soTermFor(TagError),
			Diagnostic:   "transcript database inconsistent: " + err.Error(),
		}
	}

	return &Annotation{
		VariantID:    FormatVariantID(t.Chrom, int64(ch.Pos), ch.Ref, ch.Alt),
		TranscriptID: t.ID,
		GeneName:     t.GeneName,
		GeneID:       t.GeneID,
		Tag:          tag,
		Consequence:  soTermFor(tag),
		Impact:       GetImpact(soTermFor(tag)),
		IsCanonical:  t.IsCanonical,
		Allele:       ch.Alt,
		Biotype:      t.Biotype,
		Location:     location,
		HGVSc:        dna,
	}
}

// classifyCDS tags a coding-exonic change by its effect on the reading
// frame and, for single-nucleotide changes, on the encoded amino acid.
// This is the built-in stand-in for the external per-shape protein-effect
// builders: it produces exactly the closed-enum tag the core contract
// requires without computing a full p. description, which is explicitly
// left to those external builders.
func (d *Dispatcher) classifyCDS(t *cache.Transcript, ch genome.Change) (ConsequenceTag, string) {
	switch {
	case ch.IsSNV():
		return d.classifySNV(t, ch)
	case ch.IsInsertion():
		if len(ch.Alt)%3 != 0 {
			return TagFSInsertion, ""
		}
		return TagNonFSInsertion, ""
	case ch.IsDeletion():
		if len(ch.Ref)%3 != 0 {
			return TagFSDeletion, ""
		}
		return TagNonFSDeletion, ""
	default:
		if (len(ch.Alt)-len(ch.Ref))%3 != 0 {
			return TagFSSubstitution, ""
		}
		return TagNonFSSubstitution, ""
	}
}

func (d *Dispatcher) classifySNV(t *cache.Transcript, ch genome.Change) (ConsequenceTag, string) {
	p := NewProjector(t)
	off, err := p.GenomeToTxOffset(int64(ch.Pos))
	if err != nil {
		return TagError, err.Error()
	}
	cdsStart, _ := p.CDSOffsets()
	cdsOff := off - cdsStart
	if cdsOff < 0 || int(cdsOff) >= len(t.CDSSequence) {
		err := &ErrTranscriptDatabaseInconsistent{TranscriptID: t.ID, Detail: "cDNA offset falls outside declared CDS sequence"}
		return TagError, err.Error()
	}

	codonStart := (cdsOff / 3) * 3
	if codonStart+3 > int64(len(t.CDSSequence)) {
		err := &ErrTranscriptDatabaseInconsistent{TranscriptID: t.ID, Detail: "declared CDS sequence is shorter than its coordinates imply"}
		return TagError, err.Error()
	}
	wtCodon := strings.ToUpper(t.CDSSequence[codonStart : codonStart+3])

	altBase := ch.Alt[0]
	if t.IsReverseStrand() {
		altBase = Complement(altBase)
	}
	altCodon := MutateCodon(wtCodon, int(cdsOff%3), altBase)

	wtAA := TranslateCodon(wtCodon)
	altAA := TranslateCodon(altCodon)
	switch {
	case wtAA == '*' && altAA != '*':
		return TagStoploss, ""
	case wtAA != '*' && altAA == '*':
		return TagStopgain, ""
	case wtAA == altAA:
		return TagSynonymous, ""
	default:
		return TagMissense, ""
	}
}
