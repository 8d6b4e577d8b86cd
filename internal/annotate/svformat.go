package annotate

import (
	"fmt"

	"github.com/dkessler/txvep/internal/genome"
)

// svAllelePreview renders the "first two .. last two bases" abbreviation
// used in the structural-variant textual forms. Short alleles are
// shown in full rather than doubly-truncated.
func svAllelePreview(allele string) string {
	if len(allele) <= 4 {
		return allele
	}
	return allele[:2] + ".." + allele[len(allele)-2:]
}

// FormatSVInversion renders the exact inversion textual form.
func FormatSVInversion(accession string, start, end genome.Pos) string {
	return fmt.Sprintf("%s:g.%d_%dinv", accession, start, end)
}

// svLocus is either a chromosome name or the literal "INTERGENIC" for a
// structural variant with no overlapping transcript.
func svLocus(chromOrIntergenic string) string {
	if chromOrIntergenic == "" {
		return "INTERGENIC"
	}
	return chromOrIntergenic
}

// FormatSVInsertion renders the insertion textual form, to a transcript's
// chromosome or, when locus is "", to INTERGENIC.
func FormatSVInsertion(locus string, pos genome.Pos, alt string) string {
	return fmt.Sprintf("%s:g.%d_%dins%s", svLocus(locus), pos, pos+1, svAllelePreview(alt))
}

// FormatSVDeletion renders the deletion textual form.
func FormatSVDeletion(locus string, start, end genome.Pos) string {
	return fmt.Sprintf("%s:g.%d_%ddel", svLocus(locus), start, end)
}

// FormatSVSubstitution renders the block-substitution ("delins") textual
// form.
func FormatSVSubstitution(locus string, start, end genome.Pos, alt string) string {
	return fmt.Sprintf("%s:g.%d_%ddelins%s", svLocus(locus), start, end, svAllelePreview(alt))
}
