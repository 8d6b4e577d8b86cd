package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dkessler/txvep/internal/annotate"
	"github.com/dkessler/txvep/internal/cache"
	"github.com/dkessler/txvep/internal/vcf"
)

// runReverse implements "txvep reverse": the inverse of "annotate", mapping
// a protein change or HGVSc notation back to the genomic coordinate(s) that
// produce it, then re-annotating each candidate to confirm the round trip.
func runReverse(args []string) int {
	fs := flag.NewFlagSet("reverse", flag.ExitOnError)

	var assembly string
	fs.StringVar(&assembly, "assembly", "GRCh38", "Genome assembly: GRCh37 or GRCh38")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Map a protein change or coding DNA change back to genomic coordinates.

Usage:
  txvep reverse [options] <variant-spec>

Arguments:
  <variant-spec>  A protein change ("KRAS G12C", "KRAS p.Gly12Cys"), a
                  coding DNA change ("KRAS c.35G>T", "ENST00000311936:c.35G>T"),
                  or a genomic change ("12:25245350:C:A").

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  txvep reverse "KRAS G12C"
  txvep reverse "ENST00000311936:c.35G>T"
`)
	}

	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: variant specification argument required\n\n")
		fs.Usage()
		return ExitUsage
	}
	specInput := fs.Arg(0)

	spec, err := annotate.ParseVariantSpec(specInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitUsage
	}

	if spec.Type == annotate.SpecGenomic {
		fmt.Printf("%s:%d\t%s\t%s\n", spec.Chrom, spec.Pos, spec.Ref, spec.Alt)
		return ExitSuccess
	}

	gtfPath, fastaPath, canonicalPath, found := FindGENCODEFiles(assembly)
	if !found {
		fmt.Fprintf(os.Stderr, "Error: No GENCODE cache found for %s\n", assembly)
		fmt.Fprintf(os.Stderr, "Hint: Download GENCODE annotations with: txvep download --assembly %s\n", assembly)
		return ExitError
	}

	c := cache.New()
	loader := cache.NewGENCODELoader(gtfPath, fastaPath)
	if canonicalPath != "" {
		if overrides, err := cache.LoadCanonicalOverrides(canonicalPath); err == nil {
			loader.SetCanonicalOverrides(overrides)
		}
	}
	if err := loader.Load(c); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading GENCODE cache: %v\n", err)
		return ExitError
	}

	var variants []*vcf.Variant
	switch spec.Type {
	case annotate.SpecProtein:
		variants, err = annotate.ReverseMapProteinChange(c, spec.GeneName, spec.RefAA, spec.Position, spec.AltAA)
	case annotate.SpecHGVSc:
		target := spec.TranscriptID
		variants, err = annotate.ReverseMapHGVSc(c, target, spec.CDSChange)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}

	ann := annotate.NewAnnotator(c)
	ann.EnableCore(annotate.DefaultOptions())

	for _, v := range variants {
		fmt.Printf("%s:%d\t%s\t%s", v.Chrom, v.Pos, v.Ref, v.Alt)
		anns, err := ann.Annotate(v)
		if err != nil || len(anns) == 0 {
			fmt.Println()
			continue
		}
		fmt.Printf("\t%s\t%s\n", anns[0].Consequence, anns[0].HGVSc)
	}

	return ExitSuccess
}
