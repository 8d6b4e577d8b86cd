// Package annotate provides variant effect prediction functionality.
package annotate

import (
	"fmt"
	"io"
	"runtime"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dkessler/txvep/internal/genome"
	"github.com/dkessler/txvep/internal/vcf"
)

// Annotator annotates variants with consequence predictions, routing each
// variant through the coordinate-projection core (see EnableCore).
type Annotator struct {
	cache         IntervalIndex
	canonicalOnly bool
	logger        *zap.Logger

	dispatcher *Dispatcher
}

// NewAnnotator creates a new annotator over the given interval index. Call
// EnableCore before Annotate; Annotate panics if the dispatcher was never
// configured, since that indicates a caller wiring bug.
func NewAnnotator(idx IntervalIndex) *Annotator {
	return &Annotator{
		cache:  idx,
		logger: zap.NewNop(),
	}
}

// EnableCore configures the coordinate-projection engine (genome.FromVCF
// into a Dispatcher) that Annotate routes every variant through, using opts
// to tune splice windows, near-gene distance, and the structural-variant
// size threshold.
func (a *Annotator) EnableCore(opts Options) {
	a.dispatcher = NewDispatcher(a.cache, opts)
}

// SetCanonicalOnly configures whether to only report canonical transcript annotations.
func (a *Annotator) SetCanonicalOnly(canonical bool) {
	a.canonicalOnly = canonical
}

// SetLogger sets the logger for warning and info messages.
func (a *Annotator) SetLogger(l *zap.Logger) {
	a.logger = l
}

// SetWarnings routes per-variant warnings (failed parses, skipped records)
// to w as plain console-formatted log lines.
func (a *Annotator) SetWarnings(w io.Writer) {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), zap.WarnLevel)
	a.logger = zap.New(core)
}

// Annotate annotates a single variant and returns all annotations, routed
// through the coordinate-projection engine configured by EnableCore.
func (a *Annotator) Annotate(v *vcf.Variant) ([]*Annotation, error) {
	if a.dispatcher == nil {
		panic(bugf("Annotate: EnableCore was never called"))
	}
	return a.annotateCore(v)
}

// annotateCore runs the variant through the coordinate-projection engine
// (genome.FromVCF into Dispatcher.Annotate).
func (a *Annotator) annotateCore(v *vcf.Variant) ([]*Annotation, error) {
	chrom := v.NormalizeChrom()
	ch := genome.FromVCF(genome.ChromosomeID(0), genome.Pos(v.Pos), v.Ref, v.Alt)

	anns, err := a.dispatcher.Annotate(chrom, ch)
	if err != nil {
		return nil, err
	}
	anns = RankByGene(anns)

	if !a.canonicalOnly {
		return anns, nil
	}

	filtered := anns[:0]
	for _, ann := range anns {
		if ann.TranscriptID == "" || ann.IsCanonical {
			filtered = append(filtered, ann)
		}
	}
	if len(filtered) == 0 {
		return anns, nil
	}
	return filtered, nil
}

// AnnotateAll annotates all variants from a parser.
// The parser can be any type that implements vcf.VariantParser (VCF, MAF, etc.).
func (a *Annotator) AnnotateAll(parser vcf.VariantParser, writer AnnotationWriter) error {
	items := make(chan WorkItem, 2*runtime.NumCPU())
	var parseErr error
	variantCount := 0

	go func() {
		defer close(items)
		seq := 0
		for {
			v, err := parser.Next()
			if err != nil {
				parseErr = fmt.Errorf("read variant: %w", err)
				return
			}
			if v == nil {
				return
			}
			variantCount++

			// Split multi-allelic variants, each gets its own sequence number.
			variants := vcf.SplitMultiAllelic(v)
			for _, variant := range variants {
				items <- WorkItem{Seq: seq, Variant: variant}
				seq++
			}
		}
	}()

	results := a.ParallelAnnotate(items, 0)

	if err := OrderedCollect(results, func(r WorkResult) error {
		if r.Err != nil {
			a.logger.Warn("failed to annotate variant",
				zap.String("chrom", r.Variant.Chrom),
				zap.Int64("pos", r.Variant.Pos),
				zap.Error(r.Err))
			return nil
		}
		for _, ann := range r.Anns {
			if err := writer.Write(r.Variant, ann); err != nil {
				return fmt.Errorf("write annotation: %w", err)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if parseErr != nil {
		return parseErr
	}

	if variantCount == 0 {
		a.logger.Info("0 variants processed")
	}

	return writer.Flush()
}

// AnnotationWriter defines the interface for writing annotations.
type AnnotationWriter interface {
	WriteHeader() error
	Write(v *vcf.Variant, ann *Annotation) error
	Flush() error
}
