package annotate

import "fmt"

// Error taxonomy for the annotation core. ChromosomeUnknown is
// caller-visible and aborts annotation of the offending variant.
// AnnotationEmpty signals the engine reached the end of processing with no
// annotations for a variant that had overlapping candidates — a bug
// indicator, never a normal outcome. ProjectionOutOfRange is internal:
// callers that already guarantee containment should treat it as a
// programmer error (a panic built with bugf below) rather than handle it.
type ErrChromosomeUnknown struct {
	Chromosome string
}

func (e *ErrChromosomeUnknown) Error() string {
	return fmt.Sprintf("annotate: unknown chromosome %q", e.Chromosome)
}

type ErrAnnotationEmpty struct {
	Chromosome string
	Position   int64
}

func (e *ErrAnnotationEmpty) Error() string {
	return fmt.Sprintf("annotate: bug: zero annotations produced for %s:%d despite overlapping candidates", e.Chromosome, e.Position)
}

// ErrProjectionOutOfRange reports that a genomic position lies outside the
// transcript being projected. Contexts that already guarantee containment
// must not propagate this to a caller; callers should panic instead with a
// bugf message.
type ErrProjectionOutOfRange struct {
	TranscriptID string
	Position     int64
}

func (e *ErrProjectionOutOfRange) Error() string {
	return fmt.Sprintf("annotate: position %d outside transcript %s", e.Position, e.TranscriptID)
}

// ErrTranscriptDatabaseInconsistent reports that a transcript's declared
// mRNA length or CDS start disagrees with its sequence. It is recovered
// locally: the dispatcher emits one annotation with ConsequenceTag = TagError
// carrying this diagnostic and continues with the remaining candidates —
// it never aborts sibling transcripts.
type ErrTranscriptDatabaseInconsistent struct {
	TranscriptID string
	Detail       string
}

func (e *ErrTranscriptDatabaseInconsistent) Error() string {
	return fmt.Sprintf("annotate: transcript %s database inconsistent: %s", e.TranscriptID, e.Detail)
}

// bugf builds a message for a programmer-error panic: a code path the
// design believes is unreachable except via an internal invariant
// violation reachable only through a corrupted transcript cache.
func bugf(format string, args ...any) string {
	return "annotate: bug: " + fmt.Sprintf(format, args...)
}
