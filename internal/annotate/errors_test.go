package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrChromosomeUnknown_Error(t *testing.T) {
	err := &ErrChromosomeUnknown{Chromosome: "chrZ"}
	assert.Equal(t, `annotate: unknown chromosome "chrZ"`, err.Error())
}

func TestErrAnnotationEmpty_Error(t *testing.T) {
	err := &ErrAnnotationEmpty{Chromosome: "1", Position: 100}
	assert.Contains(t, err.Error(), "1:100")
	assert.Contains(t, err.Error(), "bug")
}

func TestErrProjectionOutOfRange_Error(t *testing.T) {
	err := &ErrProjectionOutOfRange{TranscriptID: "ENST001", Position: 500}
	assert.Equal(t, "annotate: position 500 outside transcript ENST001", err.Error())
}

func TestErrTranscriptDatabaseInconsistent_Error(t *testing.T) {
	err := &ErrTranscriptDatabaseInconsistent{TranscriptID: "ENST002", Detail: "short CDS"}
	assert.Equal(t, "annotate: transcript ENST002 database inconsistent: short CDS", err.Error())
}

func TestBugf(t *testing.T) {
	assert.Equal(t, "annotate: bug: cache *int does not implement IntervalIndex", bugf("cache %s does not implement IntervalIndex", "*int"))
}
