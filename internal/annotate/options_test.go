package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, int64(1000), opts.NearGeneDistance)
	assert.Equal(t, int64(2), opts.SpliceDonorLen)
	assert.Equal(t, int64(2), opts.SpliceAcceptorLen)
	assert.Equal(t, int64(3), opts.SpliceRegionExonicLen)
	assert.Equal(t, int64(8), opts.SpliceRegionIntronicLen)
	assert.Equal(t, int64(1000), opts.StructuralVariantThreshold)
}
