package annotate

// Options tunes the size of splice windows, the near-gene distance, and the
// structural-variant threshold. The zero value is not meaningful; use
// DefaultOptions.
type Options struct {
	NearGeneDistance          int64
	SpliceDonorLen            int64
	SpliceAcceptorLen         int64
	SpliceRegionExonicLen     int64
	SpliceRegionIntronicLen   int64
	StructuralVariantThreshold int64
}

// DefaultOptions returns the conventional window sizes used when no
// configuration is supplied.
func DefaultOptions() Options {
	return Options{
		NearGeneDistance:           1000,
		SpliceDonorLen:             2,
		SpliceAcceptorLen:          2,
		SpliceRegionExonicLen:      3,
		SpliceRegionIntronicLen:    8,
		StructuralVariantThreshold: 1000,
	}
}
