package annotate

import (
	"sort"

	"github.com/ahmetb/go-linq/v3"
)

// RankByGene groups a variant's raw per-transcript annotations by gene and
// orders them for display: within a gene, the canonical transcript's
// annotation sorts first, ties broken by transcript accession; genes keep
// the order their first annotation appeared in.
func RankByGene(anns []*Annotation) []*Annotation {
	if len(anns) <= 1 {
		return anns
	}

	var groups []linq.Group
	linq.From(anns).GroupByT(
		func(a *Annotation) string { return a.GeneID },
		func(a *Annotation) *Annotation { return a },
	).ToSlice(&groups)

	// GroupBy collects groups through a map; restore first-appearance order.
	first := make(map[string]int, len(anns))
	for i, a := range anns {
		if _, seen := first[a.GeneID]; !seen {
			first[a.GeneID] = i
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		return first[groups[i].Key.(string)] < first[groups[j].Key.(string)]
	})

	ordered := make([]*Annotation, 0, len(anns))
	for _, g := range groups {
		var members []interface{}
		linq.From(g.Group).
			OrderByT(func(a *Annotation) bool { return !a.IsCanonical }).
			ThenByT(func(a *Annotation) string { return a.TranscriptID }).
			ToSlice(&members)
		for _, m := range members {
			ordered = append(ordered, m.(*Annotation))
		}
	}
	return ordered
}
