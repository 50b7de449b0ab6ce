package scoring

import (
	"sort"

	"github.com/anvramos/adforge/internal/model"
)

// Rank orders scored variants best-first and assigns ranks 1..n. Ties
// on score go to the earlier generation index, so ranking is total and
// deterministic. The input slice is not modified.
func Rank(variants []model.ScoredVariant) []model.ScoredVariant {
	ranked := make([]model.ScoredVariant, len(variants))
	copy(ranked, variants)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].GenerationIndex < ranked[j].GenerationIndex
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
