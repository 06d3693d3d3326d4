package memory

import (
	"sort"

	"twinmem/internal/model"
)

// mergeStatements concatenates graph results (in their returned order) with
// vector results, dropping any chunk_id already present. Graph entries win on
// duplicates: their hits come from explicit authored relationships and carry
// higher-confidence provenance than a similarity score.
func mergeStatements(graphStatements, vectorStatements []model.PreferenceStatement) []model.PreferenceStatement {
	merged := make([]model.PreferenceStatement, 0, len(graphStatements)+len(vectorStatements))
	seen := make(map[string]bool, len(graphStatements)+len(vectorStatements))

	for _, st := range graphStatements {
		if st.ChunkID != "" && seen[st.ChunkID] {
			continue
		}
		seen[st.ChunkID] = true
		merged = append(merged, st)
	}
	for _, st := range vectorStatements {
		if st.ChunkID != "" && seen[st.ChunkID] {
			continue
		}
		seen[st.ChunkID] = true
		merged = append(merged, st)
	}

	return merged
}

// sortByScore orders statements by descending relevance score. Graph entries
// carry no score and rank at zero, so scored vector hits can outrank them.
// The sort is stable, preserving graph-first merge order on ties.
func sortByScore(statements []model.PreferenceStatement) {
	sort.SliceStable(statements, func(i, j int) bool {
		return statements[i].Score > statements[j].Score
	})
}
