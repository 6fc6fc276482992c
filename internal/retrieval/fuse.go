package retrieval

import (
	"sort"

	"github.com/pathshala-ai/pathshala/internal/store"
)

const rrfK = 60 // reciprocal-rank-fusion constant

// fuseRRF merges a vector hit list and a keyword hit list by reciprocal
// rank. Hits appearing in both lists accumulate both contributions. The
// fused score replaces the per-list scores.
func fuseRRF(vector, keyword []store.SearchHit, k int) []store.SearchHit {
	type agg struct {
		hit   store.SearchHit
		score float64
	}
	m := map[string]*agg{}
	add := func(list []store.SearchHit) {
		for rank, h := range list {
			x, ok := m[h.Chunk.ID]
			if !ok {
				x = &agg{hit: h}
				m[h.Chunk.ID] = x
			}
			x.score += 1.0 / float64(rrfK+rank+1)
		}
	}
	add(vector)
	add(keyword)

	fused := make([]store.SearchHit, 0, len(m))
	for _, v := range m {
		v.hit.Score = v.score
		fused = append(fused, v.hit)
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score == fused[j].Score {
			return fused[i].Chunk.ID < fused[j].Chunk.ID
		}
		return fused[i].Score > fused[j].Score
	})
	if k > 0 && k < len(fused) {
		fused = fused[:k]
	}
	return fused
}
