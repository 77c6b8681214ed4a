package blogportal

import (
	"context"
	"sort"

	"github.com/sahilm/fuzzy"

	"github.com/avolkov/blog-portal/internal/db"
	"github.com/avolkov/blog-portal/internal/resolver"
)

const searchResultCap = 6

// Field weights of the search index. A title hit always outranks an equal
// hit that only appears in the body.
const (
	weightTitle   = 1.0
	weightExcerpt = 0.9
	weightBody    = 0.8
)

type searchContext struct {
	caller Caller
	query  string

	candidates []db.Post

	page PostPage
}

func (m *Manager) gateSearch() resolver.Stage[*searchContext] {
	return resolver.Stage[*searchContext]{
		Name: "permissionGate",
		Run: func(ctx context.Context, rc *searchContext) (resolver.Outcome, error) {
			if err := m.auth.Authorize(rc.caller, OpSearchPosts); err != nil {
				return resolver.Continue, err
			}
			return resolver.Continue, nil
		},
	}
}

// stageSearchGuard ends the pipeline early on an empty query: an empty
// result set, not an error.
func (m *Manager) stageSearchGuard() resolver.Stage[*searchContext] {
	return resolver.Stage[*searchContext]{
		Name: "queryGuard",
		Run: func(ctx context.Context, rc *searchContext) (resolver.Outcome, error) {
			if rc.query == "" {
				rc.page = PostPage{Rows: []Post{}}
				return resolver.Stop, nil
			}
			return resolver.Continue, nil
		},
	}
}

// stageLoadCandidates reads every published post in storage order. The
// candidate set is small enough to rank in memory; storage order is kept
// because it breaks ranking ties.
func (m *Manager) stageLoadCandidates() resolver.Stage[*searchContext] {
	return resolver.Stage[*searchContext]{
		Name: "loadCandidates",
		Run: func(ctx context.Context, rc *searchContext) (resolver.Outcome, error) {
			candidates, err := m.store.SearchCandidates(ctx)
			if err != nil {
				return resolver.Continue, resolver.PersistenceError(err)
			}

			rc.candidates = candidates

			return resolver.Continue, nil
		},
	}
}

// stageRank scores every candidate by its best weighted field match and
// keeps the top results. The body is matched against its markup-stripped
// text and never included in the response.
func (m *Manager) stageRank() resolver.Stage[*searchContext] {
	return resolver.Stage[*searchContext]{
		Name: "rank",
		Run: func(ctx context.Context, rc *searchContext) (resolver.Outcome, error) {
			type ranked struct {
				index int
				score float64
			}

			hits := make([]ranked, 0, len(rc.candidates))
			for i := range rc.candidates {
				candidate := &rc.candidates[i]

				score, ok := bestFieldScore(rc.query,
					fieldScore{candidate.Title, weightTitle},
					fieldScore{candidate.Excerpt, weightExcerpt},
					fieldScore{m.renderer.InnerText(candidate.HTML), weightBody},
				)
				if !ok {
					continue
				}

				hits = append(hits, ranked{index: i, score: score})
			}

			// Stable keeps storage order on equal scores.
			sort.SliceStable(hits, func(i, j int) bool {
				return hits[i].score > hits[j].score
			})

			if len(hits) > searchResultCap {
				hits = hits[:searchResultCap]
			}

			rows := make([]Post, len(hits))
			for i, hit := range hits {
				rows[i] = m.normalizer.Summary(&rc.candidates[hit.index])
			}

			rc.page = PostPage{Rows: rows, Count: len(rows)}

			return resolver.Continue, nil
		},
	}
}

type fieldScore struct {
	text   string
	weight float64
}

// bestFieldScore fuzzy-matches the query against each field and returns
// the highest weighted score, or ok=false when no field matches at all.
func bestFieldScore(query string, fields ...fieldScore) (float64, bool) {
	best, found := 0.0, false
	for _, field := range fields {
		if field.text == "" {
			continue
		}

		matches := fuzzy.Find(query, []string{field.text})
		if len(matches) == 0 {
			continue
		}

		// Scores below zero must get worse, not better, under a
		// smaller weight, hence the division.
		score := float64(matches[0].Score)
		if score >= 0 {
			score *= field.weight
		} else {
			score /= field.weight
		}

		if !found || score > best {
			best, found = score, true
		}
	}

	return best, found
}
