package blogportal

import (
	"context"
	"fmt"

	"github.com/avolkov/blog-portal/internal/db"
	"github.com/avolkov/blog-portal/internal/resolver"
)

type adjacentContext struct {
	caller Caller
	slug   string

	criteria db.PostCriteria
	anchor   *db.Post

	result Adjacent
}

func (m *Manager) gateAdjacent() resolver.Stage[*adjacentContext] {
	return resolver.Stage[*adjacentContext]{
		Name: "permissionGate",
		Run: func(ctx context.Context, rc *adjacentContext) (resolver.Outcome, error) {
			if err := m.auth.Authorize(rc.caller, OpAdjacentPosts); err != nil {
				return resolver.Continue, err
			}
			return resolver.Continue, nil
		},
	}
}

// stageResolveAnchor finds the post the neighbors are computed around.
// Adjacency only makes sense inside the published post timeline, so the
// filter set is fixed here and reused for both neighbor lookups.
func (m *Manager) stageResolveAnchor() resolver.Stage[*adjacentContext] {
	return resolver.Stage[*adjacentContext]{
		Name: "resolveAnchor",
		Run: func(ctx context.Context, rc *adjacentContext) (resolver.Outcome, error) {
			status, postType := db.StatusPublish, db.TypePost
			rc.criteria = db.PostCriteria{Status: &status, Type: &postType}

			criteria := rc.criteria
			criteria.Slug = &rc.slug

			anchor, err := m.store.PostOne(ctx, criteria)
			if err != nil {
				return resolver.Continue, resolver.PersistenceError(err)
			}
			if anchor == nil {
				return resolver.Continue, resolver.NotFoundError(
					fmt.Sprintf("post %q does not exist", rc.slug))
			}

			rc.anchor = anchor

			return resolver.Continue, nil
		},
	}
}

// stageFetchNeighbors loads the nearest records on either side of the
// anchor by identifier ordering. A missing neighbor is a nil slot, not an
// error.
func (m *Manager) stageFetchNeighbors() resolver.Stage[*adjacentContext] {
	return resolver.Stage[*adjacentContext]{
		Name: "fetchNeighbors",
		Run: func(ctx context.Context, rc *adjacentContext) (resolver.Outcome, error) {
			previous, err := m.store.PreviousPost(ctx, rc.criteria, rc.anchor.ID)
			if err != nil {
				return resolver.Continue, resolver.PersistenceError(err)
			}

			next, err := m.store.NextPost(ctx, rc.criteria, rc.anchor.ID)
			if err != nil {
				return resolver.Continue, resolver.PersistenceError(err)
			}

			if previous != nil {
				p := m.normalizer.Summary(previous)
				rc.result.Previous = &p
			}
			if next != nil {
				n := m.normalizer.Summary(next)
				rc.result.Next = &n
			}

			return resolver.Continue, nil
		},
	}
}
