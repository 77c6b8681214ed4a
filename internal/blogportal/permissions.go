package blogportal

import (
	"context"

	"github.com/avolkov/blog-portal/internal/db"
	"github.com/avolkov/blog-portal/internal/resolver"
)

// RolePolicy is the default Authorizer: a static map from operation to the
// roles allowed to run it.
type RolePolicy map[string][]string

// DefaultPolicy mirrors the original access rules: anyone may read
// published content; mutations and the dashboard need an editor role.
func DefaultPolicy() RolePolicy {
	readers := []string{db.RoleAdmin, db.RoleReviewer, db.RoleReader}
	editors := []string{db.RoleAdmin, db.RoleReviewer}

	return RolePolicy{
		OpListPosts:     readers,
		OpGetPost:       readers,
		OpSearchPosts:   readers,
		OpAdjacentPosts: readers,
		OpCreatePost:    editors,
		OpUpdatePost:    editors,
		OpDeletePosts:   editors,
		OpStats:         editors,
	}
}

func (p RolePolicy) Authorize(caller Caller, operation string) error {
	for _, role := range p[operation] {
		if caller.Role == role {
			return nil
		}
	}

	return resolver.AuthorizationError(operation)
}

// gateQuery is the permission gate of read pipelines: first stage, denies
// before any criteria are built. Requesting non-published content is
// restricted to editors (display access).
func (m *Manager) gateQuery(operation string) resolver.Stage[*queryContext] {
	return resolver.Stage[*queryContext]{
		Name: "permissionGate",
		Run: func(ctx context.Context, rc *queryContext) (resolver.Outcome, error) {
			if err := m.auth.Authorize(rc.caller, operation); err != nil {
				return resolver.Continue, err
			}

			wantsUnpublished := rc.filters.Status != nil && *rc.filters.Status != db.StatusPublish
			if wantsUnpublished && !rc.caller.isEditor() {
				return resolver.Continue, resolver.AuthorizationError(operation)
			}

			return resolver.Continue, nil
		},
	}
}

// gateMutation is the permission gate of write pipelines.
func (m *Manager) gateMutation(operation string) resolver.Stage[*mutationContext] {
	return resolver.Stage[*mutationContext]{
		Name: "permissionGate",
		Run: func(ctx context.Context, rc *mutationContext) (resolver.Outcome, error) {
			if err := m.auth.Authorize(rc.caller, operation); err != nil {
				return resolver.Continue, err
			}

			return resolver.Continue, nil
		},
	}
}
