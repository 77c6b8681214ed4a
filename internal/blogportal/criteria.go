package blogportal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avolkov/blog-portal/internal/db"
	"github.com/avolkov/blog-portal/internal/resolver"
)

const (
	defaultPageSize = 10
	defaultOrderBy  = "createdAt"
)

// Criteria builder stages. Each writes exactly one named fragment of the
// accumulated filter criteria; their relative order does not affect the
// assembled query, only the executor has to come last.

// stageIdentity resolves the id/slug/preview-token arguments of a single
// post lookup.
func (m *Manager) stageIdentity() resolver.Stage[*queryContext] {
	return resolver.Stage[*queryContext]{
		Name:   "identity",
		Writes: []string{fragIdentity},
		Run: func(ctx context.Context, rc *queryContext) (resolver.Outcome, error) {
			if rc.filters.ID != nil {
				rc.criteria.ID = rc.filters.ID
			}
			if rc.filters.Slug != nil {
				rc.criteria.Slug = rc.filters.Slug
			}

			if rc.filters.PreviewToken != nil {
				id, ok := parsePreviewToken(m.previewSecret, *rc.filters.PreviewToken)
				if !ok {
					return resolver.Continue, resolver.ValidationError("invalid preview token")
				}
				rc.criteria.ID = &id
			}

			return resolver.Continue, nil
		},
	}
}

// stageMenuFilter restricts the result set to posts referenced by the named
// navigation menu.
func (m *Manager) stageMenuFilter() resolver.Stage[*queryContext] {
	return resolver.Stage[*queryContext]{
		Name:   "menuFilter",
		Writes: []string{fragMenu},
		Run: func(ctx context.Context, rc *queryContext) (resolver.Outcome, error) {
			if rc.filters.Menu == nil {
				return resolver.Continue, nil
			}

			items, err := m.menuItems(ctx)
			if err != nil {
				return resolver.Continue, err
			}

			// An empty id set must match nothing, not everything.
			ids := make([]int, 0, len(items))
			for _, item := range items {
				if item.PostID > 0 {
					ids = append(ids, item.PostID)
				}
			}
			rc.criteria.IDs = ids

			return resolver.Continue, nil
		},
	}
}

func (m *Manager) stageTagFilter() resolver.Stage[*queryContext] {
	return resolver.Stage[*queryContext]{
		Name:   "tagFilter",
		Writes: []string{fragTag},
		Run: func(ctx context.Context, rc *queryContext) (resolver.Outcome, error) {
			if rc.filters.Tag != nil {
				rc.criteria.TagSlug = rc.filters.Tag
			}
			return resolver.Continue, nil
		},
	}
}

func (m *Manager) stageAuthorFilter() resolver.Stage[*queryContext] {
	return resolver.Stage[*queryContext]{
		Name:   "authorFilter",
		Writes: []string{fragAuthor},
		Run: func(ctx context.Context, rc *queryContext) (resolver.Outcome, error) {
			if rc.filters.Author != nil {
				rc.criteria.AuthorID = rc.filters.Author
			}
			return resolver.Continue, nil
		},
	}
}

func (m *Manager) stagePagination() resolver.Stage[*queryContext] {
	return resolver.Stage[*queryContext]{
		Name:   "pagination",
		Writes: []string{fragPagination},
		Run: func(ctx context.Context, rc *queryContext) (resolver.Outcome, error) {
			page := 1
			if rc.filters.Page != nil {
				if *rc.filters.Page < 1 {
					return resolver.Continue, resolver.ValidationError("page must be greater than 0")
				}
				page = *rc.filters.Page
			}

			limit := defaultPageSize
			if rc.filters.Limit != nil {
				if *rc.filters.Limit < 1 {
					return resolver.Continue, resolver.ValidationError("limit must be greater than 0")
				}
				limit = *rc.filters.Limit
			}

			rc.criteria.Limit = limit
			rc.criteria.Offset = (page - 1) * limit

			return resolver.Continue, nil
		},
	}
}

// stageStatusTypeFeatured applies the status, type and featured dimensions.
// Status defaults to publish; the permission gate has already vetted any
// explicit request for unpublished content. A preview token bypasses the
// status constraint so an editor's share link can reach a draft revision.
func (m *Manager) stageStatusTypeFeatured() resolver.Stage[*queryContext] {
	return resolver.Stage[*queryContext]{
		Name:   "statusTypeFeatured",
		Writes: []string{fragStatusTypeFeatured},
		Run: func(ctx context.Context, rc *queryContext) (resolver.Outcome, error) {
			switch {
			case rc.filters.PreviewToken != nil:
				// no status constraint
			case rc.filters.Status != nil:
				if !validStatus(*rc.filters.Status) {
					return resolver.Continue, resolver.ValidationError(
						fmt.Sprintf("unknown status %q", *rc.filters.Status))
				}
				rc.criteria.Status = rc.filters.Status
			default:
				status := db.StatusPublish
				rc.criteria.Status = &status
			}

			if rc.filters.Type != nil {
				if !validType(*rc.filters.Type) {
					return resolver.Continue, resolver.ValidationError(
						fmt.Sprintf("unknown type %q", *rc.filters.Type))
				}
				rc.criteria.Type = rc.filters.Type
			}

			if rc.filters.Featured != nil {
				rc.criteria.Featured = rc.filters.Featured
			}

			return resolver.Continue, nil
		},
	}
}

func (m *Manager) stageOrderAndSort() resolver.Stage[*queryContext] {
	return resolver.Stage[*queryContext]{
		Name:   "orderAndSort",
		Writes: []string{fragOrder},
		Run: func(ctx context.Context, rc *queryContext) (resolver.Outcome, error) {
			rc.criteria.OrderBy = defaultOrderBy
			rc.criteria.SortDesc = true

			if rc.filters.OrderBy != nil {
				rc.criteria.OrderBy = *rc.filters.OrderBy
			}
			if rc.filters.SortOrder != nil {
				rc.criteria.SortDesc = *rc.filters.SortOrder != "ASC"
			}

			return resolver.Continue, nil
		},
	}
}

func (m *Manager) stageSearchTerm() resolver.Stage[*queryContext] {
	return resolver.Stage[*queryContext]{
		Name:   "searchTerm",
		Writes: []string{fragSearch},
		Run: func(ctx context.Context, rc *queryContext) (resolver.Outcome, error) {
			if rc.filters.Query != nil && *rc.filters.Query != "" {
				rc.criteria.Search = rc.filters.Query
			}
			return resolver.Continue, nil
		},
	}
}

// stageExecuteList is the terminal storage read of the posts pipeline: the
// only stage of the read path that touches the store.
func (m *Manager) stageExecuteList() resolver.Stage[*queryContext] {
	return resolver.Stage[*queryContext]{
		Name: "executeQuery",
		Run: func(ctx context.Context, rc *queryContext) (resolver.Outcome, error) {
			rows, count, err := m.store.Posts(ctx, rc.criteria)
			if err != nil {
				return resolver.Continue, resolver.PersistenceError(err)
			}

			rc.rawRows = rows
			rc.count = count

			return resolver.Continue, nil
		},
	}
}

func (m *Manager) stageNormalizeList() resolver.Stage[*queryContext] {
	return resolver.Stage[*queryContext]{
		Name: "normalize",
		Run: func(ctx context.Context, rc *queryContext) (resolver.Outcome, error) {
			rows := make([]Post, len(rc.rawRows))
			for i := range rc.rawRows {
				rows[i] = m.normalizer.Summary(&rc.rawRows[i])
			}

			rc.page = PostPage{Rows: rows, Count: rc.count}

			return resolver.Continue, nil
		},
	}
}

// stageExecuteOne is the terminal storage read of the single-post pipeline.
// An absent record short-circuits with a nil result, not an error.
func (m *Manager) stageExecuteOne() resolver.Stage[*queryContext] {
	return resolver.Stage[*queryContext]{
		Name: "executeQuery",
		Run: func(ctx context.Context, rc *queryContext) (resolver.Outcome, error) {
			post, err := m.store.PostOne(ctx, rc.criteria)
			if err != nil {
				return resolver.Continue, resolver.PersistenceError(err)
			}
			if post == nil {
				rc.post = nil
				return resolver.Stop, nil
			}

			rc.rawPost = post

			return resolver.Continue, nil
		},
	}
}

// stageNormalizeOne normalizes the fetched record. When a preview token was
// presented and a draft revision exists, the rendered body comes from the
// draft markup instead of the published one.
func (m *Manager) stageNormalizeOne() resolver.Stage[*queryContext] {
	return resolver.Stage[*queryContext]{
		Name: "normalize",
		Run: func(ctx context.Context, rc *queryContext) (resolver.Outcome, error) {
			post := m.normalizer.Post(rc.rawPost)

			if rc.filters.PreviewToken != nil && rc.rawPost.MdDraft != "" {
				html, err := m.renderer.Render(rc.rawPost.MdDraft)
				if err != nil {
					return resolver.Continue, resolver.ValidationError("cannot render draft revision")
				}
				post.HTML = html
			}

			rc.post = post

			return resolver.Continue, nil
		},
	}
}

func (m *Manager) menuItems(ctx context.Context) ([]MenuItem, error) {
	setting, err := m.store.Setting(ctx, settingMenu)
	if err != nil {
		return nil, resolver.PersistenceError(err)
	}
	if setting == nil || setting.Value == "" {
		return nil, nil
	}

	var items []MenuItem
	if err := json.Unmarshal([]byte(setting.Value), &items); err != nil {
		return nil, fmt.Errorf("failed to decode menu setting: %w", err)
	}

	return items, nil
}

func validStatus(status string) bool {
	return status == db.StatusDraft || status == db.StatusPublish || status == db.StatusTrash
}

func validType(postType string) bool {
	return postType == db.TypePost || postType == db.TypePage
}
