package blogportal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avolkov/blog-portal/internal/db"
	"github.com/avolkov/blog-portal/internal/resolver"
)

// Manager owns the resolver pipelines and exposes one method per
// operation. Pipelines are assembled once at construction; a
// misdeclared pipeline (duplicate stage names, colliding payload
// fragments) fails construction instead of a request.
type Manager struct {
	store      Store
	auth       Authorizer
	renderer   Renderer
	prober     Prober
	normalizer Normalizer
	log        *slog.Logger

	previewSecret string
	now           func() time.Time

	listPosts  *resolver.Pipeline[*queryContext]
	getPost    *resolver.Pipeline[*queryContext]
	search     *resolver.Pipeline[*searchContext]
	adjacent   *resolver.Pipeline[*adjacentContext]
	createPost *resolver.Pipeline[*mutationContext]
	updatePost *resolver.Pipeline[*mutationContext]
}

func NewManager(store Store, auth Authorizer, renderer Renderer, prober Prober, normalizer Normalizer, previewSecret string, log *slog.Logger) (*Manager, error) {
	m := &Manager{
		store:         store,
		auth:          auth,
		renderer:      renderer,
		prober:        prober,
		normalizer:    normalizer,
		log:           log,
		previewSecret: previewSecret,
		now:           time.Now,
	}

	var err error

	m.listPosts, err = resolver.New(OpListPosts,
		m.gateQuery(OpListPosts),
		m.stageMenuFilter(),
		m.stageTagFilter(),
		m.stageAuthorFilter(),
		m.stagePagination(),
		m.stageStatusTypeFeatured(),
		m.stageOrderAndSort(),
		m.stageSearchTerm(),
		m.stageExecuteList(),
		m.stageNormalizeList(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s pipeline: %w", OpListPosts, err)
	}

	m.getPost, err = resolver.New(OpGetPost,
		m.gateQuery(OpGetPost),
		m.stageIdentity(),
		m.stageStatusTypeFeatured(),
		m.stageExecuteOne(),
		m.stageNormalizeOne(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s pipeline: %w", OpGetPost, err)
	}

	m.search, err = resolver.New(OpSearchPosts,
		m.gateSearch(),
		m.stageSearchGuard(),
		m.stageLoadCandidates(),
		m.stageRank(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s pipeline: %w", OpSearchPosts, err)
	}

	m.adjacent, err = resolver.New(OpAdjacentPosts,
		m.gateAdjacent(),
		m.stageResolveAnchor(),
		m.stageFetchNeighbors(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s pipeline: %w", OpAdjacentPosts, err)
	}

	// Insert runs before the taxonomy stage because associations need the
	// generated id.
	m.createPost, err = resolver.New(OpCreatePost,
		m.gateMutation(OpCreatePost),
		m.stageValidateInput(true),
		m.stageTitleSlugFeatured(),
		m.stageDatesStatus(),
		m.stageCoverImage(),
		m.stageReadingTime(),
		m.stageContent(),
		m.stageExecuteCreate(),
		m.stageTaxonomies(),
		m.stageNormalizeMutation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s pipeline: %w", OpCreatePost, err)
	}

	m.updatePost, err = resolver.New(OpUpdatePost,
		m.gateMutation(OpUpdatePost),
		m.stageLoadPost(),
		m.stageValidateInput(false),
		m.stageTitleSlugFeatured(),
		m.stageDatesStatus(),
		m.stageCoverImage(),
		m.stageReadingTime(),
		m.stageContent(),
		m.stageTaxonomies(),
		m.stageMenuSync(),
		m.stageExecuteUpdate(),
		m.stageNormalizeMutation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s pipeline: %w", OpUpdatePost, err)
	}

	return m, nil
}

// ListPosts runs the posts pipeline and returns one page of normalized
// rows plus the total match count.
func (m *Manager) ListPosts(ctx context.Context, caller Caller, filters PostFilters) (PostPage, error) {
	rc := &queryContext{caller: caller, filters: filters}
	if err := m.listPosts.Run(ctx, rc); err != nil {
		return PostPage{}, err
	}

	return rc.page, nil
}

// GetPost runs the single-post pipeline. An absent post is nil, nil.
func (m *Manager) GetPost(ctx context.Context, caller Caller, filters PostFilters) (*Post, error) {
	rc := &queryContext{caller: caller, filters: filters}
	if err := m.getPost.Run(ctx, rc); err != nil {
		return nil, err
	}

	return rc.post, nil
}

// SearchPosts ranks published posts against a free-text query.
func (m *Manager) SearchPosts(ctx context.Context, caller Caller, query string) (PostPage, error) {
	rc := &searchContext{caller: caller, query: query}
	if err := m.search.Run(ctx, rc); err != nil {
		return PostPage{}, err
	}

	return rc.page, nil
}

// AdjacentPosts returns the published neighbours of the post with the
// given slug.
func (m *Manager) AdjacentPosts(ctx context.Context, caller Caller, slug string) (Adjacent, error) {
	rc := &adjacentContext{caller: caller, slug: slug}
	if err := m.adjacent.Run(ctx, rc); err != nil {
		return Adjacent{}, err
	}

	return rc.result, nil
}

// CreatePost runs the create pipeline and returns the normalized new post.
func (m *Manager) CreatePost(ctx context.Context, caller Caller, input PostInput) (*Post, error) {
	rc := &mutationContext{caller: caller, input: input}

	return m.runMutation(ctx, m.createPost, rc)
}

// UpdatePost runs the update pipeline against an existing post.
func (m *Manager) UpdatePost(ctx context.Context, caller Caller, postID int, input PostInput) (*Post, error) {
	rc := &mutationContext{caller: caller, postID: postID, input: input}

	return m.runMutation(ctx, m.updatePost, rc)
}

// runMutation reports every accumulated warning: merged into the error
// when a later stage fails, on the returned post otherwise.
func (m *Manager) runMutation(ctx context.Context, pipeline *resolver.Pipeline[*mutationContext], rc *mutationContext) (*Post, error) {
	if err := pipeline.Run(ctx, rc); err != nil {
		var pipeErr *resolver.Error
		if len(rc.warnings) > 0 && errors.As(err, &pipeErr) {
			err = pipeErr.WithMessages(rc.warnings...)
		}
		return nil, err
	}

	for _, warning := range rc.warnings {
		m.log.Warn("mutation warning",
			"operation", pipeline.Operation(),
			"postId", rc.raw.ID,
			"warning", warning,
		)
	}

	rc.post.Warnings = rc.warnings

	return rc.post, nil
}

// DeletePosts trashes posts, or permanently removes them when they are
// already in trash. A permanent removal drops the taxonomy links with the
// record.
func (m *Manager) DeletePosts(ctx context.Context, caller Caller, postIDs []int) error {
	if err := m.auth.Authorize(caller, OpDeletePosts); err != nil {
		return err
	}

	for _, postID := range postIDs {
		post, err := m.store.PostByID(ctx, postID)
		if err != nil {
			return resolver.PersistenceError(err)
		}
		if post == nil {
			return resolver.NotFoundError(fmt.Sprintf("post %d does not exist", postID))
		}

		if post.Status != db.StatusTrash {
			trash := db.StatusTrash
			if _, err := m.store.UpdatePost(ctx, postID, db.PostPatch{Status: &trash}); err != nil {
				return resolver.PersistenceError(err)
			}
			continue
		}

		if err := m.store.DeletePost(ctx, postID); err != nil {
			return resolver.PersistenceError(err)
		}
	}

	return nil
}

// Taxonomies lists all taxonomy records of one type in normalized form.
func (m *Manager) Taxonomies(ctx context.Context, taxonomyType string) ([]Taxonomy, error) {
	if taxonomyType != db.TaxonomyTag && taxonomyType != db.TaxonomyCategory {
		return nil, resolver.ValidationError(fmt.Sprintf("unknown taxonomy type %q", taxonomyType))
	}

	raw, err := m.store.Taxonomies(ctx, taxonomyType)
	if err != nil {
		return nil, resolver.PersistenceError(err)
	}

	taxonomies := make([]Taxonomy, len(raw))
	for i := range raw {
		taxonomies[i] = m.normalizer.Taxonomy(&raw[i])
	}

	return taxonomies, nil
}

// PostTaxonomies lists the normalized taxonomies attached to one post.
func (m *Manager) PostTaxonomies(ctx context.Context, postID int) ([]Taxonomy, error) {
	raw, err := m.store.TaxonomiesByPost(ctx, postID)
	if err != nil {
		return nil, resolver.PersistenceError(err)
	}

	taxonomies := make([]Taxonomy, len(raw))
	for i := range raw {
		taxonomies[i] = m.normalizer.Taxonomy(&raw[i])
	}

	return taxonomies, nil
}

// Author returns one author in normalized form, nil when absent.
func (m *Manager) Author(ctx context.Context, authorID int) (*Author, error) {
	raw, err := m.store.AuthorByID(ctx, authorID)
	if err != nil {
		return nil, resolver.PersistenceError(err)
	}
	if raw == nil {
		return nil, nil
	}

	return m.normalizer.Author(raw), nil
}

// Menu returns the navigation menu stored in settings.
func (m *Manager) Menu(ctx context.Context) ([]MenuItem, error) {
	return m.menuItems(ctx)
}

// PreviewToken issues a share link token for an unpublished revision.
// Editor only; the returned token itself is the credential for the read.
func (m *Manager) PreviewToken(ctx context.Context, caller Caller, postID int) (string, error) {
	if err := m.auth.Authorize(caller, OpUpdatePost); err != nil {
		return "", err
	}

	post, err := m.store.PostByID(ctx, postID)
	if err != nil {
		return "", resolver.PersistenceError(err)
	}
	if post == nil {
		return "", resolver.NotFoundError(fmt.Sprintf("post %d does not exist", postID))
	}

	return previewToken(m.previewSecret, postID), nil
}

// Stats aggregates per-status post and page counts for the dashboard.
func (m *Manager) Stats(ctx context.Context, caller Caller) (*Stats, error) {
	if err := m.auth.Authorize(caller, OpStats); err != nil {
		return nil, err
	}

	stats := &Stats{}

	for _, group := range []struct {
		postType string
		counts   *StatusCounts
	}{
		{db.TypePost, &stats.Posts},
		{db.TypePage, &stats.Pages},
	} {
		for _, item := range []struct {
			status string
			count  *int
		}{
			{db.StatusPublish, &group.counts.Published},
			{db.StatusDraft, &group.counts.Drafts},
			{db.StatusTrash, &group.counts.Trashed},
		} {
			postType, status := group.postType, item.status
			count, err := m.store.CountPosts(ctx, db.PostCriteria{Type: &postType, Status: &status})
			if err != nil {
				return nil, resolver.PersistenceError(err)
			}
			*item.count = count
		}
	}

	tags, err := m.store.Taxonomies(ctx, db.TaxonomyTag)
	if err != nil {
		return nil, resolver.PersistenceError(err)
	}
	categories, err := m.store.Taxonomies(ctx, db.TaxonomyCategory)
	if err != nil {
		return nil, resolver.PersistenceError(err)
	}

	stats.Tags = len(tags)
	stats.Categories = len(categories)

	return stats, nil
}
