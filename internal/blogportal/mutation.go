package blogportal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/avolkov/blog-portal/internal/db"
	"github.com/avolkov/blog-portal/internal/resolver"
)

const settingMenu = "menu"

// Mutation builder stages. Their declared order encodes real dependencies
// (reading time is derived before the content fragment is written, menu
// sync needs the final title) and must be preserved exactly.

// stageLoadPost fetches the anchor record an update operates on. A missing
// anchor fails the whole pipeline before any payload is assembled.
func (m *Manager) stageLoadPost() resolver.Stage[*mutationContext] {
	return resolver.Stage[*mutationContext]{
		Name: "loadPost",
		Run: func(ctx context.Context, rc *mutationContext) (resolver.Outcome, error) {
			post, err := m.store.PostByID(ctx, rc.postID)
			if err != nil {
				return resolver.Continue, resolver.PersistenceError(err)
			}
			if post == nil {
				return resolver.Continue, resolver.NotFoundError(
					fmt.Sprintf("post %d does not exist", rc.postID))
			}

			rc.current = post

			return resolver.Continue, nil
		},
	}
}

// stageValidateInput rejects malformed input naming the offending fields.
// Minor oddities that can be corrected in place are collected as warnings
// instead of stopping the pipeline.
func (m *Manager) stageValidateInput(creating bool) resolver.Stage[*mutationContext] {
	return resolver.Stage[*mutationContext]{
		Name: "validateInput",
		Run: func(ctx context.Context, rc *mutationContext) (resolver.Outcome, error) {
			in := rc.input

			err := validation.ValidateStruct(&in,
				validation.Field(&in.Title,
					validation.Required.When(creating).Error("is required"),
					validation.Length(0, 200)),
				validation.Field(&in.Status,
					validation.In(db.StatusDraft, db.StatusPublish, db.StatusTrash)),
				validation.Field(&in.Type,
					validation.In(db.TypePost, db.TypePage)),
			)
			if err != nil {
				var fields validation.Errors
				if errors.As(err, &fields) {
					messages := make([]string, 0, len(fields))
					for field, fieldErr := range fields {
						messages = append(messages, field+": "+fieldErr.Error())
					}
					return resolver.Continue, resolver.ValidationError(messages...)
				}
				return resolver.Continue, err
			}

			if in.Title != nil && *in.Title == "" && !creating {
				rc.warnf("title: empty title ignored")
				rc.input.Title = nil
			}

			return resolver.Continue, nil
		},
	}
}

// stageTitleSlugFeatured writes the title, slug and featured fragments. A
// changed title without an explicit slug re-derives the slug; a derived or
// explicit slug colliding with a different post of the same type is a
// caller-visible validation failure, never a silent rename.
func (m *Manager) stageTitleSlugFeatured() resolver.Stage[*mutationContext] {
	return resolver.Stage[*mutationContext]{
		Name:   "titleSlugFeatured",
		Writes: []string{fragTitleSlug},
		Run: func(ctx context.Context, rc *mutationContext) (resolver.Outcome, error) {
			creating := rc.current == nil

			if rc.input.Title != nil && (creating || *rc.input.Title != rc.current.Title) {
				rc.patch.Title = rc.input.Title
				rc.titleChanged = true
			}

			var slug string
			switch {
			case rc.input.Slug != nil && *rc.input.Slug != "":
				slug = makeSlug(*rc.input.Slug)
			case rc.titleChanged:
				slug = makeSlug(*rc.input.Title)
			}

			if slug != "" && (creating || slug != rc.current.Slug) {
				postType := rc.postType()
				excludeID := 0
				if !creating {
					excludeID = rc.current.ID
				}

				taken, err := m.store.SlugExists(ctx, slug, postType, excludeID)
				if err != nil {
					return resolver.Continue, resolver.PersistenceError(err)
				}
				if taken {
					return resolver.Continue, resolver.ValidationError(
						fmt.Sprintf("slug: %q is already used by another %s", slug, postType))
				}

				rc.patch.Slug = &slug
			}

			if rc.input.Featured != nil {
				rc.patch.Featured = rc.input.Featured
			}

			return resolver.Continue, nil
		},
	}
}

// stageDatesStatus writes the status fragment. The publish timestamp is set
// the first time a post transitions into publish and never overwritten on
// later edits while published.
func (m *Manager) stageDatesStatus() resolver.Stage[*mutationContext] {
	return resolver.Stage[*mutationContext]{
		Name:   "datesStatus",
		Writes: []string{fragDatesStatus},
		Run: func(ctx context.Context, rc *mutationContext) (resolver.Outcome, error) {
			if rc.input.Status == nil {
				return resolver.Continue, nil
			}

			rc.patch.Status = rc.input.Status

			alreadyPublished := rc.current != nil && rc.current.PublishedAt != nil
			if *rc.input.Status == db.StatusPublish && !alreadyPublished {
				now := m.now()
				rc.patch.PublishedAt = &now
			}

			return resolver.Continue, nil
		},
	}
}

// stageCoverImage writes the cover image fragment when a new image arrived,
// probing the remote file for its pixel dimensions. Without a new upload
// the existing value stays untouched.
func (m *Manager) stageCoverImage() resolver.Stage[*mutationContext] {
	return resolver.Stage[*mutationContext]{
		Name:   "coverImage",
		Writes: []string{fragCoverImage},
		Run: func(ctx context.Context, rc *mutationContext) (resolver.Outcome, error) {
			if rc.input.CoverImage == nil {
				return resolver.Continue, nil
			}
			if rc.current != nil && *rc.input.CoverImage == rc.current.CoverImage {
				return resolver.Continue, nil
			}

			rc.patch.CoverImage = rc.input.CoverImage

			width, height := 0, 0
			if src := *rc.input.CoverImage; src != "" {
				dims, err := m.prober.Probe(ctx, m.normalizer.AbsoluteURL(src))
				if err != nil {
					rc.warnf("coverImage: cannot read dimensions of %s", src)
				} else {
					width, height = dims.Width, dims.Height
				}
			}

			rc.patch.CoverImageWidth = &width
			rc.patch.CoverImageHeight = &height

			return resolver.Continue, nil
		},
	}
}

// stageReadingTime recomputes the reading time whenever the content changed
// in this pipeline run. It renders the incoming markup itself: the content
// fragment is written after this stage, and counting words on the stored
// body would use stale content.
func (m *Manager) stageReadingTime() resolver.Stage[*mutationContext] {
	return resolver.Stage[*mutationContext]{
		Name:   "readingTime",
		Writes: []string{fragReadingTime},
		Run: func(ctx context.Context, rc *mutationContext) (resolver.Outcome, error) {
			if rc.input.Md == nil {
				return resolver.Continue, nil
			}

			html, err := m.renderer.Render(*rc.input.Md)
			if err != nil {
				return resolver.Continue, resolver.ValidationError("md: cannot render markup")
			}

			readingTime := readingTimeFor(m.renderer.WordCount(html))
			rc.patch.ReadingTime = &readingTime

			return resolver.Continue, nil
		},
	}
}

// stageContent converts the source markup to its rendered form and writes
// the content fragments.
func (m *Manager) stageContent() resolver.Stage[*mutationContext] {
	return resolver.Stage[*mutationContext]{
		Name:   "content",
		Writes: []string{fragContent},
		Run: func(ctx context.Context, rc *mutationContext) (resolver.Outcome, error) {
			if rc.input.Md != nil {
				html, err := m.renderer.Render(*rc.input.Md)
				if err != nil {
					return resolver.Continue, resolver.ValidationError("md: cannot render markup")
				}

				empty := ""
				rc.patch.Md = rc.input.Md
				rc.patch.HTML = &html
				rc.patch.MdDraft = &empty // a saved body supersedes any draft revision
				rc.contentChanged = true
			}

			if rc.input.MdDraft != nil {
				rc.patch.MdDraft = rc.input.MdDraft
			}

			if rc.input.Excerpt != nil {
				rc.patch.Excerpt = rc.input.Excerpt
			}

			return resolver.Continue, nil
		},
	}
}

// stageTaxonomies diffs the requested tag and category sets against the
// current associations: missing taxonomy records are created, obsolete
// associations removed. Taxonomy records themselves are never deleted.
func (m *Manager) stageTaxonomies() resolver.Stage[*mutationContext] {
	return resolver.Stage[*mutationContext]{
		Name: "taxonomies",
		Run: func(ctx context.Context, rc *mutationContext) (resolver.Outcome, error) {
			if rc.input.Tags == nil && rc.input.Categories == nil {
				return resolver.Continue, nil
			}

			postID := rc.postID
			if postID == 0 && rc.raw != nil {
				postID = rc.raw.ID
			}

			if rc.input.Tags != nil {
				if err := m.syncTaxonomies(ctx, rc, postID, db.TaxonomyTag, *rc.input.Tags); err != nil {
					return resolver.Continue, err
				}
			}
			if rc.input.Categories != nil {
				if err := m.syncTaxonomies(ctx, rc, postID, db.TaxonomyCategory, *rc.input.Categories); err != nil {
					return resolver.Continue, err
				}
			}

			return resolver.Continue, nil
		},
	}
}

func (m *Manager) syncTaxonomies(ctx context.Context, rc *mutationContext, postID int, taxonomyType string, names []string) error {
	current, err := m.store.TaxonomiesByPost(ctx, postID)
	if err != nil {
		return resolver.PersistenceError(err)
	}

	currentByName := make(map[string]db.Taxonomy)
	for _, tx := range current {
		if tx.Type == taxonomyType {
			currentByName[tx.Name] = tx
		}
	}

	desired := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			rc.warnf("%s: empty name skipped", taxonomyType)
			continue
		}
		desired[name] = struct{}{}

		if _, ok := currentByName[name]; ok {
			continue
		}

		taxonomy, err := m.store.EnsureTaxonomy(ctx, taxonomyType, name, makeSlug(name))
		if err != nil {
			return resolver.PersistenceError(err)
		}
		if err := m.store.AddPostTaxonomy(ctx, postID, taxonomy.ID); err != nil {
			return resolver.PersistenceError(err)
		}
	}

	for name, tx := range currentByName {
		if _, ok := desired[name]; ok {
			continue
		}
		if err := m.store.RemovePostTaxonomy(ctx, postID, tx.ID); err != nil {
			return resolver.PersistenceError(err)
		}
	}

	return nil
}

// stageMenuSync keeps navigation menu labels in step with a renamed post.
// A no-op when the title did not change or no menu entry references the
// post.
func (m *Manager) stageMenuSync() resolver.Stage[*mutationContext] {
	return resolver.Stage[*mutationContext]{
		Name: "menuSync",
		Run: func(ctx context.Context, rc *mutationContext) (resolver.Outcome, error) {
			if !rc.titleChanged || rc.postID == 0 {
				return resolver.Continue, nil
			}

			items, err := m.menuItems(ctx)
			if err != nil {
				return resolver.Continue, err
			}

			changed := false
			for i := range items {
				if items[i].PostID == rc.postID {
					items[i].Title = *rc.patch.Title
					changed = true
				}
			}
			if !changed {
				return resolver.Continue, nil
			}

			value, err := json.Marshal(items)
			if err != nil {
				return resolver.Continue, fmt.Errorf("failed to encode menu setting: %w", err)
			}
			if err := m.store.UpdateSetting(ctx, settingMenu, string(value)); err != nil {
				return resolver.Continue, resolver.PersistenceError(err)
			}

			return resolver.Continue, nil
		},
	}
}

// stageExecuteUpdate persists the assembled payload in a single write. It
// is unreachable when any prior stage failed, so a partially built payload
// is never stored.
func (m *Manager) stageExecuteUpdate() resolver.Stage[*mutationContext] {
	return resolver.Stage[*mutationContext]{
		Name: "executeUpdate",
		Run: func(ctx context.Context, rc *mutationContext) (resolver.Outcome, error) {
			post, err := m.store.UpdatePost(ctx, rc.postID, rc.patch)
			if err != nil {
				return resolver.Continue, resolver.PersistenceError(err)
			}
			if post == nil {
				return resolver.Continue, resolver.NotFoundError(
					fmt.Sprintf("post %d does not exist", rc.postID))
			}

			rc.raw = post

			return resolver.Continue, nil
		},
	}
}

// stageExecuteCreate materializes a new record from the assembled payload
// and persists it in a single insert.
func (m *Manager) stageExecuteCreate() resolver.Stage[*mutationContext] {
	return resolver.Stage[*mutationContext]{
		Name: "executeCreate",
		Run: func(ctx context.Context, rc *mutationContext) (resolver.Outcome, error) {
			now := m.now()
			post := &db.Post{
				Type:      rc.postType(),
				Status:    db.StatusDraft,
				AuthorID:  rc.caller.ID,
				CreatedAt: now,
				UpdatedAt: now,
			}

			applyPatch(post, rc.patch)

			if post.Slug == "" {
				post.Slug = makeSlug(post.Title)
			}

			if err := m.store.CreatePost(ctx, post); err != nil {
				return resolver.Continue, resolver.PersistenceError(err)
			}

			rc.raw = post

			return resolver.Continue, nil
		},
	}
}

func (m *Manager) stageNormalizeMutation() resolver.Stage[*mutationContext] {
	return resolver.Stage[*mutationContext]{
		Name: "normalize",
		Run: func(ctx context.Context, rc *mutationContext) (resolver.Outcome, error) {
			rc.post = m.normalizer.Post(rc.raw)
			return resolver.Continue, nil
		},
	}
}

func (rc *mutationContext) postType() string {
	switch {
	case rc.current != nil:
		return rc.current.Type
	case rc.input.Type != nil:
		return *rc.input.Type
	}
	return db.TypePost
}

// applyPatch copies the assembled payload onto a fresh record for insert.
func applyPatch(post *db.Post, patch db.PostPatch) {
	if patch.Title != nil {
		post.Title = *patch.Title
	}
	if patch.Slug != nil {
		post.Slug = *patch.Slug
	}
	if patch.Featured != nil {
		post.Featured = *patch.Featured
	}
	if patch.Status != nil {
		post.Status = *patch.Status
	}
	if patch.PublishedAt != nil {
		post.PublishedAt = patch.PublishedAt
	}
	if patch.CoverImage != nil {
		post.CoverImage = *patch.CoverImage
	}
	if patch.CoverImageWidth != nil {
		post.CoverImageWidth = *patch.CoverImageWidth
	}
	if patch.CoverImageHeight != nil {
		post.CoverImageHeight = *patch.CoverImageHeight
	}
	if patch.ReadingTime != nil {
		post.ReadingTime = *patch.ReadingTime
	}
	if patch.Md != nil {
		post.Md = *patch.Md
	}
	if patch.MdDraft != nil {
		post.MdDraft = *patch.MdDraft
	}
	if patch.HTML != nil {
		post.HTML = *patch.HTML
	}
	if patch.Excerpt != nil {
		post.Excerpt = *patch.Excerpt
	}
}
