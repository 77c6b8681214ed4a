package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/go-pg/pg/v10/orm"
)

// ErrConstraint reports a uniqueness or integrity violation surfaced by the
// storage layer. Callers must treat it as a failure, never retry it here.
var ErrConstraint = errors.New("constraint violation")

// orderColumns whitelists the sortable post columns.
var orderColumns = map[string]string{
	"id":          "postId",
	"title":       "title",
	"createdAt":   "createdAt",
	"updatedAt":   "updatedAt",
	"publishedAt": "publishedAt",
}

type Repository struct {
	db pg.DBI
}

func New(db pg.DBI) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Ping(ctx context.Context) error {
	if db, ok := r.db.(*pg.DB); ok {
		return db.Ping(ctx)
	}

	return nil
}

func (r *Repository) Close() error {
	if db, ok := r.db.(*pg.DB); ok {
		return db.Close()
	}

	return nil
}

func applyCriteria(query *orm.Query, cr PostCriteria) *orm.Query {
	if cr.ID != nil {
		query = query.Where(`"t"."postId" = ?`, *cr.ID)
	}

	if cr.Slug != nil {
		query = query.Where(`"t"."slug" = ?`, *cr.Slug)
	}

	if cr.IDs != nil {
		query = query.Where(`"t"."postId" IN (?)`, pg.In(cr.IDs))
	}

	if cr.TagSlug != nil {
		query = query.Where(`"t"."postId" IN (
			SELECT pt."postId" FROM post_taxonomies pt
			JOIN taxonomies tx ON tx."taxonomyId" = pt."taxonomyId"
			WHERE tx."slug" = ?)`, *cr.TagSlug)
	}

	if cr.AuthorID != nil {
		query = query.Where(`"t"."authorId" = ?`, *cr.AuthorID)
	}

	if cr.Status != nil {
		query = query.Where(`"t"."status" = ?`, *cr.Status)
	}

	if cr.Type != nil {
		query = query.Where(`"t"."type" = ?`, *cr.Type)
	}

	if cr.Featured != nil {
		query = query.Where(`"t"."featured" = ?`, *cr.Featured)
	}

	if cr.Search != nil {
		query = query.Where(`"t"."title" ILIKE ?`, "%"+*cr.Search+"%")
	}

	return query
}

func orderExpr(cr PostCriteria) string {
	column, ok := orderColumns[cr.OrderBy]
	if !ok {
		column = "publishedAt"
	}

	direction := "ASC"
	if cr.SortDesc {
		direction = "DESC"
	}

	return fmt.Sprintf(`"t".%q %s`, column, direction)
}

// Posts retrieves posts matching the criteria together with the total count
// of matching rows (count ignores pagination).
func (r *Repository) Posts(ctx context.Context, cr PostCriteria) ([]Post, int, error) {
	if cr.IDs != nil && len(cr.IDs) == 0 {
		return []Post{}, 0, nil
	}

	var posts []Post
	query := applyCriteria(r.db.ModelContext(ctx, &posts), cr).
		Relation("Author").
		OrderExpr(orderExpr(cr))

	if cr.Limit > 0 {
		query = query.Limit(cr.Limit).Offset(cr.Offset)
	}

	count, err := query.SelectAndCount()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query posts: %w", err)
	}

	return posts, count, nil
}

// PostOne retrieves a single post matching the criteria, nil when absent.
func (r *Repository) PostOne(ctx context.Context, cr PostCriteria) (*Post, error) {
	post := &Post{}
	err := applyCriteria(r.db.ModelContext(ctx, post), cr).
		Relation("Author").
		OrderExpr(orderExpr(cr)).
		Limit(1).
		Select()

	if errors.Is(err, pg.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return post, nil
}

func (r *Repository) PostByID(ctx context.Context, postID int) (*Post, error) {
	return r.PostOne(ctx, PostCriteria{ID: &postID})
}

// PreviousPost returns the post with the greatest id strictly below anchorID
// among posts matching the criteria, nil when there is none.
func (r *Repository) PreviousPost(ctx context.Context, cr PostCriteria, anchorID int) (*Post, error) {
	post := &Post{}
	err := applyCriteria(r.db.ModelContext(ctx, post), cr).
		Where(`"t"."postId" < ?`, anchorID).
		OrderExpr(`"t"."postId" DESC`).
		Limit(1).
		Select()

	if errors.Is(err, pg.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get previous post: %w", err)
	}

	return post, nil
}

// NextPost returns the post with the smallest id strictly above anchorID
// among posts matching the criteria, nil when there is none.
func (r *Repository) NextPost(ctx context.Context, cr PostCriteria, anchorID int) (*Post, error) {
	post := &Post{}
	err := applyCriteria(r.db.ModelContext(ctx, post), cr).
		Where(`"t"."postId" > ?`, anchorID).
		OrderExpr(`"t"."postId" ASC`).
		Limit(1).
		Select()

	if errors.Is(err, pg.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get next post: %w", err)
	}

	return post, nil
}

// SearchCandidates loads the published posts used to build the search index.
// Markdown source is excluded to keep the candidate set small.
func (r *Repository) SearchCandidates(ctx context.Context) ([]Post, error) {
	var posts []Post
	err := r.db.ModelContext(ctx, &posts).
		Column("postId", "type", "title", "html", "excerpt", "slug", "publishedAt").
		Where(`"t"."status" = ?`, StatusPublish).
		OrderExpr(`"t"."postId" ASC`).
		Select()

	if err != nil {
		return nil, fmt.Errorf("failed to query search candidates: %w", err)
	}

	return posts, nil
}

// SlugExists reports whether another post of the given type already claims
// the slug. excludeID ignores the post being edited.
func (r *Repository) SlugExists(ctx context.Context, slug, postType string, excludeID int) (bool, error) {
	count, err := r.db.ModelContext(ctx, (*Post)(nil)).
		Where(`"t"."slug" = ?`, slug).
		Where(`"t"."type" = ?`, postType).
		Where(`"t"."postId" != ?`, excludeID).
		Count()

	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}

	return count > 0, nil
}

func (r *Repository) CreatePost(ctx context.Context, post *Post) error {
	_, err := r.db.ModelContext(ctx, post).Returning("*").Insert()
	if err != nil {
		if isIntegrityViolation(err) {
			return fmt.Errorf("%w: %v", ErrConstraint, err)
		}
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

// UpdatePost applies the patch to the post in a single write and returns the
// persisted record.
func (r *Repository) UpdatePost(ctx context.Context, postID int, patch PostPatch) (*Post, error) {
	post := &Post{ID: postID, UpdatedAt: time.Now()}
	columns := []string{"updatedAt"}

	set := func(column string, apply func()) {
		apply()
		columns = append(columns, column)
	}

	if patch.Title != nil {
		set("title", func() { post.Title = *patch.Title })
	}
	if patch.Slug != nil {
		set("slug", func() { post.Slug = *patch.Slug })
	}
	if patch.Featured != nil {
		set("featured", func() { post.Featured = *patch.Featured })
	}
	if patch.Status != nil {
		set("status", func() { post.Status = *patch.Status })
	}
	if patch.PublishedAt != nil {
		set("publishedAt", func() { post.PublishedAt = patch.PublishedAt })
	}
	if patch.CoverImage != nil {
		set("coverImage", func() { post.CoverImage = *patch.CoverImage })
	}
	if patch.CoverImageWidth != nil {
		set("coverImageWidth", func() { post.CoverImageWidth = *patch.CoverImageWidth })
	}
	if patch.CoverImageHeight != nil {
		set("coverImageHeight", func() { post.CoverImageHeight = *patch.CoverImageHeight })
	}
	if patch.ReadingTime != nil {
		set("readingTime", func() { post.ReadingTime = *patch.ReadingTime })
	}
	if patch.Md != nil {
		set("md", func() { post.Md = *patch.Md })
	}
	if patch.MdDraft != nil {
		set("mdDraft", func() { post.MdDraft = *patch.MdDraft })
	}
	if patch.HTML != nil {
		set("html", func() { post.HTML = *patch.HTML })
	}
	if patch.Excerpt != nil {
		set("excerpt", func() { post.Excerpt = *patch.Excerpt })
	}

	_, err := r.db.ModelContext(ctx, post).
		Column(columns...).
		WherePK().
		Returning("*").
		Update()

	if errors.Is(err, pg.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		if isIntegrityViolation(err) {
			return nil, fmt.Errorf("%w: %v", ErrConstraint, err)
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	return post, nil
}

// DeletePost removes a post and its taxonomy links, keeping the
// denormalized per-taxonomy post counts in step.
func (r *Repository) DeletePost(ctx context.Context, postID int) error {
	var links []PostTaxonomy
	if err := r.db.ModelContext(ctx, &links).
		Where(`"t"."postId" = ?`, postID).
		Select(); err != nil {
		return fmt.Errorf("failed to query post taxonomies: %w", err)
	}

	for _, link := range links {
		if err := r.RemovePostTaxonomy(ctx, postID, link.TaxonomyID); err != nil {
			return err
		}
	}

	if _, err := r.db.ModelContext(ctx, &Post{ID: postID}).
		WherePK().
		Delete(); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	return nil
}

func (r *Repository) Taxonomies(ctx context.Context, taxonomyType string) ([]Taxonomy, error) {
	var taxonomies []Taxonomy
	query := r.db.ModelContext(ctx, &taxonomies).
		OrderExpr(`"t"."name" ASC`)

	if taxonomyType != "" {
		query = query.Where(`"t"."type" = ?`, taxonomyType)
	}

	err := query.Select()
	if err != nil {
		return nil, fmt.Errorf("failed to query taxonomies: %w", err)
	}

	return taxonomies, nil
}

func (r *Repository) TaxonomiesByPost(ctx context.Context, postID int) ([]Taxonomy, error) {
	var taxonomies []Taxonomy
	err := r.db.ModelContext(ctx, &taxonomies).
		Where(`"t"."taxonomyId" IN (
			SELECT pt."taxonomyId" FROM post_taxonomies pt WHERE pt."postId" = ?)`, postID).
		OrderExpr(`"t"."name" ASC`).
		Select()

	if err != nil {
		return nil, fmt.Errorf("failed to query post taxonomies: %w", err)
	}

	return taxonomies, nil
}

// EnsureTaxonomy finds a taxonomy by type and name, creating it when absent.
func (r *Repository) EnsureTaxonomy(ctx context.Context, taxonomyType, name, slug string) (*Taxonomy, error) {
	taxonomy := &Taxonomy{}
	err := r.db.ModelContext(ctx, taxonomy).
		Where(`"t"."type" = ?`, taxonomyType).
		Where(`"t"."name" = ?`, name).
		Select()

	if err == nil {
		return taxonomy, nil
	}
	if !errors.Is(err, pg.ErrNoRows) {
		return nil, fmt.Errorf("failed to get taxonomy: %w", err)
	}

	taxonomy = &Taxonomy{Type: taxonomyType, Name: name, Slug: slug}
	if _, err := r.db.ModelContext(ctx, taxonomy).Returning("*").Insert(); err != nil {
		if isIntegrityViolation(err) {
			return nil, fmt.Errorf("%w: %v", ErrConstraint, err)
		}
		return nil, fmt.Errorf("failed to create taxonomy: %w", err)
	}

	return taxonomy, nil
}

func (r *Repository) AddPostTaxonomy(ctx context.Context, postID, taxonomyID int) error {
	link := &PostTaxonomy{PostID: postID, TaxonomyID: taxonomyID}
	if _, err := r.db.ModelContext(ctx, link).
		OnConflict("DO NOTHING").
		Insert(); err != nil {
		return fmt.Errorf("failed to link taxonomy: %w", err)
	}

	_, err := r.db.ModelContext(ctx, (*Taxonomy)(nil)).
		Set(`"postCount" = "postCount" + 1`).
		Where(`"taxonomyId" = ?`, taxonomyID).
		Update()
	if err != nil {
		return fmt.Errorf("failed to bump taxonomy post count: %w", err)
	}

	return nil
}

func (r *Repository) RemovePostTaxonomy(ctx context.Context, postID, taxonomyID int) error {
	result, err := r.db.ModelContext(ctx, (*PostTaxonomy)(nil)).
		Where(`"t"."postId" = ?`, postID).
		Where(`"t"."taxonomyId" = ?`, taxonomyID).
		Delete()
	if err != nil {
		return fmt.Errorf("failed to unlink taxonomy: %w", err)
	}

	if result.RowsAffected() > 0 {
		_, err = r.db.ModelContext(ctx, (*Taxonomy)(nil)).
			Set(`"postCount" = GREATEST("postCount" - 1, 0)`).
			Where(`"taxonomyId" = ?`, taxonomyID).
			Update()
		if err != nil {
			return fmt.Errorf("failed to drop taxonomy post count: %w", err)
		}
	}

	return nil
}

func (r *Repository) AuthorByID(ctx context.Context, authorID int) (*Author, error) {
	author := &Author{ID: authorID}
	err := r.db.ModelContext(ctx, author).WherePK().Select()

	if errors.Is(err, pg.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get author: %w", err)
	}

	return author, nil
}

func (r *Repository) Setting(ctx context.Context, name string) (*Setting, error) {
	setting := &Setting{Name: name}
	err := r.db.ModelContext(ctx, setting).WherePK().Select()

	if errors.Is(err, pg.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get setting %q: %w", name, err)
	}

	return setting, nil
}

func (r *Repository) UpdateSetting(ctx context.Context, name, value string) error {
	setting := &Setting{Name: name, Value: value}
	_, err := r.db.ModelContext(ctx, setting).
		OnConflict(`("name") DO UPDATE SET "value" = EXCLUDED."value"`).
		Insert()
	if err != nil {
		return fmt.Errorf("failed to update setting %q: %w", name, err)
	}

	return nil
}

// CountPosts returns the number of posts matching the criteria.
func (r *Repository) CountPosts(ctx context.Context, cr PostCriteria) (int, error) {
	count, err := applyCriteria(r.db.ModelContext(ctx, (*Post)(nil)), cr).Count()
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}

	return count, nil
}

func isIntegrityViolation(err error) bool {
	var pgErr pg.Error
	if errors.As(err, &pgErr) {
		return pgErr.IntegrityViolation()
	}
	return false
}
