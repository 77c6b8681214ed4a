package blogportal

import (
	"context"

	"github.com/avolkov/blog-portal/internal/db"
	"github.com/avolkov/blog-portal/internal/images"
)

// Store is the persistence collaborator. Reads on the posts table are
// invoked only by executor stages; mutation builder stages use the lookup
// and association methods while assembling their payload. Implemented by
// db.Repository.
type Store interface {
	Posts(ctx context.Context, cr db.PostCriteria) ([]db.Post, int, error)
	PostOne(ctx context.Context, cr db.PostCriteria) (*db.Post, error)
	PostByID(ctx context.Context, postID int) (*db.Post, error)
	PreviousPost(ctx context.Context, cr db.PostCriteria, anchorID int) (*db.Post, error)
	NextPost(ctx context.Context, cr db.PostCriteria, anchorID int) (*db.Post, error)
	SearchCandidates(ctx context.Context) ([]db.Post, error)
	CountPosts(ctx context.Context, cr db.PostCriteria) (int, error)

	SlugExists(ctx context.Context, slug, postType string, excludeID int) (bool, error)
	CreatePost(ctx context.Context, post *db.Post) error
	UpdatePost(ctx context.Context, postID int, patch db.PostPatch) (*db.Post, error)
	DeletePost(ctx context.Context, postID int) error

	Taxonomies(ctx context.Context, taxonomyType string) ([]db.Taxonomy, error)
	TaxonomiesByPost(ctx context.Context, postID int) ([]db.Taxonomy, error)
	EnsureTaxonomy(ctx context.Context, taxonomyType, name, slug string) (*db.Taxonomy, error)
	AddPostTaxonomy(ctx context.Context, postID, taxonomyID int) error
	RemovePostTaxonomy(ctx context.Context, postID, taxonomyID int) error

	AuthorByID(ctx context.Context, authorID int) (*db.Author, error)
	Setting(ctx context.Context, name string) (*db.Setting, error)
	UpdateSetting(ctx context.Context, name, value string) error
}

// Renderer is the content-rendering collaborator. Implemented by
// render.Markdown.
type Renderer interface {
	Render(source string) (string, error)
	InnerText(renderedHTML string) string
	WordCount(renderedHTML string) int
}

// Prober resolves remote image dimensions. Implemented by images.Prober.
type Prober interface {
	Probe(ctx context.Context, url string) (images.Dimensions, error)
}

// Authorizer decides whether a caller may run an operation. Consumed only
// by the permission gate stage.
type Authorizer interface {
	Authorize(caller Caller, operation string) error
}
