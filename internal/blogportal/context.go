package blogportal

import (
	"fmt"

	"github.com/avolkov/blog-portal/internal/db"
)

// Fragment keys claimed by criteria builder stages. Declared as constants
// so a pipeline misdeclaration (two stages claiming one key) is caught at
// construction.
const (
	fragIdentity           = "identity"
	fragMenu               = "menu"
	fragTag                = "tag"
	fragAuthor             = "author"
	fragPagination         = "pagination"
	fragStatusTypeFeatured = "statusTypeFeatured"
	fragOrder              = "order"
	fragSearch             = "search"
)

// Fragment keys claimed by mutation builder stages.
const (
	fragTitleSlug   = "titleSlugFeatured"
	fragDatesStatus = "datesStatus"
	fragCoverImage  = "coverImage"
	fragReadingTime = "readingTime"
	fragContent     = "content"
)

// queryContext is the request-scoped state of a read pipeline. Created at
// pipeline entry, discarded at exit, never shared between requests.
type queryContext struct {
	caller  Caller
	filters PostFilters // read-only after entry

	criteria db.PostCriteria // accumulated filter fragments

	// results, unset until the executor runs
	rawRows []db.Post
	rawPost *db.Post
	count   int

	page PostPage
	post *Post
}

// mutationContext is the request-scoped state of a write pipeline.
type mutationContext struct {
	caller Caller
	postID int       // zero while creating
	input  PostInput // read-only after entry

	current *db.Post     // anchor record loaded for update
	patch   db.PostPatch // accumulated payload fragments

	titleChanged   bool
	contentChanged bool

	warnings []string // non-fatal validation notes, reported together

	raw  *db.Post // persisted record from the executor
	post *Post    // normalized result
}

func (mc *mutationContext) warnf(format string, args ...any) {
	mc.warnings = append(mc.warnings, fmt.Sprintf(format, args...))
}
