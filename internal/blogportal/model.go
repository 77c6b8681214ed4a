// Package blogportal contains the content-management domain: every read and
// write on posts runs as one resolver pipeline threading a request context
// through a permission gate, builder stages and a terminal storage stage.
package blogportal

import (
	"github.com/avolkov/blog-portal/internal/db"
)

// Operation names, one per pipeline.
const (
	OpListPosts     = "posts"
	OpGetPost       = "post"
	OpSearchPosts   = "search"
	OpAdjacentPosts = "adjacentPosts"
	OpCreatePost    = "createPost"
	OpUpdatePost    = "updatePost"
	OpDeletePosts   = "deletePosts"
	OpStats         = "stats"
)

// Caller identifies who is running an operation. The zero value is an
// anonymous reader.
type Caller struct {
	ID   int
	Role string
}

// Anonymous is the caller used for unauthenticated public reads.
var Anonymous = Caller{Role: db.RoleReader}

func (c Caller) isEditor() bool {
	return c.Role == db.RoleAdmin || c.Role == db.RoleReviewer
}

// CoverImage is the nested cover image shape callers receive.
type CoverImage struct {
	Src    string `json:"src"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Post is the caller-facing, normalized shape of a stored post: absolute
// asset URLs, `/<type>/<slug>` canonical slug, readable timestamps. It is a
// distinct type from db.Post so a record cannot be normalized twice.
type Post struct {
	ID          int        `json:"id"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Md          string     `json:"md,omitempty"`
	HTML        string     `json:"html,omitempty"`
	Excerpt     string     `json:"excerpt"`
	CoverImage  CoverImage `json:"cover_image"`
	Featured    bool       `json:"featured"`
	ReadingTime string     `json:"reading_time"`
	AuthorID    int        `json:"authorId"`
	Author      *Author    `json:"author,omitempty"`
	CreatedAt   string     `json:"createdAt"`
	UpdatedAt   string     `json:"updatedAt"`
	PublishedAt string     `json:"publishedAt"`

	// Warnings lists non-fatal input oddities a mutation corrected in
	// place, e.g. an ignored empty title. Always empty on reads.
	Warnings []string `json:"warnings,omitempty"`
}

type Author struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Role   string `json:"role"`
}

type Taxonomy struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	PostCount   int    `json:"postCount"`
}

// PostPage is a page of posts plus the total number of matches.
type PostPage struct {
	Rows  []Post `json:"rows"`
	Count int    `json:"count"`
}

// Adjacent holds the nearest published neighbours of an anchor post. A nil
// side means no neighbour exists in that direction.
type Adjacent struct {
	Previous *Post `json:"previous"`
	Next     *Post `json:"next"`
}

// Stats feeds the admin dashboard.
type Stats struct {
	Posts      StatusCounts `json:"posts"`
	Pages      StatusCounts `json:"pages"`
	Tags       int          `json:"tags"`
	Categories int          `json:"categories"`
}

type StatusCounts struct {
	Published int `json:"published"`
	Drafts    int `json:"drafts"`
	Trashed   int `json:"trashed"`
}

// MenuItem is one entry of the navigation menu stored as JSON in the
// settings table.
type MenuItem struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Type   string `json:"type"`
	PostID int    `json:"postId"`
}

// PostFilters carries the raw read arguments. All fields are optional;
// absence means no constraint on that dimension.
type PostFilters struct {
	ID           *int    `json:"id"`
	Slug         *string `json:"slug"`
	Type         *string `json:"type"`
	Status       *string `json:"status"`
	Featured     *bool   `json:"featured"`
	Tag          *string `json:"tag"`
	Author       *int    `json:"author"`
	Menu         *string `json:"menu"`
	Query        *string `json:"query"`
	Page         *int    `json:"page"`
	Limit        *int    `json:"limit"`
	OrderBy      *string `json:"orderBy"`
	SortOrder    *string `json:"sortOrder"`
	PreviewToken *string `json:"previewToken"`
}

// PostInput carries the raw write arguments for create and update. A nil
// field means "leave unchanged" on update and "use the default" on create.
type PostInput struct {
	Title      *string   `json:"title"`
	Slug       *string   `json:"slug"`
	Featured   *bool     `json:"featured"`
	Type       *string   `json:"type"`
	Status     *string   `json:"status"`
	Md         *string   `json:"md"`
	MdDraft    *string   `json:"mdDraft"`
	Excerpt    *string   `json:"excerpt"`
	CoverImage *string   `json:"coverImage"`
	Tags       *[]string `json:"tags"`
	Categories *[]string `json:"categories"`
}
