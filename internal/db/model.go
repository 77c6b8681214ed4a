package db

import (
	"time"
)

// Post types.
const (
	TypePost = "post"
	TypePage = "page"
)

// Post statuses.
const (
	StatusDraft   = "draft"
	StatusPublish = "publish"
	StatusTrash   = "trash"
)

// Taxonomy types.
const (
	TaxonomyTag      = "post_tag"
	TaxonomyCategory = "post_category"
)

// Author roles.
const (
	RoleAdmin    = "ADMIN"
	RoleReviewer = "REVIEWER"
	RoleReader   = "READER"
)

type Post struct {
	tableName struct{} `pg:"posts,alias:t,discard_unknown_columns"`

	ID               int        `pg:"postId,pk"`
	Type             string     `pg:"type,use_zero"`
	Status           string     `pg:"status,use_zero"`
	Title            string     `pg:"title,use_zero"`
	Slug             string     `pg:"slug,use_zero"`
	Md               string     `pg:"md,use_zero"`
	MdDraft          string     `pg:"mdDraft,use_zero"`
	HTML             string     `pg:"html,use_zero"`
	Excerpt          string     `pg:"excerpt,use_zero"`
	CoverImage       string     `pg:"coverImage,use_zero"`
	CoverImageWidth  int        `pg:"coverImageWidth,use_zero"`
	CoverImageHeight int        `pg:"coverImageHeight,use_zero"`
	Featured         bool       `pg:"featured,use_zero"`
	ReadingTime      string     `pg:"readingTime,use_zero"`
	AuthorID         int        `pg:"authorId,use_zero"`
	CreatedAt        time.Time  `pg:"createdAt,use_zero"`
	UpdatedAt        time.Time  `pg:"updatedAt,use_zero"`
	PublishedAt      *time.Time `pg:"publishedAt"`

	Author     *Author    `pg:"fk:authorId,rel:has-one"`
	Taxonomies []Taxonomy `pg:"many2many:post_taxonomies"`
}

type Taxonomy struct {
	tableName struct{} `pg:"taxonomies,alias:t,discard_unknown_columns"`

	ID          int    `pg:"taxonomyId,pk"`
	Type        string `pg:"type,use_zero"`
	Name        string `pg:"name,use_zero"`
	Slug        string `pg:"slug,use_zero"`
	Description string `pg:"description,use_zero"`
	PostCount   int    `pg:"postCount,use_zero"`
}

type PostTaxonomy struct {
	tableName struct{} `pg:"post_taxonomies,alias:t"`

	PostID     int `pg:"postId,pk"`
	TaxonomyID int `pg:"taxonomyId,pk"`

	Post     *Post     `pg:"fk:postId,rel:has-one"`
	Taxonomy *Taxonomy `pg:"fk:taxonomyId,rel:has-one"`
}

type Author struct {
	tableName struct{} `pg:"authors,alias:t,discard_unknown_columns"`

	ID     int    `pg:"authorId,pk"`
	Name   string `pg:"name,use_zero"`
	Avatar string `pg:"avatar,use_zero"`
	Role   string `pg:"role,use_zero"`
}

type Setting struct {
	tableName struct{} `pg:"settings,alias:t,discard_unknown_columns"`

	Name  string `pg:"name,pk"`
	Value string `pg:"value,use_zero"`
}

// PostCriteria is the assembled filter set for a post read. Each field is
// one named criteria fragment; a nil field means no constraint on that
// dimension, not an empty result.
type PostCriteria struct {
	ID       *int
	Slug     *string
	IDs      []int // non-nil restricts to this id set; empty matches nothing
	TagSlug  *string
	AuthorID *int
	Status   *string
	Type     *string
	Featured *bool
	Search   *string

	OrderBy  string // whitelisted column, defaults to publishedAt
	SortDesc bool

	Limit  int // 0 means no limit
	Offset int
}

// PostPatch is the assembled payload for a single post update. Nil fields
// are left untouched; each field is written by exactly one mutation stage.
type PostPatch struct {
	Title            *string
	Slug             *string
	Featured         *bool
	Status           *string
	PublishedAt      *time.Time
	CoverImage       *string
	CoverImageWidth  *int
	CoverImageHeight *int
	ReadingTime      *string
	Md               *string
	MdDraft          *string
	HTML             *string
	Excerpt          *string
}
