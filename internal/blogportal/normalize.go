package blogportal

import (
	"strings"

	"github.com/avolkov/blog-portal/internal/db"
)

// dateFormat is the canonical human-readable form of post timestamps.
const dateFormat = "January 2, 2006"

// Normalizer reshapes raw stored records into their caller-facing form:
// relative asset paths become absolute against the configured host, the
// cover image becomes a nested object, the canonical slug gains its type
// prefix and timestamps are formatted. Applying it is a one-way trip; the
// raw db record is the only place the original fields survive.
type Normalizer struct {
	host string
}

func NewNormalizer(host string) Normalizer {
	return Normalizer{host: strings.TrimSuffix(host, "/")}
}

// Post normalizes a single raw record.
func (n Normalizer) Post(raw *db.Post) *Post {
	if raw == nil {
		return nil
	}

	post := &Post{
		ID:      raw.ID,
		Type:    raw.Type,
		Status:  raw.Status,
		Title:   raw.Title,
		Slug:    "/" + raw.Type + "/" + raw.Slug,
		Md:      raw.Md,
		HTML:    raw.HTML,
		Excerpt: raw.Excerpt,
		CoverImage: CoverImage{
			Src:    n.AbsoluteURL(raw.CoverImage),
			Width:  raw.CoverImageWidth,
			Height: raw.CoverImageHeight,
		},
		Featured:    raw.Featured,
		ReadingTime: raw.ReadingTime,
		AuthorID:    raw.AuthorID,
		CreatedAt:   raw.CreatedAt.Format(dateFormat),
		UpdatedAt:   raw.UpdatedAt.Format(dateFormat),
	}

	if raw.PublishedAt != nil {
		post.PublishedAt = raw.PublishedAt.Format(dateFormat)
	}

	if raw.Author != nil {
		post.Author = n.Author(raw.Author)
	}

	return post
}

// Summary normalizes a record for list rows: body fields are dropped to
// bound the response size.
func (n Normalizer) Summary(raw *db.Post) Post {
	post := n.Post(raw)
	post.Md = ""
	post.HTML = ""
	return *post
}

func (n Normalizer) Author(raw *db.Author) *Author {
	return &Author{
		ID:     raw.ID,
		Name:   raw.Name,
		Avatar: n.AbsoluteURL(raw.Avatar),
		Role:   raw.Role,
	}
}

// Taxonomy normalizes a taxonomy record; its slug gains a type prefix the
// way post slugs do.
func (n Normalizer) Taxonomy(raw *db.Taxonomy) Taxonomy {
	prefix := "/tag/"
	if raw.Type == db.TaxonomyCategory {
		prefix = "/category/"
	}

	return Taxonomy{
		ID:          raw.ID,
		Type:        raw.Type,
		Name:        raw.Name,
		Slug:        prefix + raw.Slug,
		Description: raw.Description,
		PostCount:   raw.PostCount,
	}
}

// AbsoluteURL rewrites a path-relative asset reference to an absolute URL.
// Already-absolute references pass through unchanged.
func (n Normalizer) AbsoluteURL(path string) string {
	if path == "" || !strings.HasPrefix(path, "/") {
		return path
	}

	return n.host + path
}
