package blogportal

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]+`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// makeSlug derives a URL slug from a title: diacritics folded to ASCII,
// lowercased, non-alphanumerics collapsed to single hyphens.
func makeSlug(title string) string {
	folded, _, err := transform.String(transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	), title)
	if err != nil {
		folded = title
	}

	slug := strings.ToLower(folded)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugInvalid.ReplaceAllString(slug, "")
	slug = slugDashes.ReplaceAllString(slug, "-")

	return strings.Trim(slug, "-")
}

// wordsPerMinute is the fixed reading speed used for reading time.
const wordsPerMinute = 275

// readingTimeFor formats the reading time of a body with the given word
// count.
func readingTimeFor(words int) string {
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}

	return fmt.Sprintf("%d min read", minutes)
}
