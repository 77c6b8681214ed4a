package blogportal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeSlug(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"Héllo, Wörld!", "hello-world"},
		{"  spaced   out  ", "spaced-out"},
		{"Already-Slugged", "already-slugged"},
		{"100% Go", "100-go"},
		{"---", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, makeSlug(tc.title), "title %q", tc.title)
	}
}

func TestReadingTimeFor(t *testing.T) {
	assert.Equal(t, "1 min read", readingTimeFor(0))
	assert.Equal(t, "1 min read", readingTimeFor(275))
	assert.Equal(t, "2 min read", readingTimeFor(276))
	assert.Equal(t, "4 min read", readingTimeFor(1000))
}
