package db

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/go-pg/pg/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDB *pg.DB

func TestMain(m *testing.M) {
	databaseURL := os.Getenv(TestDBEnv)
	if databaseURL == "" {
		// No database available; every test skips via withTx.
		os.Exit(m.Run())
	}

	ctx := context.Background()

	opt, err := pg.ParseURL(databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse database URL: %v\n", err)
		os.Exit(1)
	}

	testDB = pg.Connect(opt)

	if err := testDB.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to test database: %v\n", err)
		_ = testDB.Close()
		os.Exit(1)
	}

	if err := ResetPublicSchema(ctx, testDB); err != nil {
		fmt.Fprintf(os.Stderr, "failed to reset schema: %v\n", err)
		_ = testDB.Close()
		os.Exit(1)
	}

	if err := RunMigrations(ctx, databaseURL, MigrationsDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = testDB.Close()
		os.Exit(1)
	}

	if err := LoadTestData(ctx, testDB); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load test data: %v\n", err)
		_ = testDB.Close()
		os.Exit(1)
	}

	code := m.Run()

	if err := testDB.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close database connection: %v\n", err)
	}

	os.Exit(code)
}

func withTx(t *testing.T) (context.Context, *Repository) {
	t.Helper()

	if testDB == nil {
		t.Skipf("set %s to run database tests", TestDBEnv)
	}

	tx, err := testDB.Begin()
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := tx.Rollback(); err != nil {
			t.Errorf("failed to rollback transaction: %v", err)
		}
	})

	return context.Background(), New(tx)
}

func statusPtr(s string) *string { return &s }

func publishedPostCriteria() PostCriteria {
	postType := TypePost
	return PostCriteria{Status: statusPtr(StatusPublish), Type: &postType}
}

func TestRepository_Posts_Integration(t *testing.T) {
	ctx, repo := withTx(t)

	t.Run("PublishedPostsOnly", func(t *testing.T) {
		posts, count, err := repo.Posts(ctx, publishedPostCriteria())
		require.NoError(t, err)

		assert.Equal(t, 3, count)
		for _, post := range posts {
			assert.Equal(t, StatusPublish, post.Status)
			assert.Equal(t, TypePost, post.Type)
			require.NotNil(t, post.Author)
		}
	})

	t.Run("TagFilter", func(t *testing.T) {
		cr := publishedPostCriteria()
		tag := "go"
		cr.TagSlug = &tag

		posts, count, err := repo.Posts(ctx, cr)
		require.NoError(t, err)
		require.Equal(t, 2, count)

		ids := []int{posts[0].ID, posts[1].ID}
		assert.ElementsMatch(t, []int{1, 2}, ids)
	})

	t.Run("FeaturedFilter", func(t *testing.T) {
		cr := publishedPostCriteria()
		featured := true
		cr.Featured = &featured

		posts, count, err := repo.Posts(ctx, cr)
		require.NoError(t, err)
		require.Equal(t, 1, count)
		assert.Equal(t, 2, posts[0].ID)
	})

	t.Run("PaginationKeepsTotalCount", func(t *testing.T) {
		cr := publishedPostCriteria()
		cr.Limit = 1
		cr.OrderBy = "id"

		posts, count, err := repo.Posts(ctx, cr)
		require.NoError(t, err)

		assert.Equal(t, 3, count)
		assert.Len(t, posts, 1)
	})

	t.Run("EmptyIDSetMatchesNothing", func(t *testing.T) {
		posts, count, err := repo.Posts(ctx, PostCriteria{IDs: []int{}})
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Empty(t, posts)
	})

	t.Run("SortDescendingByID", func(t *testing.T) {
		cr := publishedPostCriteria()
		cr.OrderBy = "id"
		cr.SortDesc = true

		posts, _, err := repo.Posts(ctx, cr)
		require.NoError(t, err)
		require.Len(t, posts, 3)
		assert.Equal(t, 3, posts[0].ID)
		assert.Equal(t, 1, posts[2].ID)
	})
}

func TestRepository_PostOne_Integration(t *testing.T) {
	ctx, repo := withTx(t)

	t.Run("BySlug", func(t *testing.T) {
		slug := "hello-world"
		post, err := repo.PostOne(ctx, PostCriteria{Slug: &slug})
		require.NoError(t, err)
		require.NotNil(t, post)
		assert.Equal(t, 1, post.ID)
	})

	t.Run("AbsentIsNilWithoutError", func(t *testing.T) {
		slug := "missing"
		post, err := repo.PostOne(ctx, PostCriteria{Slug: &slug})
		require.NoError(t, err)
		assert.Nil(t, post)
	})
}

func TestRepository_Adjacency_Integration(t *testing.T) {
	ctx, repo := withTx(t)
	cr := publishedPostCriteria()

	t.Run("MiddleAnchor", func(t *testing.T) {
		previous, err := repo.PreviousPost(ctx, cr, 2)
		require.NoError(t, err)
		require.NotNil(t, previous)
		assert.Equal(t, 1, previous.ID)

		next, err := repo.NextPost(ctx, cr, 2)
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, 3, next.ID)
	})

	t.Run("EdgesHaveNilNeighbours", func(t *testing.T) {
		previous, err := repo.PreviousPost(ctx, cr, 1)
		require.NoError(t, err)
		assert.Nil(t, previous)

		next, err := repo.NextPost(ctx, cr, 3)
		require.NoError(t, err)
		assert.Nil(t, next)
	})
}

func TestRepository_SearchCandidates_Integration(t *testing.T) {
	ctx, repo := withTx(t)

	posts, err := repo.SearchCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)

	for _, post := range posts {
		assert.Equal(t, StatusPublish, post.Status)
		assert.Empty(t, post.Md, "search candidates must not load the source body")
		assert.NotEmpty(t, post.HTML)
	}
}

func TestRepository_SlugExists_Integration(t *testing.T) {
	ctx, repo := withTx(t)

	taken, err := repo.SlugExists(ctx, "hello-world", TypePost, 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.SlugExists(ctx, "hello-world", TypePost, 1)
	require.NoError(t, err)
	assert.False(t, taken, "a post must not collide with its own slug")

	taken, err = repo.SlugExists(ctx, "hello-world", TypePage, 0)
	require.NoError(t, err)
	assert.False(t, taken, "slugs are unique per type")
}

func TestRepository_CreateUpdateDelete_Integration(t *testing.T) {
	ctx, repo := withTx(t)

	post := &Post{
		Type: TypePost, Status: StatusDraft, Title: "Brand New",
		Slug: "brand-new", Md: "text", HTML: "<p>text</p>",
		AuthorID: 1, CreatedAt: BaseTime, UpdatedAt: BaseTime,
	}
	require.NoError(t, repo.CreatePost(ctx, post))
	require.NotZero(t, post.ID)

	t.Run("PatchTouchesOnlyItsColumns", func(t *testing.T) {
		title := "Renamed"
		updated, err := repo.UpdatePost(ctx, post.ID, PostPatch{Title: &title})
		require.NoError(t, err)
		require.NotNil(t, updated)

		assert.Equal(t, "Renamed", updated.Title)
		assert.Equal(t, "brand-new", updated.Slug)
		assert.Equal(t, "text", updated.Md)
	})

	t.Run("UpdateAbsentIsNil", func(t *testing.T) {
		title := "X"
		updated, err := repo.UpdatePost(ctx, 100500, PostPatch{Title: &title})
		require.NoError(t, err)
		assert.Nil(t, updated)
	})

	t.Run("DeleteRemovesPostAndLinksAndDropsCounts", func(t *testing.T) {
		require.NoError(t, repo.AddPostTaxonomy(ctx, post.ID, 1))

		require.NoError(t, repo.DeletePost(ctx, post.ID))

		gone, err := repo.PostByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)

		tags, err := repo.Taxonomies(ctx, TaxonomyTag)
		require.NoError(t, err)
		require.NotEmpty(t, tags)
		assert.Equal(t, "go", tags[0].Name)
		assert.Equal(t, 2, tags[0].PostCount)
	})
}

// Runs in its own transaction because the violation aborts it.
func TestRepository_DuplicateSlug_Integration(t *testing.T) {
	ctx, repo := withTx(t)

	dup := &Post{
		Type: TypePost, Status: StatusDraft, Title: "Dup",
		Slug: "hello-world", AuthorID: 1,
		CreatedAt: BaseTime, UpdatedAt: BaseTime,
	}
	err := repo.CreatePost(ctx, dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConstraint)
}

func TestRepository_Taxonomies_Integration(t *testing.T) {
	ctx, repo := withTx(t)

	t.Run("ByType", func(t *testing.T) {
		tags, err := repo.Taxonomies(ctx, TaxonomyTag)
		require.NoError(t, err)
		assert.Len(t, tags, 2)

		categories, err := repo.Taxonomies(ctx, TaxonomyCategory)
		require.NoError(t, err)
		assert.Len(t, categories, 1)
	})

	t.Run("ByPost", func(t *testing.T) {
		taxonomies, err := repo.TaxonomiesByPost(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, taxonomies, 2)
	})

	t.Run("EnsureIsIdempotent", func(t *testing.T) {
		first, err := repo.EnsureTaxonomy(ctx, TaxonomyTag, "go", "go")
		require.NoError(t, err)

		again, err := repo.EnsureTaxonomy(ctx, TaxonomyTag, "go", "go")
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)

		fresh, err := repo.EnsureTaxonomy(ctx, TaxonomyTag, "generics", "generics")
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, fresh.ID)
	})

	t.Run("AssociationMaintainsPostCount", func(t *testing.T) {
		tx, err := repo.EnsureTaxonomy(ctx, TaxonomyTag, "release", "release")
		require.NoError(t, err)
		before := tx.PostCount

		require.NoError(t, repo.AddPostTaxonomy(ctx, 3, tx.ID))
		after, err := repo.EnsureTaxonomy(ctx, TaxonomyTag, "release", "release")
		require.NoError(t, err)
		assert.Equal(t, before+1, after.PostCount)

		require.NoError(t, repo.RemovePostTaxonomy(ctx, 3, tx.ID))
		final, err := repo.EnsureTaxonomy(ctx, TaxonomyTag, "release", "release")
		require.NoError(t, err)
		assert.Equal(t, before, final.PostCount)
	})
}

func TestRepository_Settings_Integration(t *testing.T) {
	ctx, repo := withTx(t)

	t.Run("ReadSeededMenu", func(t *testing.T) {
		setting, err := repo.Setting(ctx, "menu")
		require.NoError(t, err)
		require.NotNil(t, setting)
		assert.Contains(t, setting.Value, "Hello World")
	})

	t.Run("AbsentSettingIsNil", func(t *testing.T) {
		setting, err := repo.Setting(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, setting)
	})

	t.Run("UpsertOverwrites", func(t *testing.T) {
		require.NoError(t, repo.UpdateSetting(ctx, "menu", `[]`))

		setting, err := repo.Setting(ctx, "menu")
		require.NoError(t, err)
		require.NotNil(t, setting)
		assert.Equal(t, `[]`, setting.Value)
	})
}

func TestRepository_CountPosts_Integration(t *testing.T) {
	ctx, repo := withTx(t)

	count, err := repo.CountPosts(ctx, publishedPostCriteria())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	pageType := TypePage
	count, err = repo.CountPosts(ctx, PostCriteria{Type: &pageType})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRepository_AuthorByID_Integration(t *testing.T) {
	ctx, repo := withTx(t)

	author, err := repo.AuthorByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, author)
	assert.Equal(t, "Ada Wong", author.Name)
	assert.Equal(t, RoleAdmin, author.Role)

	absent, err := repo.AuthorByID(ctx, 77)
	require.NoError(t, err)
	assert.Nil(t, absent)
}
