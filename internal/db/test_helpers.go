package db

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/jackc/pgx"
	"github.com/jackc/pgx/stdlib"
	"github.com/pressly/goose/v3"
)

const (
	// TestDBEnv names the environment variable holding the test database
	// URL. Integration tests are skipped when it is not set.
	TestDBEnv = "BLOG_PORTAL_TEST_DB"
	// MigrationsDir is the directory containing migrations, relative to
	// the package directory of the tests that run them.
	MigrationsDir = "migrations"
)

var (
	// BaseTime is the base time used for test data
	BaseTime = time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)
)

// ResetPublicSchema drops and recreates the public schema
func ResetPublicSchema(ctx context.Context, database *pg.DB) error {
	_, err := database.ExecContext(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`)
	if err != nil {
		return fmt.Errorf("reset public schema: %w", err)
	}
	return nil
}

// RunMigrations runs database migrations from the migrations directory
func RunMigrations(ctx context.Context, databaseURL, migrationsDir string) error {
	config, err := pgx.ParseConnectionString(databaseURL)
	if err != nil {
		return fmt.Errorf("parse connection string: %w", err)
	}

	sqldb := stdlib.OpenDB(config)
	defer sqldb.Close()

	if err := sqldb.PingContext(ctx); err != nil {
		return fmt.Errorf("ping test db: %w", err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.sql"))
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)
	if len(files) == 0 {
		return fmt.Errorf("no migration files found in %s", migrationsDir)
	}

	if err := goose.UpContext(ctx, sqldb, migrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}

// LoadTestData loads a small fixed corpus of authors, posts and taxonomies.
func LoadTestData(ctx context.Context, database *pg.DB) error {
	_, err := database.ExecContext(ctx, `
		TRUNCATE TABLE "post_taxonomies", "taxonomies", "posts", "authors", "settings" RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}

	authors := []Author{
		{Name: "Ada Wong", Avatar: "/uploads/ada.png", Role: RoleAdmin},
		{Name: "Boris Reviewer", Avatar: "", Role: RoleReviewer},
	}
	for i := range authors {
		if _, err := database.ModelContext(ctx, &authors[i]).Insert(); err != nil {
			return fmt.Errorf("insert author %q: %w", authors[i].Name, err)
		}
	}

	publish := func(d time.Duration) *time.Time {
		t := BaseTime.Add(d)
		return &t
	}

	posts := []Post{
		{
			Type: TypePost, Status: StatusPublish, Title: "Hello World",
			Slug: "hello-world", Md: "# Hello", HTML: "<h1>Hello</h1>",
			Excerpt: "First post", AuthorID: 1,
			CreatedAt: BaseTime, UpdatedAt: BaseTime, PublishedAt: publish(time.Hour),
		},
		{
			Type: TypePost, Status: StatusPublish, Title: "Second Post",
			Slug: "second-post", Md: "Second", HTML: "<p>Second</p>",
			Excerpt: "Second post", AuthorID: 1, Featured: true,
			CreatedAt: BaseTime, UpdatedAt: BaseTime, PublishedAt: publish(2 * time.Hour),
		},
		{
			Type: TypePost, Status: StatusPublish, Title: "Third Post",
			Slug: "third-post", Md: "Third", HTML: "<p>Third</p>",
			Excerpt: "Third post", AuthorID: 2,
			CreatedAt: BaseTime, UpdatedAt: BaseTime, PublishedAt: publish(3 * time.Hour),
		},
		{
			Type: TypePost, Status: StatusDraft, Title: "Unfinished",
			Slug: "unfinished", Md: "WIP", HTML: "<p>WIP</p>",
			AuthorID: 1, CreatedAt: BaseTime, UpdatedAt: BaseTime,
		},
		{
			Type: TypePage, Status: StatusPublish, Title: "About",
			Slug: "about", Md: "About us", HTML: "<p>About us</p>",
			AuthorID: 1, CreatedAt: BaseTime, UpdatedAt: BaseTime, PublishedAt: publish(time.Hour),
		},
	}
	for i := range posts {
		if _, err := database.ModelContext(ctx, &posts[i]).Insert(); err != nil {
			return fmt.Errorf("insert post %q: %w", posts[i].Title, err)
		}
	}

	taxonomies := []Taxonomy{
		{Type: TaxonomyTag, Name: "go", Slug: "go", PostCount: 2},
		{Type: TaxonomyTag, Name: "release", Slug: "release", PostCount: 1},
		{Type: TaxonomyCategory, Name: "Engineering", Slug: "engineering", PostCount: 1},
	}
	for i := range taxonomies {
		if _, err := database.ModelContext(ctx, &taxonomies[i]).Insert(); err != nil {
			return fmt.Errorf("insert taxonomy %q: %w", taxonomies[i].Name, err)
		}
	}

	links := []PostTaxonomy{
		{PostID: 1, TaxonomyID: 1},
		{PostID: 2, TaxonomyID: 1},
		{PostID: 2, TaxonomyID: 2},
		{PostID: 3, TaxonomyID: 3},
	}
	for i := range links {
		if _, err := database.ModelContext(ctx, &links[i]).Insert(); err != nil {
			return fmt.Errorf("insert post taxonomy link: %w", err)
		}
	}

	menu := `[{"id":1,"title":"Hello World","type":"post","postId":1},{"id":2,"title":"About","type":"page","postId":5}]`
	if _, err := database.ModelContext(ctx, &Setting{Name: "menu", Value: menu}).Insert(); err != nil {
		return fmt.Errorf("insert menu setting: %w", err)
	}

	return nil
}
