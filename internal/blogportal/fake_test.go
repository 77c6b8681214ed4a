package blogportal

import (
	"context"
	"sort"

	"github.com/avolkov/blog-portal/internal/db"
	"github.com/avolkov/blog-portal/internal/images"
)

// fakeStore is an in-memory Store recording every call, so tests can
// assert both results and which storage operations a pipeline performed.
type fakeStore struct {
	posts      map[int]*db.Post
	taxonomies []db.Taxonomy
	links      map[int][]int // postID -> taxonomy ids
	settings   map[string]string
	authors    map[int]*db.Author

	nextPostID int
	nextTaxID  int

	calls        []string
	lastCriteria db.PostCriteria
	lastPatch    db.PostPatch

	failWith error // returned by every method when set
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		posts:      map[int]*db.Post{},
		links:      map[int][]int{},
		settings:   map[string]string{},
		authors:    map[int]*db.Author{},
		nextPostID: 1,
		nextTaxID:  1,
	}
}

func (f *fakeStore) record(name string) { f.calls = append(f.calls, name) }

func (f *fakeStore) callCount(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeStore) addPost(post db.Post) *db.Post {
	if post.ID == 0 {
		post.ID = f.nextPostID
	}
	if post.ID >= f.nextPostID {
		f.nextPostID = post.ID + 1
	}
	f.posts[post.ID] = &post
	return &post
}

func (f *fakeStore) matches(post *db.Post, cr db.PostCriteria) bool {
	if cr.ID != nil && post.ID != *cr.ID {
		return false
	}
	if cr.Slug != nil && post.Slug != *cr.Slug {
		return false
	}
	if cr.Status != nil && post.Status != *cr.Status {
		return false
	}
	if cr.Type != nil && post.Type != *cr.Type {
		return false
	}
	if cr.Featured != nil && post.Featured != *cr.Featured {
		return false
	}
	return true
}

func (f *fakeStore) sortedIDs() []int {
	ids := make([]int, 0, len(f.posts))
	for id := range f.posts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (f *fakeStore) Posts(ctx context.Context, cr db.PostCriteria) ([]db.Post, int, error) {
	f.record("Posts")
	f.lastCriteria = cr
	if f.failWith != nil {
		return nil, 0, f.failWith
	}

	if cr.IDs != nil && len(cr.IDs) == 0 {
		return []db.Post{}, 0, nil
	}

	var rows []db.Post
	for _, id := range f.sortedIDs() {
		post := f.posts[id]
		if cr.IDs != nil {
			found := false
			for _, want := range cr.IDs {
				if want == id {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		if f.matches(post, cr) {
			rows = append(rows, *post)
		}
	}

	count := len(rows)
	if cr.Offset > 0 {
		if cr.Offset >= len(rows) {
			rows = nil
		} else {
			rows = rows[cr.Offset:]
		}
	}
	if cr.Limit > 0 && len(rows) > cr.Limit {
		rows = rows[:cr.Limit]
	}

	return rows, count, nil
}

func (f *fakeStore) PostOne(ctx context.Context, cr db.PostCriteria) (*db.Post, error) {
	f.record("PostOne")
	f.lastCriteria = cr
	if f.failWith != nil {
		return nil, f.failWith
	}

	for _, id := range f.sortedIDs() {
		if f.matches(f.posts[id], cr) {
			post := *f.posts[id]
			return &post, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) PostByID(ctx context.Context, postID int) (*db.Post, error) {
	f.record("PostByID")
	if f.failWith != nil {
		return nil, f.failWith
	}

	stored, ok := f.posts[postID]
	if !ok {
		return nil, nil
	}
	post := *stored
	return &post, nil
}

func (f *fakeStore) PreviousPost(ctx context.Context, cr db.PostCriteria, anchorID int) (*db.Post, error) {
	f.record("PreviousPost")
	if f.failWith != nil {
		return nil, f.failWith
	}

	var previous *db.Post
	for _, id := range f.sortedIDs() {
		if id >= anchorID || !f.matches(f.posts[id], cr) {
			continue
		}
		previous = f.posts[id]
	}
	if previous == nil {
		return nil, nil
	}
	post := *previous
	return &post, nil
}

func (f *fakeStore) NextPost(ctx context.Context, cr db.PostCriteria, anchorID int) (*db.Post, error) {
	f.record("NextPost")
	if f.failWith != nil {
		return nil, f.failWith
	}

	for _, id := range f.sortedIDs() {
		if id <= anchorID || !f.matches(f.posts[id], cr) {
			continue
		}
		post := *f.posts[id]
		return &post, nil
	}
	return nil, nil
}

func (f *fakeStore) SearchCandidates(ctx context.Context) ([]db.Post, error) {
	f.record("SearchCandidates")
	if f.failWith != nil {
		return nil, f.failWith
	}

	var rows []db.Post
	for _, id := range f.sortedIDs() {
		post := f.posts[id]
		if post.Status == db.StatusPublish && post.Type == db.TypePost {
			rows = append(rows, *post)
		}
	}
	return rows, nil
}

func (f *fakeStore) CountPosts(ctx context.Context, cr db.PostCriteria) (int, error) {
	f.record("CountPosts")
	if f.failWith != nil {
		return 0, f.failWith
	}

	count := 0
	for _, post := range f.posts {
		if f.matches(post, cr) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) SlugExists(ctx context.Context, slug, postType string, excludeID int) (bool, error) {
	f.record("SlugExists")
	if f.failWith != nil {
		return false, f.failWith
	}

	for _, post := range f.posts {
		if post.Slug == slug && post.Type == postType && post.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreatePost(ctx context.Context, post *db.Post) error {
	f.record("CreatePost")
	if f.failWith != nil {
		return f.failWith
	}

	post.ID = f.nextPostID
	f.nextPostID++
	stored := *post
	f.posts[post.ID] = &stored
	return nil
}

func (f *fakeStore) UpdatePost(ctx context.Context, postID int, patch db.PostPatch) (*db.Post, error) {
	f.record("UpdatePost")
	f.lastPatch = patch
	if f.failWith != nil {
		return nil, f.failWith
	}

	stored, ok := f.posts[postID]
	if !ok {
		return nil, nil
	}

	applyPatch(stored, patch)
	post := *stored
	return &post, nil
}

func (f *fakeStore) DeletePost(ctx context.Context, postID int) error {
	f.record("DeletePost")
	if f.failWith != nil {
		return f.failWith
	}

	for _, taxID := range f.links[postID] {
		for i := range f.taxonomies {
			if f.taxonomies[i].ID == taxID && f.taxonomies[i].PostCount > 0 {
				f.taxonomies[i].PostCount--
			}
		}
	}
	delete(f.posts, postID)
	delete(f.links, postID)
	return nil
}

func (f *fakeStore) Taxonomies(ctx context.Context, taxonomyType string) ([]db.Taxonomy, error) {
	f.record("Taxonomies")
	if f.failWith != nil {
		return nil, f.failWith
	}

	var rows []db.Taxonomy
	for _, tx := range f.taxonomies {
		if tx.Type == taxonomyType {
			rows = append(rows, tx)
		}
	}
	return rows, nil
}

func (f *fakeStore) TaxonomiesByPost(ctx context.Context, postID int) ([]db.Taxonomy, error) {
	f.record("TaxonomiesByPost")
	if f.failWith != nil {
		return nil, f.failWith
	}

	var rows []db.Taxonomy
	for _, taxID := range f.links[postID] {
		for _, tx := range f.taxonomies {
			if tx.ID == taxID {
				rows = append(rows, tx)
			}
		}
	}
	return rows, nil
}

func (f *fakeStore) EnsureTaxonomy(ctx context.Context, taxonomyType, name, slug string) (*db.Taxonomy, error) {
	f.record("EnsureTaxonomy")
	if f.failWith != nil {
		return nil, f.failWith
	}

	for i := range f.taxonomies {
		if f.taxonomies[i].Type == taxonomyType && f.taxonomies[i].Name == name {
			tx := f.taxonomies[i]
			return &tx, nil
		}
	}

	tx := db.Taxonomy{ID: f.nextTaxID, Type: taxonomyType, Name: name, Slug: slug}
	f.nextTaxID++
	f.taxonomies = append(f.taxonomies, tx)
	return &tx, nil
}

func (f *fakeStore) AddPostTaxonomy(ctx context.Context, postID, taxonomyID int) error {
	f.record("AddPostTaxonomy")
	if f.failWith != nil {
		return f.failWith
	}

	f.links[postID] = append(f.links[postID], taxonomyID)
	for i := range f.taxonomies {
		if f.taxonomies[i].ID == taxonomyID {
			f.taxonomies[i].PostCount++
		}
	}
	return nil
}

func (f *fakeStore) RemovePostTaxonomy(ctx context.Context, postID, taxonomyID int) error {
	f.record("RemovePostTaxonomy")
	if f.failWith != nil {
		return f.failWith
	}

	ids := f.links[postID]
	for i, id := range ids {
		if id == taxonomyID {
			f.links[postID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	for i := range f.taxonomies {
		if f.taxonomies[i].ID == taxonomyID {
			f.taxonomies[i].PostCount--
		}
	}
	return nil
}

func (f *fakeStore) AuthorByID(ctx context.Context, authorID int) (*db.Author, error) {
	f.record("AuthorByID")
	if f.failWith != nil {
		return nil, f.failWith
	}

	stored, ok := f.authors[authorID]
	if !ok {
		return nil, nil
	}
	author := *stored
	return &author, nil
}

func (f *fakeStore) Setting(ctx context.Context, name string) (*db.Setting, error) {
	f.record("Setting")
	if f.failWith != nil {
		return nil, f.failWith
	}

	value, ok := f.settings[name]
	if !ok {
		return nil, nil
	}
	return &db.Setting{Name: name, Value: value}, nil
}

func (f *fakeStore) UpdateSetting(ctx context.Context, name, value string) error {
	f.record("UpdateSetting")
	if f.failWith != nil {
		return f.failWith
	}

	f.settings[name] = value
	return nil
}

// fakeProber returns fixed dimensions, or an error when set.
type fakeProber struct {
	dims images.Dimensions
	err  error

	probed []string
}

func (f *fakeProber) Probe(ctx context.Context, url string) (images.Dimensions, error) {
	f.probed = append(f.probed, url)
	if f.err != nil {
		return images.Dimensions{}, f.err
	}
	return f.dims, nil
}
