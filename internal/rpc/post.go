package rpc

import (
	"context"
	"net/http"
	"strconv"

	"github.com/vmkteam/zenrpc/v2"

	"github.com/avolkov/blog-portal/internal/blogportal"
	"github.com/avolkov/blog-portal/internal/resolver"
)

//go:generate zenrpc

const authorHeader = "X-Author-ID"

// PostService exposes the full content-management surface over JSON-RPC.
// The caller identity comes from the X-Author-ID header; requests without
// it run as an anonymous reader.
type PostService struct {
	zenrpc.Service
	manager *blogportal.Manager
}

func NewPostService(manager *blogportal.Manager) *PostService {
	return &PostService{manager: manager}
}

func (s *PostService) caller(ctx context.Context) (blogportal.Caller, error) {
	req, ok := zenrpc.RequestFromContext(ctx)
	if !ok || req == nil {
		return blogportal.Anonymous, nil
	}

	header := req.Header.Get(authorHeader)
	if header == "" {
		return blogportal.Anonymous, nil
	}

	authorID, err := strconv.Atoi(header)
	if err != nil {
		return blogportal.Caller{}, zenrpc.NewStringError(http.StatusBadRequest, "invalid author id")
	}

	author, err := s.manager.Author(ctx, authorID)
	if err != nil {
		return blogportal.Caller{}, rpcError(err)
	}
	if author == nil {
		return blogportal.Caller{}, zenrpc.NewStringError(http.StatusForbidden, "unknown author")
	}

	return blogportal.Caller{ID: author.ID, Role: author.Role}, nil
}

// rpcError converts domain failures into JSON-RPC errors with HTTP-like
// codes. Unclassified errors pass through for the server's generic 500.
func rpcError(err error) error {
	switch resolver.KindOf(err) {
	case resolver.KindAuthorization:
		return zenrpc.NewStringError(http.StatusForbidden, err.Error())
	case resolver.KindValidation:
		return zenrpc.NewStringError(http.StatusBadRequest, err.Error())
	case resolver.KindNotFound:
		return zenrpc.NewStringError(http.StatusNotFound, err.Error())
	}

	return err
}

// List retrieves one page of posts matching the filters.
//
//zenrpc:filter optional list filters
//zenrpc:return page of post rows plus total count
//zenrpc:500 internal server error
func (s *PostService) List(ctx context.Context, filter blogportal.PostFilters) (blogportal.PostPage, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return blogportal.PostPage{}, err
	}

	page, err := s.manager.ListPosts(ctx, caller, filter)
	if err != nil {
		return blogportal.PostPage{}, rpcError(err)
	}

	return page, nil
}

// Get retrieves a single post by id, slug or preview token.
//
//zenrpc:filter identity filters
//zenrpc:return the post, or null when absent
//zenrpc:500 internal server error
func (s *PostService) Get(ctx context.Context, filter blogportal.PostFilters) (*blogportal.Post, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	post, err := s.manager.GetPost(ctx, caller, filter)
	if err != nil {
		return nil, rpcError(err)
	}

	return post, nil
}

// Search ranks published posts against a free-text query.
//
//zenrpc:query free-text query
//zenrpc:return up to six ranked rows without body text
//zenrpc:500 internal server error
func (s *PostService) Search(ctx context.Context, query string) (blogportal.PostPage, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return blogportal.PostPage{}, err
	}

	page, err := s.manager.SearchPosts(ctx, caller, query)
	if err != nil {
		return blogportal.PostPage{}, rpcError(err)
	}

	return page, nil
}

// Adjacent returns the published neighbours of a post.
//
//zenrpc:slug slug of the anchor post
//zenrpc:return previous and next post, either may be null
//zenrpc:404 anchor post not found
//zenrpc:500 internal server error
func (s *PostService) Adjacent(ctx context.Context, slug string) (blogportal.Adjacent, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return blogportal.Adjacent{}, err
	}

	adjacent, err := s.manager.AdjacentPosts(ctx, caller, slug)
	if err != nil {
		return blogportal.Adjacent{}, rpcError(err)
	}

	return adjacent, nil
}

// Create creates a post and returns it in normalized form.
//
//zenrpc:input post payload, title is required
//zenrpc:return the created post
//zenrpc:400 invalid payload
//zenrpc:403 caller is not an editor
//zenrpc:500 internal server error
func (s *PostService) Create(ctx context.Context, input blogportal.PostInput) (*blogportal.Post, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	post, err := s.manager.CreatePost(ctx, caller, input)
	if err != nil {
		return nil, rpcError(err)
	}

	return post, nil
}

// Update applies a partial payload to an existing post.
//
//zenrpc:id post id
//zenrpc:input changed fields, nil fields stay untouched
//zenrpc:return the updated post
//zenrpc:400 invalid payload
//zenrpc:403 caller is not an editor
//zenrpc:404 post not found
//zenrpc:500 internal server error
func (s *PostService) Update(ctx context.Context, id int, input blogportal.PostInput) (*blogportal.Post, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	post, err := s.manager.UpdatePost(ctx, caller, id, input)
	if err != nil {
		return nil, rpcError(err)
	}

	return post, nil
}

// Delete trashes posts, or removes already-trashed ones permanently.
//
//zenrpc:ids post ids
//zenrpc:return true on success
//zenrpc:403 caller is not an editor
//zenrpc:404 a post does not exist
//zenrpc:500 internal server error
func (s *PostService) Delete(ctx context.Context, ids []int) (bool, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return false, err
	}

	if err := s.manager.DeletePosts(ctx, caller, ids); err != nil {
		return false, rpcError(err)
	}

	return true, nil
}

// Taxonomies lists all tags or categories.
//
//zenrpc:taxonomyType post_tag or post_category
//zenrpc:return list of taxonomies
//zenrpc:400 unknown taxonomy type
//zenrpc:500 internal server error
func (s *PostService) Taxonomies(ctx context.Context, taxonomyType string) ([]blogportal.Taxonomy, error) {
	taxonomies, err := s.manager.Taxonomies(ctx, taxonomyType)
	if err != nil {
		return nil, rpcError(err)
	}

	return taxonomies, nil
}

// PreviewToken issues a share token for an unpublished revision.
//
//zenrpc:id post id
//zenrpc:return the preview token
//zenrpc:403 caller is not an editor
//zenrpc:404 post not found
//zenrpc:500 internal server error
func (s *PostService) PreviewToken(ctx context.Context, id int) (string, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return "", err
	}

	token, err := s.manager.PreviewToken(ctx, caller, id)
	if err != nil {
		return "", rpcError(err)
	}

	return token, nil
}

// Stats aggregates per-status post and page counts for the dashboard.
//
//zenrpc:return dashboard counters
//zenrpc:403 caller is not an editor
//zenrpc:500 internal server error
func (s *PostService) Stats(ctx context.Context) (*blogportal.Stats, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := s.manager.Stats(ctx, caller)
	if err != nil {
		return nil, rpcError(err)
	}

	return stats, nil
}
