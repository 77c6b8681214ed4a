package rest

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avolkov/blog-portal/internal/blogportal"
	"github.com/avolkov/blog-portal/internal/db"
	"github.com/avolkov/blog-portal/internal/resolver"
)

// PostsRequest carries the query parameters of the post listing endpoint.
type PostsRequest struct {
	Tag          *string `query:"tag"`
	Author       *int    `query:"author"`
	Type         *string `query:"type"`
	Featured     *bool   `query:"featured"`
	Menu         *string `query:"menu"`
	Page         *int    `query:"page"`
	Limit        *int    `query:"limit"`
	OrderBy      *string `query:"orderBy"`
	SortOrder    *string `query:"sortOrder"`
	PreviewToken *string `query:"previewToken"`
}

type PostRequest struct {
	ID           *int    `query:"id"`
	Slug         *string `query:"slug"`
	PreviewToken *string `query:"previewToken"`
}

type SearchRequest struct {
	Query string `query:"query"`
}

type AdjacentRequest struct {
	Slug string `query:"slug"`
}

// PostHandler serves the public read surface. Mutations are not exposed
// here; they go through the RPC API.
type PostHandler struct {
	manager *blogportal.Manager
	log     *slog.Logger
}

func NewPostHandler(manager *blogportal.Manager, log *slog.Logger) *PostHandler {
	return &PostHandler{
		manager: manager,
		log:     log,
	}
}

// handleError maps the error taxonomy onto HTTP statuses. Only validation
// messages are caller-safe; everything else gets a generic body.
func (h *PostHandler) handleError(c echo.Context, err error) error {
	status, message := http.StatusInternalServerError, "internal error"

	switch resolver.KindOf(err) {
	case resolver.KindAuthorization:
		status, message = http.StatusForbidden, "forbidden"
	case resolver.KindValidation:
		status, message = http.StatusBadRequest, err.Error()
	case resolver.KindNotFound:
		status, message = http.StatusNotFound, err.Error()
	}

	h.log.Error("request failed",
		"path", c.Path(),
		"status", status,
		"error", err,
	)

	return c.JSON(status, map[string]string{"error": message})
}

// Posts handles GET /api/v1/posts.
func (h *PostHandler) Posts(c echo.Context) error {
	var req PostsRequest
	if err := c.Bind(&req); err != nil {
		return h.handleError(c, resolver.ValidationError("invalid request parameters"))
	}

	page, err := h.manager.ListPosts(c.Request().Context(), blogportal.Anonymous, blogportal.PostFilters{
		Tag:          req.Tag,
		Author:       req.Author,
		Type:         req.Type,
		Featured:     req.Featured,
		Menu:         req.Menu,
		Page:         req.Page,
		Limit:        req.Limit,
		OrderBy:      req.OrderBy,
		SortOrder:    req.SortOrder,
		PreviewToken: req.PreviewToken,
	})
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(http.StatusOK, page)
}

// Post handles GET /api/v1/post. Lookup is by slug, id or preview token.
func (h *PostHandler) Post(c echo.Context) error {
	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return h.handleError(c, resolver.ValidationError("invalid request parameters"))
	}

	if req.ID == nil && req.Slug == nil && req.PreviewToken == nil {
		return h.handleError(c, resolver.ValidationError("id, slug or previewToken is required"))
	}

	post, err := h.manager.GetPost(c.Request().Context(), blogportal.Anonymous, blogportal.PostFilters{
		ID:           req.ID,
		Slug:         req.Slug,
		PreviewToken: req.PreviewToken,
	})
	if err != nil {
		return h.handleError(c, err)
	}
	if post == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "post not found"})
	}

	return c.JSON(http.StatusOK, post)
}

// Search handles GET /api/v1/search.
func (h *PostHandler) Search(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return h.handleError(c, resolver.ValidationError("invalid request parameters"))
	}

	page, err := h.manager.SearchPosts(c.Request().Context(), blogportal.Anonymous, req.Query)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(http.StatusOK, page)
}

// Adjacent handles GET /api/v1/adjacent.
func (h *PostHandler) Adjacent(c echo.Context) error {
	var req AdjacentRequest
	if err := c.Bind(&req); err != nil || req.Slug == "" {
		return h.handleError(c, resolver.ValidationError("slug is required"))
	}

	adjacent, err := h.manager.AdjacentPosts(c.Request().Context(), blogportal.Anonymous, req.Slug)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(http.StatusOK, adjacent)
}

// Tags handles GET /api/v1/tags.
func (h *PostHandler) Tags(c echo.Context) error {
	return h.taxonomies(c, db.TaxonomyTag)
}

// Categories handles GET /api/v1/categories.
func (h *PostHandler) Categories(c echo.Context) error {
	return h.taxonomies(c, db.TaxonomyCategory)
}

func (h *PostHandler) taxonomies(c echo.Context, taxonomyType string) error {
	taxonomies, err := h.manager.Taxonomies(c.Request().Context(), taxonomyType)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(http.StatusOK, taxonomies)
}

// Menu handles GET /api/v1/menu.
func (h *PostHandler) Menu(c echo.Context) error {
	menu, err := h.manager.Menu(c.Request().Context())
	if err != nil {
		return h.handleError(c, err)
	}
	if menu == nil {
		menu = []blogportal.MenuItem{}
	}

	return c.JSON(http.StatusOK, menu)
}

func (h *PostHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
