package rest

import (
	"github.com/labstack/echo/v4"
)

const apiV1Prefix = "/api/v1"

// RegisterRoutes mounts the public read endpoints on an echo instance.
func (h *PostHandler) RegisterRoutes(e *echo.Echo) {
	v1 := e.Group(apiV1Prefix)

	v1.GET("/posts", h.Posts)
	v1.GET("/post", h.Post)
	v1.GET("/search", h.Search)
	v1.GET("/adjacent", h.Adjacent)
	v1.GET("/tags", h.Tags)
	v1.GET("/categories", h.Categories)
	v1.GET("/menu", h.Menu)

	e.GET("/health", h.Health)
}
