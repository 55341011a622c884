package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hexblog/hexblog/internal/blog"
	"github.com/hexblog/hexblog/internal/web/components"
	"github.com/hexblog/hexblog/internal/web/pages"
)

func (h *Handler) Home(c *gin.Context) {
	page, err := h.blog.ListPublished(c.Request.Context(), pageParam(c))
	if err != nil {
		h.serverError(c, "failed to list posts", err)
		return
	}
	h.render(c, http.StatusOK, pages.Home(h.meta(c), page))
}

func (h *Handler) Post(c *gin.Context) {
	ctx := c.Request.Context()
	post, err := h.blog.GetPublishedBySlug(ctx, c.Param("slug"))
	if err != nil {
		if errors.Is(err, blog.ErrNotFound) {
			h.NotFound(c)
			return
		}
		h.serverError(c, "failed to get post", err)
		return
	}

	comments, err := h.blog.ListComments(ctx, post.ID)
	if err != nil {
		h.serverError(c, "failed to list comments", err)
		return
	}
	h.render(c, http.StatusOK, pages.Post(h.meta(c), post, comments))
}

func (h *Handler) AddComment(c *gin.Context) {
	user := CurrentUser(c)
	slug := c.Param("slug")

	_, err := h.blog.AddComment(c.Request.Context(), slug, user.ID, c.PostForm("content"))
	if err != nil {
		if errors.Is(err, blog.ErrNotFound) {
			h.NotFound(c)
			return
		}
		flashError(c, err)
	} else {
		AddFlash(c, components.FlashSuccess, "Comment posted!")
	}
	Redirect(c, "/post/"+slug)
}

func (h *Handler) DeleteComment(c *gin.Context) {
	user := CurrentUser(c)
	id, err := parseUintParam(c.Param("id"))
	if err != nil {
		h.NotFound(c)
		return
	}

	post, err := h.blog.DeleteComment(c.Request.Context(), id, user.ID)
	if err != nil {
		flashError(c, err)
		Redirect(c, backTo(c, "/"))
		return
	}

	AddFlash(c, components.FlashSuccess, "Comment deleted.")
	Redirect(c, "/post/"+post.Slug)
}

func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")
	page, err := h.blog.Search(c.Request.Context(), query, pageParam(c))
	if err != nil {
		h.serverError(c, "failed to search posts", err)
		return
	}
	h.render(c, http.StatusOK, pages.Search(h.meta(c), query, page))
}

func (h *Handler) About(c *gin.Context) {
	h.render(c, http.StatusOK, pages.About(h.meta(c)))
}

// backTo returns the local referer path, or fallback.
func backTo(c *gin.Context, fallback string) string {
	ref := c.Request.Referer()
	if ref == "" {
		return fallback
	}
	u, err := c.Request.URL.Parse(ref)
	if err != nil || u.Host != c.Request.Host {
		return fallback
	}
	return u.RequestURI()
}
