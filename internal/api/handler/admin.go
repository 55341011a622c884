package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/hexblog/hexblog/internal/auth"
	"github.com/hexblog/hexblog/internal/blog"
	"github.com/hexblog/hexblog/internal/database"
	"github.com/hexblog/hexblog/internal/web/components"
	"github.com/hexblog/hexblog/internal/web/pages"
)

func postInput(c *gin.Context) blog.PostInput {
	return blog.PostInput{
		Title:           c.PostForm("title"),
		Content:         c.PostForm("content"),
		Summary:         c.PostForm("summary"),
		MetaDescription: c.PostForm("meta_description"),
		Publish:         c.PostForm("publish") == "true",
		Featured:        c.PostForm("featured") == "true",
	}
}

func inputFromPost(p *database.Post) blog.PostInput {
	return blog.PostInput{
		Title:           p.Title,
		Content:         p.Content,
		Summary:         p.Summary,
		MetaDescription: p.MetaDescription,
		Publish:         p.IsPublished,
		Featured:        p.IsFeatured,
	}
}

func (h *Handler) AdminDashboard(c *gin.Context) {
	dashboard, err := h.blog.Dashboard(c.Request.Context())
	if err != nil {
		h.serverError(c, "failed to load dashboard", err)
		return
	}
	h.render(c, http.StatusOK, pages.AdminDashboard(h.meta(c), dashboard))
}

func (h *Handler) AdminPosts(c *gin.Context) {
	page, err := h.blog.ListPosts(c.Request.Context(), pageParam(c))
	if err != nil {
		h.serverError(c, "failed to list posts", err)
		return
	}
	h.render(c, http.StatusOK, pages.AdminPosts(h.meta(c), page))
}

func (h *Handler) NewPost(c *gin.Context) {
	h.render(c, http.StatusOK, pages.PostForm(h.meta(c), 0, blog.PostInput{}))
}

func (h *Handler) CreatePost(c *gin.Context) {
	user := CurrentUser(c)
	in := postInput(c)

	post, err := h.blog.CreatePost(c.Request.Context(), user.ID, in)
	if err != nil {
		flashError(c, err)
		h.render(c, http.StatusBadRequest, pages.PostForm(h.meta(c), 0, in))
		return
	}

	AddFlash(c, components.FlashSuccess, fmt.Sprintf("Post %q created.", post.Title))
	Redirect(c, "/admin/posts")
}

// adminPost loads the post named by the id parameter, rendering not found otherwise.
func (h *Handler) adminPost(c *gin.Context) (*database.Post, bool) {
	id, err := parseUintParam(c.Param("id"))
	if err != nil {
		h.NotFound(c)
		return nil, false
	}
	post, err := h.blog.GetPost(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, blog.ErrNotFound) {
			h.NotFound(c)
			return nil, false
		}
		h.serverError(c, "failed to get post", err)
		return nil, false
	}
	return post, true
}

func (h *Handler) EditPost(c *gin.Context) {
	post, ok := h.adminPost(c)
	if !ok {
		return
	}
	h.render(c, http.StatusOK, pages.PostForm(h.meta(c), post.ID, inputFromPost(post)))
}

func (h *Handler) UpdatePost(c *gin.Context) {
	post, ok := h.adminPost(c)
	if !ok {
		return
	}
	in := postInput(c)

	updated, err := h.blog.UpdatePost(c.Request.Context(), post.ID, in)
	if err != nil {
		flashError(c, err)
		h.render(c, http.StatusBadRequest, pages.PostForm(h.meta(c), post.ID, in))
		return
	}

	AddFlash(c, components.FlashSuccess, fmt.Sprintf("Post %q updated.", updated.Title))
	Redirect(c, "/admin/posts")
}

func (h *Handler) DeletePost(c *gin.Context) {
	id, err := parseUintParam(c.Param("id"))
	if err != nil {
		h.NotFound(c)
		return
	}
	if err := h.blog.DeletePost(c.Request.Context(), id); err != nil {
		flashError(c, err)
	} else {
		AddFlash(c, components.FlashSuccess, "Post deleted.")
	}
	Redirect(c, "/admin/posts")
}

func (h *Handler) AdminUsers(c *gin.Context) {
	ctx := c.Request.Context()
	number := pageParam(c)

	users, total, err := h.auth.ListUsers(ctx, number)
	if err != nil {
		h.serverError(c, "failed to list users", err)
		return
	}
	page := blog.Page{Total: total, Number: number, PageSize: auth.UsersPerPage}
	h.render(c, http.StatusOK, pages.AdminUsers(h.meta(c), users, page, h.registrationOpen(c)))
}

func (h *Handler) ToggleApproval(c *gin.Context) {
	admin := CurrentUser(c)
	id, err := parseUintParam(c.Param("id"))
	if err != nil {
		h.NotFound(c)
		return
	}

	user, err := h.auth.ToggleApproval(c.Request.Context(), admin.ID, id)
	switch {
	case errors.Is(err, auth.ErrForbidden):
		AddFlash(c, components.FlashError, "You cannot change your own approval.")
	case err != nil:
		flashError(c, err)
	case user.Approved:
		AddFlash(c, components.FlashSuccess, fmt.Sprintf("%s has been approved.", user.Username))
	default:
		AddFlash(c, components.FlashInfo, fmt.Sprintf("%s is no longer approved.", user.Username))
	}
	Redirect(c, backTo(c, "/admin/users"))
}

func (h *Handler) SetRegistration(c *gin.Context) {
	enabled, err := strconv.ParseBool(c.PostForm("enabled"))
	if err != nil {
		AddFlash(c, components.FlashError, "Invalid registration setting.")
		Redirect(c, "/admin/users")
		return
	}

	if err := h.auth.SetRegistrationEnabled(c.Request.Context(), enabled); err != nil {
		flashError(c, err)
	} else if enabled {
		log.Info("registration opened", "by", CurrentUser(c).ID)
		AddFlash(c, components.FlashSuccess, "Registration is now open.")
	} else {
		log.Info("registration closed", "by", CurrentUser(c).ID)
		AddFlash(c, components.FlashSuccess, "Registration is now closed.")
	}
	Redirect(c, "/admin/users")
}
