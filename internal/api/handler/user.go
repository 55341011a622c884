package handler

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/hexblog/hexblog/internal/auth"
	"github.com/hexblog/hexblog/internal/web/components"
	"github.com/hexblog/hexblog/internal/web/pages"
)

func (h *Handler) Settings(c *gin.Context) {
	user := CurrentUser(c)

	var left int64
	if user.TOTPEnabled {
		var err error
		left, err = h.auth.BackupCodesRemaining(c.Request.Context(), user.ID)
		if err != nil {
			h.serverError(c, "failed to count backup codes", err)
			return
		}
	}
	h.render(c, http.StatusOK, pages.Settings(h.meta(c), user, left))
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	user := CurrentUser(c)
	err := h.auth.UpdateProfile(c.Request.Context(), user.ID, auth.ProfileInput{
		DisplayName: c.PostForm("display_name"),
		Bio:         c.PostForm("bio"),
		Website:     c.PostForm("website"),
	})
	if err != nil {
		flashError(c, err)
	} else {
		AddFlash(c, components.FlashSuccess, "Profile updated successfully!")
	}
	Redirect(c, "/user/settings")
}

func (h *Handler) DeleteAccount(c *gin.Context) {
	user := CurrentUser(c)
	ctx := c.Request.Context()

	if err := h.auth.DeleteAccount(ctx, user.ID); err != nil {
		if errors.Is(err, auth.ErrForbidden) {
			AddFlash(c, components.FlashError, "Admin accounts cannot be deleted.")
		} else {
			flashError(c, err)
		}
		Redirect(c, "/user/settings")
		return
	}
	h.blog.InvalidateListings(ctx)

	session := sessions.Default(c)
	session.Clear()
	AddFlash(c, components.FlashSuccess, "Your account has been deleted. We hope to see you again!")
	Redirect(c, "/")
}
